package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staynest/internal/app/commands"
	meapp "staynest/internal/app/handlers/me"
	membershipapp "staynest/internal/app/handlers/membership"
	"staynest/internal/app/queries"
)

type MeHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := meapp.ListBookingsQuery{TravellerID: user.ID}
	result, err := queries.Ask[meapp.ListBookingsQuery, meapp.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type activateMembershipRequest struct {
	Months int `json:"months"`
}

func (h MeHandler) ActivateMembership(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req activateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := membershipapp.ActivateMembershipCommand{
		UserID:          user.ID,
		Months:          req.Months,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[membershipapp.ActivateMembershipCommand, *membershipapp.ActivateMembershipResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
