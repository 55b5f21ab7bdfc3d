package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staynest/internal/app/commands"
	cancelapp "staynest/internal/app/handlers/cancellation"
)

type BookingHandler struct {
	Commands commands.Bus
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking id required"})
		return
	}
	cmd := cancelapp.CancelBookingCommand{
		BookingID:   bookingID,
		RequesterID: user.ID,
	}
	result, err := commands.Dispatch[cancelapp.CancelBookingCommand, *cancelapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
