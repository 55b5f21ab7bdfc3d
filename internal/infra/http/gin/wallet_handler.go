package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staynest/internal/app/commands"
	walletapp "staynest/internal/app/handlers/wallet"
	"staynest/internal/app/queries"
)

type WalletHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h WalletHandler) Statement(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := walletapp.GetStatementQuery{UserID: user.ID}
	result, err := queries.Ask[walletapp.GetStatementQuery, *walletapp.StatementResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type redeemPointsRequest struct {
	Points int `json:"points"`
}

func (h WalletHandler) RedeemPoints(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req redeemPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := walletapp.RedeemPointsCommand{
		UserID:          user.ID,
		Points:          req.Points,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[walletapp.RedeemPointsCommand, *walletapp.RedeemPointsResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ WalletHTTP = WalletHandler{}
