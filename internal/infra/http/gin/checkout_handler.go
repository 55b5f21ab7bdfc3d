package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staynest/internal/app/commands"
	checkoutapp "staynest/internal/app/handlers/checkout"
	"staynest/internal/app/policies"
	"staynest/internal/app/queries"
	domainbooking "staynest/internal/domain/booking"
	domainlistings "staynest/internal/domain/listings"
	domainpricing "staynest/internal/domain/pricing"
	domainrange "staynest/internal/domain/shared/daterange"
)

type CheckoutHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type quoteRequest struct {
	ListingID    string    `json:"listing_id"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Guests       int       `json:"guests"`
	WalletAmount int64     `json:"wallet_amount"`
}

func (h CheckoutHandler) Quote(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := checkoutapp.GetQuoteQuery{
		ListingID:             req.ListingID,
		TravellerID:           user.ID,
		CheckIn:               req.CheckIn,
		CheckOut:              req.CheckOut,
		Guests:                req.Guests,
		RequestedWalletAmount: req.WalletAmount,
	}
	result, err := queries.Ask[checkoutapp.GetQuoteQuery, *checkoutapp.QuoteResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type placeBookingRequest struct {
	ListingID    string    `json:"listing_id"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Guests       int       `json:"guests"`
	WalletAmount int64     `json:"wallet_amount"`
}

func (h CheckoutHandler) PlaceBooking(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req placeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := checkoutapp.PlaceBookingCommand{
		CommandID:             generateCommandID(),
		ListingID:             req.ListingID,
		TravellerID:           user.ID,
		CheckIn:               req.CheckIn,
		CheckOut:              req.CheckOut,
		Guests:                req.Guests,
		RequestedWalletAmount: req.WalletAmount,
		IdempotencyKeyV:       c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[checkoutapp.PlaceBookingCommand, *checkoutapp.PlaceBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

type gatewayCallbackRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// GatewayCallback is the unauthenticated completion webhook. The HMAC
// signature is the authentication.
func (h CheckoutHandler) GatewayCallback(c *gin.Context) {
	var req gatewayCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := checkoutapp.ConfirmPaymentCommand{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	}
	result, err := commands.Dispatch[checkoutapp.ConfirmPaymentCommand, *checkoutapp.ConfirmPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainlistings.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, policies.ErrVerificationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, policies.ErrWalletBusy):
		return http.StatusConflict
	case errors.Is(err, checkoutapp.ErrStaleOrder),
		errors.Is(err, domainbooking.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domainpricing.ErrInvalidDateRange),
		errors.Is(err, domainpricing.ErrInvalidGuests),
		errors.Is(err, domainrange.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ CheckoutHTTP = CheckoutHandler{}
