package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"staynest/internal/app/commands"
	"staynest/internal/app/handlers/support"
	"staynest/internal/app/middleware"
	"staynest/internal/app/outbox"
	"staynest/internal/app/policies"
	"staynest/internal/app/uow"
)

const redeemPointsKey = "wallet.redeem_points"

var ErrUnitOfWorkRequired = errors.New("wallet: unit of work required")

// RedeemPointsCommand converts reward points into wallet credit.
type RedeemPointsCommand struct {
	UserID          string
	Points          int
	IdempotencyKeyV string
}

func (c RedeemPointsCommand) Key() string { return redeemPointsKey }

func (c RedeemPointsCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RedeemPointsCommand) ResultPrototype() any { return &RedeemPointsResult{} }

type RedeemPointsResult struct {
	Credited        int64 `json:"credited"`
	NewBalance      int64 `json:"new_balance"`
	RemainingPoints int   `json:"remaining_points"`
}

type RedeemPointsHandler struct {
	UoWFactory uow.UoWFactory
	Locks      policies.UserLocks
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	IDGen      func() string
}

func (h *RedeemPointsHandler) Handle(ctx context.Context, cmd RedeemPointsCommand) (*RedeemPointsResult, error) {
	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, cmd.UserID, 15*time.Second)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	unit, ctx, commit, cleanup, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, ErrUnitOfWorkRequired
	}
	if cleanup != nil {
		defer cleanup()
	}

	w, err := unit.Wallets().ByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	now := h.now()
	credited, err := w.RedeemPoints(h.id(), h.id(), cmd.Points, now)
	if err != nil {
		return nil, err
	}
	if err := unit.Wallets().Save(ctx, w); err != nil {
		return nil, err
	}

	pending := w.PendingEvents()
	w.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &RedeemPointsResult{
		Credited:        credited.Amount,
		NewBalance:      w.Balance.Amount,
		RemainingPoints: w.Points,
	}, nil
}

func (h *RedeemPointsHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RedeemPointsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *RedeemPointsHandler) id() string {
	if h.IDGen != nil {
		return h.IDGen()
	}
	return uuid.NewString()
}

var _ commands.Handler[RedeemPointsCommand, *RedeemPointsResult] = (*RedeemPointsHandler)(nil)
var _ middleware.IdempotentCommand = RedeemPointsCommand{}
