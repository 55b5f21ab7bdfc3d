package membership

import (
	"context"
	"errors"
	"time"

	"staynest/internal/app/commands"
	"staynest/internal/app/handlers/support"
	"staynest/internal/app/middleware"
	"staynest/internal/app/uow"
	domainuser "staynest/internal/domain/user"
)

const activateKey = "membership.activate"

var ErrUnitOfWorkRequired = errors.New("membership: unit of work required")

// ActivateMembershipCommand sets the member flag and its expiry in one
// write so the flag can never be active without a future term.
type ActivateMembershipCommand struct {
	UserID          string
	Months          int
	IdempotencyKeyV string
}

func (c ActivateMembershipCommand) Key() string { return activateKey }

func (c ActivateMembershipCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ActivateMembershipCommand) ResultPrototype() any { return &ActivateMembershipResult{} }

type ActivateMembershipResult struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ActivateMembershipHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *ActivateMembershipHandler) Handle(ctx context.Context, cmd ActivateMembershipCommand) (*ActivateMembershipResult, error) {
	unit, ctx, commit, cleanup, err := support.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, ErrUnitOfWorkRequired
	}
	if cleanup != nil {
		defer cleanup()
	}

	u, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	months := cmd.Months
	if months <= 0 {
		months = 12
	}
	now := h.now()
	// Extend from the current expiry when the membership is still running.
	from := now
	if u.MembershipActive(now) {
		from = u.MembershipExpiresAt
	}
	expires := from.AddDate(0, months, 0)
	if err := u.ActivateMembership(expires, now); err != nil {
		return nil, err
	}
	if err := unit.Users().Save(ctx, u); err != nil {
		return nil, err
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			return nil, err
		}
	}
	return &ActivateMembershipResult{UserID: cmd.UserID, ExpiresAt: u.MembershipExpiresAt}, nil
}

func (h *ActivateMembershipHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ActivateMembershipCommand, *ActivateMembershipResult] = (*ActivateMembershipHandler)(nil)
var _ middleware.IdempotentCommand = ActivateMembershipCommand{}
