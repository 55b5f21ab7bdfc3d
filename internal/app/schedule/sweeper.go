package schedule

import (
	"context"
	"log/slog"
	"time"

	"staynest/internal/app/handlers/support"
	"staynest/internal/app/outbox"
	"staynest/internal/app/uow"
)

// AbandonedOrderSweeper fails bookings that sat in the awaiting-gateway
// state past the order timeout. Nothing was held for them (no wallet
// debit, no inventory), so failing simply releases the quote.
type AbandonedOrderSweeper struct {
	UoWFactory   uow.UoWFactory
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	OrderTimeout time.Duration
	Interval     time.Duration
	Logger       *slog.Logger
}

func (s *AbandonedOrderSweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil && s.Logger != nil {
				s.Logger.Error("abandoned order sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce fails every awaiting booking older than the timeout. Each
// booking commits in its own unit so one bad record cannot wedge the
// sweep.
func (s *AbandonedOrderSweeper) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.OrderTimeout)

	readUnit, readCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return err
	}
	stale, err := readUnit.Bookings().ListAwaitingBefore(readCtx, cutoff)
	if cleanup != nil {
		cleanup()
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, b := range stale {
		released := false
		err := support.RunInUnit(ctx, s.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
			changed, err := b.Fail("abandoned: gateway order timed out", now)
			if err != nil || !changed {
				// Raced with a callback that settled the order; leave it.
				b.ClearEvents()
				return nil
			}
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			pending := b.PendingEvents()
			b.ClearEvents()
			released = true
			return outbox.RecordDomainEvents(ctx, s.Outbox, s.encoder(), pending)
		})
		if err != nil {
			return err
		}
		if released && s.Logger != nil {
			s.Logger.Info("abandoned booking released", "booking_id", string(b.ID))
		}
	}
	return nil
}

func (s *AbandonedOrderSweeper) encoder() outbox.EventEncoder {
	if s.Encoder != nil {
		return s.Encoder
	}
	return outbox.JSONEventEncoder{}
}
