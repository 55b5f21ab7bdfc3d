package middleware

import (
	"context"

	"staynest/internal/app/commands"
	"staynest/internal/app/outbox"
)

// OutboxFlush releases the booking and wallet events a command recorded,
// after the command succeeds. A failed command leaves its events
// unflushed alongside its rolled-back writes.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
