package booking

import (
	"time"

	"staynest/internal/domain/shared/daterange"
)

type StayPhase string

const (
	PhaseUpcoming    StayPhase = "upcoming"
	PhaseCurrentStay StayPhase = "current_stay"
	PhaseCompleted   StayPhase = "completed"
)

// Lifecycle is the derived display state. Recomputed on every read and
// never persisted.
type Lifecycle struct {
	Phase             StayPhase
	DaysUntilCheckIn  int
	DaysUntilCheckOut int
}

// DeriveLifecycle maps now against the stay interval. Inclusive at
// check-in, exclusive at check-out; remaining days round up.
func DeriveLifecycle(now time.Time, dr daterange.DateRange) Lifecycle {
	now = now.UTC()
	switch {
	case now.Before(dr.CheckIn):
		return Lifecycle{
			Phase:             PhaseUpcoming,
			DaysUntilCheckIn:  daterange.DaysUntil(now, dr.CheckIn),
			DaysUntilCheckOut: daterange.DaysUntil(now, dr.CheckOut),
		}
	case now.Before(dr.CheckOut):
		return Lifecycle{
			Phase:             PhaseCurrentStay,
			DaysUntilCheckOut: daterange.DaysUntil(now, dr.CheckOut),
		}
	default:
		return Lifecycle{Phase: PhaseCompleted}
	}
}
