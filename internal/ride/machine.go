// Package ride owns the ride lifecycle: creation, the validated status state
// machine, and the race-safe acceptance protocol.
package ride

import (
	"fmt"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

// transitions is the full table. Terminal states have no outgoing edges, so
// any transition attempted from one fails.
var transitions = map[models.RideStatus][]models.RideStatus{
	models.StatusRequested: {
		models.StatusDriverAssigned,
		models.StatusCancelledByRider,
		models.StatusCancelledByDriver,
	},
	models.StatusScheduled: {
		models.StatusDriverAssigned,
		models.StatusCancelledByRider,
		models.StatusCancelledByDriver,
	},
	models.StatusDriverAssigned: {
		models.StatusDriverArriving,
		models.StatusCancelledByRider,
		models.StatusCancelledByDriver,
	},
	models.StatusDriverArriving: {
		models.StatusInProgress,
		models.StatusCancelledByRider,
		models.StatusCancelledByDriver,
	},
	models.StatusInProgress: {
		models.StatusCompleted,
		models.StatusCancelledByRider,
		models.StatusCancelledByDriver,
	},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to models.RideStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns errs.ErrInvalidTransition with the offending
// pair when from -> to is not legal.
func ValidateTransition(from, to models.RideStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, from, to)
	}
	return nil
}

// InitialStatus is requested for immediate rides, scheduled when a future
// pickup time is set.
func InitialStatus(scheduled bool) models.RideStatus {
	if scheduled {
		return models.StatusScheduled
	}
	return models.StatusRequested
}
