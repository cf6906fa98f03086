package ride

import (
	"errors"
	"testing"

	"github.com/LongshotAI/ride-my-wheels-home/internal/errs"
	"github.com/LongshotAI/ride-my-wheels-home/internal/models"
)

func TestHappyPathChain(t *testing.T) {
	chain := []models.RideStatus{
		models.StatusRequested,
		models.StatusDriverAssigned,
		models.StatusDriverArriving,
		models.StatusInProgress,
		models.StatusCompleted,
	}
	for i := 0; i < len(chain)-1; i++ {
		if err := ValidateTransition(chain[i], chain[i+1]); err != nil {
			t.Fatalf("%s -> %s rejected: %v", chain[i], chain[i+1], err)
		}
	}
}

func TestOutOfOrderTransitionsRejected(t *testing.T) {
	bad := [][2]models.RideStatus{
		{models.StatusRequested, models.StatusDriverArriving},
		{models.StatusRequested, models.StatusInProgress},
		{models.StatusRequested, models.StatusCompleted},
		{models.StatusDriverAssigned, models.StatusInProgress},
		{models.StatusDriverAssigned, models.StatusCompleted},
		{models.StatusDriverArriving, models.StatusCompleted},
		{models.StatusInProgress, models.StatusDriverAssigned},
	}
	for _, pair := range bad {
		err := ValidateTransition(pair[0], pair[1])
		if !errors.Is(err, errs.ErrInvalidTransition) {
			t.Fatalf("%s -> %s: err = %v, want ErrInvalidTransition", pair[0], pair[1], err)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	all := []models.RideStatus{
		models.StatusRequested, models.StatusScheduled, models.StatusDriverAssigned,
		models.StatusDriverArriving, models.StatusInProgress, models.StatusCompleted,
		models.StatusCancelledByRider, models.StatusCancelledByDriver,
	}
	terminals := []models.RideStatus{
		models.StatusCompleted, models.StatusCancelledByRider, models.StatusCancelledByDriver,
	}
	for _, from := range terminals {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Fatalf("terminal %s allows transition to %s", from, to)
			}
		}
	}
}

func TestEveryNonTerminalCanCancelBothWays(t *testing.T) {
	from := []models.RideStatus{
		models.StatusRequested, models.StatusScheduled, models.StatusDriverAssigned,
		models.StatusDriverArriving, models.StatusInProgress,
	}
	for _, f := range from {
		if !CanTransition(f, models.StatusCancelledByRider) {
			t.Fatalf("%s cannot cancel by rider", f)
		}
		if !CanTransition(f, models.StatusCancelledByDriver) {
			t.Fatalf("%s cannot cancel by driver", f)
		}
	}
}

func TestScheduledAcceptsAssignment(t *testing.T) {
	if !CanTransition(models.StatusScheduled, models.StatusDriverAssigned) {
		t.Fatal("scheduled -> driver_assigned must be legal")
	}
}

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(false); got != models.StatusRequested {
		t.Fatalf("InitialStatus(false) = %s", got)
	}
	if got := InitialStatus(true); got != models.StatusScheduled {
		t.Fatalf("InitialStatus(true) = %s", got)
	}
}
