package lifecycle

import (
	"testing"

	"github.com/example/dispatch-agent/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.StatusAccepted, models.StatusArrived, true},
		{models.StatusAccepted, models.StatusInProgress, true},
		{models.StatusArrived, models.StatusInProgress, true},
		{models.StatusInProgress, models.StatusFinished, true},
		{models.StatusArrived, models.StatusArrived, true},
		{models.StatusAccepted, models.StatusFinished, false},
		{models.StatusInProgress, models.StatusArrived, false},
		{models.StatusFinished, models.StatusInProgress, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCancelReachableFromEveryActiveState(t *testing.T) {
	for _, from := range []string{models.StatusAccepted, models.StatusArrived, models.StatusInProgress} {
		if !CanTransition(from, models.StatusCancelled) {
			t.Errorf("cancel not allowed from %q", from)
		}
	}
}
