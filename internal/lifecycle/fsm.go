package lifecycle

import "github.com/example/dispatch-agent/internal/models"

// Allowed post-acceptance estado transitions. The authority has the
// final word; this map only stops the agent from issuing commands that
// can never succeed (e.g. walking a trip backwards).
var transitions = map[string]map[string]struct{}{
	models.StatusAccepted: {
		models.StatusArrived:    {},
		models.StatusInProgress: {},
		models.StatusCancelled:  {},
	},
	models.StatusArrived: {
		models.StatusInProgress: {},
		models.StatusCancelled:  {},
	},
	models.StatusInProgress: {
		models.StatusFinished:  {},
		models.StatusCancelled: {},
	},
}

// CanTransition reports whether an accepted request may move from its
// current estado to the target one.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
