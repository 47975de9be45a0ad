package model

// Pair lifecycle states.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateWarning   = "warning"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// Outcome tiers for a single copy run. The mapping from external tool exit
// codes is fixed: 0-3 success, 4-7 warning, 8+ or failure to launch error.
const (
	OutcomeSuccess   = "success"
	OutcomeWarning   = "warning"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// StateForOutcome maps a run outcome to the pair's terminal lifecycle state.
func StateForOutcome(outcome string) string {
	switch outcome {
	case OutcomeSuccess:
		return StateSucceeded
	case OutcomeWarning:
		return StateWarning
	case OutcomeCancelled:
		return StateCancelled
	default:
		return StateFailed
	}
}
