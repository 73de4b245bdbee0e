package checkout

// State is the position of the orchestrator in the checkout flow.
type State string

const (
	StateIdle              State = "IDLE"
	StateValidatingDetails State = "VALIDATING_DETAILS"
	StateCashConfirming    State = "CASH_CONFIRMING"
	StateOnlinePaying      State = "ONLINE_PAYING"
	StateSubmitting        State = "SUBMITTING"
	StateSucceeded         State = "SUCCEEDED"
	StateFailed            State = "FAILED"
)

// Terminal reports whether the state ends an attempt and waits for
// Acknowledge.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
