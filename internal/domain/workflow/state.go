package workflow

// State represents a lifecycle state shared by expenses and approval
// requests: both start pending and settle exactly once.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
