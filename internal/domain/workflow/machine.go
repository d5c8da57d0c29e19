package workflow

import "fmt"

// Machine tracks the current state of one expense or approval request
// and validates triggers against a fixed transition table. The table is
// shared and immutable; a Machine is cheap to construct per record.
type Machine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// expenseTransitions is the full expense lifecycle. An expense settles
// through a normal finalize, a director override, or a reject cascade.
var expenseTransitions = map[State]map[Trigger]State{
	StatePending: {
		TriggerFinalize: StateApproved,
		TriggerOverride: StateApproved,
		TriggerReject:   StateRejected,
	},
}

// requestTransitions covers a single approval request, which settles
// exactly once. An override settles still-pending requests as approved.
var requestTransitions = map[State]map[Trigger]State{
	StatePending: {
		TriggerApprove:  StateApproved,
		TriggerOverride: StateApproved,
		TriggerReject:   StateRejected,
	},
}

// ForExpense builds a machine over the expense lifecycle
func ForExpense(current State) (*Machine, error) {
	return newMachine(current, expenseTransitions)
}

// ForRequest builds a machine over the approval request lifecycle
func ForRequest(current State) (*Machine, error) {
	return newMachine(current, requestTransitions)
}

func newMachine(current State, transitions map[State]map[Trigger]State) (*Machine, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("invalid state %q", current)
	}
	return &Machine{current: current, transitions: transitions}, nil
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire applies the trigger, moving to the target state if permitted.
// Firing from a terminal state returns ErrTerminalState so callers can
// surface an idempotency failure distinctly from a bad trigger.
func (m *Machine) Fire(trigger Trigger) error {
	if m.current.IsTerminal() {
		return fmt.Errorf("%w: %s cannot accept %s", ErrTerminalState, m.current, trigger)
	}
	next, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}

// PermittedTriggers returns the triggers that can fire from the current state
func (m *Machine) PermittedTriggers() []Trigger {
	permitted := m.transitions[m.current]
	triggers := make([]Trigger, 0, len(permitted))
	for trigger := range permitted {
		triggers = append(triggers, trigger)
	}
	return triggers
}
