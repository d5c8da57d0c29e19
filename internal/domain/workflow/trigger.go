package workflow

// Trigger represents an event that can move an expense or approval
// request between states.
type Trigger string

const (
	// TriggerApprove is a single approver approving their own step.
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject is any approver rejecting; on the expense it also
	// implies the cascade of remaining pending requests.
	TriggerReject Trigger = "REJECT"

	// TriggerOverride is a director approving out of order, finalizing
	// the expense and auto-closing the remaining pending requests.
	TriggerOverride Trigger = "OVERRIDE"

	// TriggerFinalize fires on the expense when every chain step has
	// been individually approved.
	TriggerFinalize Trigger = "FINALIZE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
