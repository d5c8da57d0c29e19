package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForExpense_InvalidState(t *testing.T) {
	_, err := ForExpense(State("unknown"))
	assert.Error(t, err)
}

func TestExpenseTransitions(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		want    State
	}{
		{"finalize approves", TriggerFinalize, StateApproved},
		{"override approves", TriggerOverride, StateApproved},
		{"reject rejects", TriggerReject, StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ForExpense(StatePending)
			require.NoError(t, err)

			require.NoError(t, m.Fire(tt.trigger))
			assert.Equal(t, tt.want, m.State())
		})
	}
}

func TestExpenseDoesNotAcceptPlainApprove(t *testing.T) {
	// Individual approvals act on requests; the expense only moves via
	// finalize, override or reject.
	m, err := ForExpense(StatePending)
	require.NoError(t, err)

	err = m.Fire(TriggerApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatePending, m.State())
}

func TestRequestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		want    State
	}{
		{"approve", TriggerApprove, StateApproved},
		{"override", TriggerOverride, StateApproved},
		{"reject", TriggerReject, StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ForRequest(StatePending)
			require.NoError(t, err)

			require.NoError(t, m.Fire(tt.trigger))
			assert.Equal(t, tt.want, m.State())
		})
	}
}

func TestTerminalStatesRejectAllTriggers(t *testing.T) {
	for _, state := range []State{StateApproved, StateRejected} {
		for _, trigger := range []Trigger{TriggerApprove, TriggerReject, TriggerOverride, TriggerFinalize} {
			t.Run(state.String()+"_"+trigger.String(), func(t *testing.T) {
				m, err := ForRequest(state)
				require.NoError(t, err)

				err = m.Fire(trigger)
				assert.ErrorIs(t, err, ErrTerminalState)
				assert.Equal(t, state, m.State())
			})
		}
	}
}

func TestCanFire(t *testing.T) {
	m, err := ForExpense(StatePending)
	require.NoError(t, err)

	assert.True(t, m.CanFire(TriggerReject))
	assert.False(t, m.CanFire(TriggerApprove))

	require.NoError(t, m.Fire(TriggerReject))
	assert.False(t, m.CanFire(TriggerReject))
}

func TestPermittedTriggers(t *testing.T) {
	m, err := ForRequest(StatePending)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]Trigger{TriggerApprove, TriggerOverride, TriggerReject},
		m.PermittedTriggers())

	require.NoError(t, m.Fire(TriggerApprove))
	assert.Empty(t, m.PermittedTriggers())
}
