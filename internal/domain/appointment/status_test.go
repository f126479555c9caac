package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusConfirmed, StatusConfirmed, false},
		{StatusInProgress, StatusConfirmed, false},
		{StatusScheduled, StatusInProgress, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
	}

	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.True(t, httperr.IsBusiness(err, "invalid_state"), "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.True(t, from.IsTerminal())
		assert.Error(t, CanConfirm(from))
		assert.Error(t, CanStart(from))
		assert.Error(t, CanComplete(from))
		assert.Error(t, CanCancel(from))
		assert.Error(t, CanMarkNoShow(from))
	}
	assert.False(t, StatusScheduled.IsTerminal())
	assert.Equal(t, StatusScheduled, InitialStatus())
}
