package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestTransition_Table(t *testing.T) {
	at := t0.Add(time.Hour)
	started := Active{Started: t0}
	inProgress := Active{Started: t0, InProgress: true}
	completed := Completed{Started: t0, Completed: t0.Add(time.Minute)}
	abandoned := Abandoned{Started: t0, Abandoned: t0.Add(time.Minute)}

	cases := []struct {
		name    string
		from    Lifecycle
		ev      Event
		want    Lifecycle
		wantErr error
	}{
		{"started begin work", started, EventBeginWork, inProgress, nil},
		{"started complete", started, EventComplete, Completed{Started: t0, Completed: at}, nil},
		{"started abandon", started, EventAbandon, Abandoned{Started: t0, Abandoned: at}, nil},
		{"in progress begin work is idempotent", inProgress, EventBeginWork, inProgress, nil},
		{"in progress complete", inProgress, EventComplete, Completed{Started: t0, Completed: at}, nil},
		{"in progress abandon", inProgress, EventAbandon, Abandoned{Started: t0, Abandoned: at}, nil},
		{"completed begin work is a no-op", completed, EventBeginWork, completed, nil},
		{"completed complete", completed, EventComplete, completed, ErrAlreadyTerminal},
		{"completed abandon", completed, EventAbandon, completed, ErrAlreadyTerminal},
		{"abandoned complete", abandoned, EventComplete, abandoned, ErrAlreadyTerminal},
		{"abandoned abandon", abandoned, EventAbandon, abandoned, ErrAlreadyTerminal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.ev, at)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
			assert.True(t, got.Status().Valid())
		})
	}
}

func TestTransition_UnknownEvent(t *testing.T) {
	_, err := Transition(Active{Started: t0}, Event(99), t0)
	assert.Error(t, err)
}

func TestDuration_Policy(t *testing.T) {
	now := t0.Add(90 * time.Minute)

	assert.Equal(t, 90*time.Minute, Duration(Active{Started: t0}, now))
	assert.Equal(t, 30*time.Minute, Duration(Completed{Started: t0, Completed: t0.Add(30 * time.Minute)}, now))
	assert.Equal(t, 45*time.Minute, Duration(Abandoned{Started: t0, Abandoned: t0.Add(45 * time.Minute)}, now))
	assert.Equal(t, time.Duration(0), Duration(Active{Started: t0}, t0.Add(-time.Minute)))
}

func TestDuration_ActiveIsMonotonic(t *testing.T) {
	l := Active{Started: t0, InProgress: true}
	prev := time.Duration(-1)
	for i := 0; i < 5; i++ {
		d := Duration(l, t0.Add(time.Duration(i)*time.Second))
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestSessionStatus_ScanRejectsUnknown(t *testing.T) {
	var s SessionStatus
	require.NoError(t, s.Scan("IN_PROGRESS"))
	assert.Equal(t, StatusInProgress, s)

	require.NoError(t, s.Scan([]byte("COMPLETED")))
	assert.Equal(t, StatusCompleted, s)

	assert.ErrorIs(t, s.Scan("Started"), ErrInvalidStatus)
	assert.Error(t, s.Scan(42))
}

func TestSessionStatus_ValueRejectsUnknown(t *testing.T) {
	v, err := StatusAbandoned.Value()
	require.NoError(t, err)
	assert.Equal(t, "ABANDONED", v)

	_, err = SessionStatus("done").Value()
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSessionStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusStarted.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusAbandoned.IsTerminal())
}
