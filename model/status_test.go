package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(deadline string) Task {
	return Task{TaskID: "t1", AssignedOn: "2024-01-01", Deadline: deadline, Status: StatusPending, Priority: PriorityLow}
}

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses() {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseStatus("Done")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		want  Status
	}{
		{"before deadline", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), StatusCompletedOnTime},
		{"on deadline", time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC), StatusCompletedOnTime},
		{"after deadline", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), StatusCompletedOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := pending("2024-01-10")
			require.NoError(t, tk.Submit())
			require.NoError(t, tk.Verify(tt.today))
			assert.Equal(t, tt.want, tk.Status)
			require.NotNil(t, tk.Completed)
			assert.Equal(t, tt.today.Format("2006-01-02"), *tk.Completed)
		})
	}
}

func TestCompletedOnlyWhileCompleted(t *testing.T) {
	tk := pending("2024-01-10")
	require.NoError(t, tk.Submit())
	require.NoError(t, tk.Verify(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.NotNil(t, tk.Completed)

	require.NoError(t, tk.Reopen())
	assert.Equal(t, StatusReopened, tk.Status)
	assert.Nil(t, tk.Completed)

	require.NoError(t, tk.Submit())
	require.NoError(t, tk.Reject())
	assert.Equal(t, StatusPending, tk.Status)
	assert.Nil(t, tk.Completed)
}

func TestInvalidTransitions(t *testing.T) {
	tk := pending("2024-01-10")
	assert.ErrorIs(t, tk.Verify(time.Now()), ErrInvalidTransition)
	assert.ErrorIs(t, tk.Reject(), ErrInvalidTransition)
	assert.ErrorIs(t, tk.Reopen(), ErrInvalidTransition)
	assert.Equal(t, StatusPending, tk.Status)

	tpl := pending("2024-01-10")
	tpl.IsRecurring = true
	assert.ErrorIs(t, tpl.Submit(), ErrInvalidTransition)
}

func TestDates(t *testing.T) {
	tk := pending("2024-01-10")
	on, due, err := tk.Dates()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), on)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), due)

	tk.Priority = "Urgent"
	_, _, err = tk.Dates()
	assert.ErrorIs(t, err, ErrUnknownPriority)

	tk = pending("soon")
	_, _, err = tk.Dates()
	assert.ErrorContains(t, err, "deadline")
}

func TestDates_StrayCompleted(t *testing.T) {
	c := "2024-01-05"
	tk := pending("2024-01-10")
	tk.Completed = &c
	_, _, err := tk.Dates()
	assert.ErrorIs(t, err, ErrStrayCompleted)

	tk.Status = StatusCompletedOnTime
	_, _, err = tk.Dates()
	assert.NoError(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	c := "2024-01-02"
	tk := Task{Completed: &c, NextDeadlines: []string{"2024-02-01"}, ChildTaskIDs: []string{"a"}}
	cp := tk.Clone()
	cp.NextDeadlines[0] = "x"
	cp.ChildTaskIDs = append(cp.ChildTaskIDs, "b")
	*cp.Completed = "y"

	assert.Equal(t, "2024-02-01", tk.NextDeadlines[0])
	assert.Equal(t, []string{"a"}, tk.ChildTaskIDs)
	assert.Equal(t, "2024-01-02", c)
	assert.True(t, cp.HasChild("b"))
}
