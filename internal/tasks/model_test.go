package tasks

import (
	"testing"
	"time"
)

func TestEffectiveStatusComputesOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		task Task
		want string
	}{
		{"pending before due", Task{Status: StatusPending, DueDate: &future}, StatusPending},
		{"pending past due", Task{Status: StatusPending, DueDate: &due}, StatusOverdue},
		{"pending without due date", Task{Status: StatusPending}, StatusPending},
		{"completed past due stays completed", Task{Status: StatusCompleted, DueDate: &due}, StatusCompleted},
	}
	for _, tc := range cases {
		if got := tc.task.EffectiveStatus(now); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestNewTaskDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := New("u-1", "investment", "r-1", KindApproval, "Review stage 1", now)

	if task.ID == "" {
		t.Fatal("missing id")
	}
	if task.Status != StatusPending {
		t.Fatalf("status = %s", task.Status)
	}
	if task.DueDate == nil || !task.DueDate.Equal(now.Add(DefaultDueIn)) {
		t.Fatalf("due date = %v, want %v", task.DueDate, now.Add(DefaultDueIn))
	}
}
