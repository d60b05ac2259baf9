package domain

import (
	"testing"
	"time"
)

func TestSchedule_IsDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name  string
		sched Schedule
		want  bool
	}{
		{"due in the past", Schedule{Enabled: true, NextDueAt: &past}, true},
		{"due exactly now", Schedule{Enabled: true, NextDueAt: &now}, true},
		{"due in the future", Schedule{Enabled: true, NextDueAt: &future}, false},
		{"disabled", Schedule{Enabled: false, NextDueAt: &past}, false},
		{"never scheduled", Schedule{Enabled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sched.IsDue(now); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedule_TimingMode(t *testing.T) {
	cron := Schedule{CronExpr: "0 9 * * *", IntervalSec: 60}
	if !cron.IsCron() || cron.IsInterval() {
		t.Error("cron expression must win over interval")
	}

	interval := Schedule{IntervalSec: 60}
	if interval.IsCron() || !interval.IsInterval() {
		t.Error("interval-only schedule misreported")
	}

	empty := Schedule{}
	if empty.IsCron() || empty.IsInterval() {
		t.Error("empty schedule has no timing mode")
	}
}

func TestSchedule_RecordRun(t *testing.T) {
	s := Schedule{Enabled: true}
	next := time.Now().Add(time.Hour)

	s.RecordRun("run-42", next)

	if s.LastRunID != "run-42" {
		t.Errorf("LastRunID = %q", s.LastRunID)
	}
	if s.LastRunAt == nil {
		t.Fatal("LastRunAt not set")
	}
	if s.NextDueAt == nil || !s.NextDueAt.Equal(next) {
		t.Errorf("NextDueAt = %v, want %v", s.NextDueAt, next)
	}
	if s.IsDue(time.Now()) {
		t.Error("schedule must not be due right after recording a run")
	}
}

func TestRunRecord_Finalize(t *testing.T) {
	r := RunRecord{Status: RunStatusRunning, StartedAt: time.Now().Add(-3 * time.Second)}

	if r.Duration() != 0 {
		t.Error("Duration must be 0 before finalize")
	}

	r.Finalize(RunStatusFailed, "stage clean exploded")

	if r.Status != RunStatusFailed || r.Error != "stage clean exploded" {
		t.Errorf("record = %+v", r)
	}
	if r.FinishedAt == nil {
		t.Fatal("FinishedAt not set")
	}
	if r.Duration() <= 0 {
		t.Errorf("Duration = %v, want > 0", r.Duration())
	}
}
