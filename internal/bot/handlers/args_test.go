package handlers

import (
	"errors"
	"testing"

	"github.com/JeissonPachon/telegram-taskbot/internal/clock"
)

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"command only", "/addtask", nil},
		{"command with args", "/addtask Buy bread", []string{"Buy", "bread"}},
		{"extra whitespace", "/addtask   Buy   bread ", []string{"Buy", "bread"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := commandArgs(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("commandArgs(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("commandArgs(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseReminderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		args         []string
		wantRemindAt string
		wantTaskID   int64
		wantHasTask  bool
		wantRepeat   clock.Recurrence
	}{
		{
			name:         "single token datetime",
			args:         []string{"2026-01-15T09:00"},
			wantRemindAt: "2026-01-15T09:00:00Z",
		},
		{
			name:         "date and time split across tokens",
			args:         []string{"2026-01-15", "09:00"},
			wantRemindAt: "2026-01-15T09:00:00Z",
		},
		{
			name:         "with task id",
			args:         []string{"2026-01-15", "09:00", "7"},
			wantRemindAt: "2026-01-15T09:00:00Z",
			wantTaskID:   7,
			wantHasTask:  true,
		},
		{
			name:         "with recurrence",
			args:         []string{"2026-01-15", "09:00", "daily"},
			wantRemindAt: "2026-01-15T09:00:00Z",
			wantRepeat:   clock.RecurrenceDaily,
		},
		{
			name:         "task id and recurrence in either order",
			args:         []string{"2026-01-15", "09:00", "weekly", "3"},
			wantRemindAt: "2026-01-15T09:00:00Z",
			wantTaskID:   3,
			wantHasTask:  true,
			wantRepeat:   clock.RecurrenceWeekly,
		},
		{
			name:         "uppercase recurrence keyword",
			args:         []string{"2026-01-15", "09:00", "DAILY"},
			wantRemindAt: "2026-01-15T09:00:00Z",
			wantRepeat:   clock.RecurrenceDaily,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, err := parseReminderArgs(tt.args)
			if err != nil {
				t.Fatalf("parseReminderArgs(%v) returned error: %v", tt.args, err)
			}
			if req.remindAt != tt.wantRemindAt {
				t.Errorf("remindAt = %q, want %q", req.remindAt, tt.wantRemindAt)
			}
			if req.taskID.Valid != tt.wantHasTask {
				t.Errorf("taskID.Valid = %v, want %v", req.taskID.Valid, tt.wantHasTask)
			}
			if tt.wantHasTask && req.taskID.Int64 != tt.wantTaskID {
				t.Errorf("taskID = %d, want %d", req.taskID.Int64, tt.wantTaskID)
			}
			if req.repeat != tt.wantRepeat {
				t.Errorf("repeat = %q, want %q", req.repeat, tt.wantRepeat)
			}
		})
	}
}

func TestParseReminderArgsRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"garbage date", []string{"tomorrow"}},
		{"bad time component", []string{"2026-01-15", "25:99"}},
		{"unknown trailing token", []string{"2026-01-15", "09:00", "monthly"}},
		{"two task ids", []string{"2026-01-15", "09:00", "3", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseReminderArgs(tt.args)
			if err == nil {
				t.Fatalf("parseReminderArgs(%v) succeeded, want error", tt.args)
			}
			if !errors.Is(err, clock.ErrInvalidFormat) {
				t.Errorf("error %v does not wrap clock.ErrInvalidFormat", err)
			}
		})
	}
}
