package models

import "testing"

func TestTaskStatusValid(t *testing.T) {
	valid := []TaskStatus{
		TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusBlocked,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	if TaskStatus("running").Valid() {
		t.Error("expected unknown status to be invalid")
	}
	if TaskStatus("").Valid() {
		t.Error("expected empty status to be invalid")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	if !TaskStatusCompleted.Terminal() {
		t.Error("completed should be terminal")
	}
	if !TaskStatusFailed.Terminal() {
		t.Error("failed should be terminal")
	}
	if TaskStatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if TaskStatusInProgress.Terminal() {
		t.Error("in_progress should not be terminal")
	}
}

func TestBlockerGates(t *testing.T) {
	cases := []struct {
		name    string
		blocker Blocker
		want    bool
	}{
		{"pending sync", Blocker{Type: BlockerTypeSync, Status: BlockerStatusPending}, true},
		{"pending async", Blocker{Type: BlockerTypeAsync, Status: BlockerStatusPending}, false},
		{"resolved sync", Blocker{Type: BlockerTypeSync, Status: BlockerStatusResolved}, false},
		{"expired sync", Blocker{Type: BlockerTypeSync, Status: BlockerStatusExpired}, false},
	}

	for _, tc := range cases {
		if got := tc.blocker.Gates(); got != tc.want {
			t.Errorf("%s: Gates() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAgentStatusValid(t *testing.T) {
	for _, s := range []AgentStatus{AgentStatusIdle, AgentStatusBusy, AgentStatusRetired} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if AgentStatus("sleeping").Valid() {
		t.Error("expected unknown agent status to be invalid")
	}
}
