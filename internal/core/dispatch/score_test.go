package dispatch

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want int
	}{
		{name: "idle empty queue", c: Candidate{Status: MachineIdle}, want: 50},
		{name: "idle with backlog", c: Candidate{Status: MachineIdle, QueueDepth: 3}, want: 20},
		{name: "running with two queued", c: Candidate{Status: MachineRunning, QueueDepth: 2}, want: -10},
		{name: "blocked", c: Candidate{Status: MachineBlocked}, want: -30},
		{name: "down", c: Candidate{Status: MachineDown}, want: -100},
		{name: "unknown status only counts depth", c: Candidate{Status: "weird", QueueDepth: 1}, want: -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.c); got != tt.want {
				t.Errorf("Score(%+v) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestSelectPrefersIdleMachine(t *testing.T) {
	// One idle machine with an empty queue (50) against one running
	// machine with two queued items (10 - 20 = -10).
	candidates := []Candidate{
		{MachineID: "MCH-001", Status: MachineRunning, QueueDepth: 2},
		{MachineID: "MCH-002", Status: MachineIdle, QueueDepth: 0},
	}

	best, ok := Select(candidates)
	if !ok {
		t.Fatal("Select returned no machine")
	}
	if best.MachineID != "MCH-002" {
		t.Errorf("selected %s, want MCH-002", best.MachineID)
	}
}

func TestSelectNeverPicksDownMachine(t *testing.T) {
	candidates := []Candidate{
		{MachineID: "MCH-001", Status: MachineDown},
		{MachineID: "MCH-002", Status: MachineDown, QueueDepth: 5},
	}

	if _, ok := Select(candidates); ok {
		t.Error("Select picked a down machine")
	}

	// A heavily loaded live machine still beats any down machine.
	candidates = append(candidates, Candidate{MachineID: "MCH-003", Status: MachineBlocked, QueueDepth: 9})
	best, ok := Select(candidates)
	if !ok || best.MachineID != "MCH-003" {
		t.Errorf("selected %+v, want MCH-003", best)
	}
}

func TestSelectTieKeepsFirstCandidate(t *testing.T) {
	candidates := []Candidate{
		{MachineID: "MCH-001", Status: MachineIdle, QueueDepth: 1},
		{MachineID: "MCH-002", Status: MachineIdle, QueueDepth: 1},
	}

	best, ok := Select(candidates)
	if !ok || best.MachineID != "MCH-001" {
		t.Errorf("selected %+v, want first candidate MCH-001", best)
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, ok := Select(nil); ok {
		t.Error("Select(nil) returned a machine")
	}
}

func TestProcessForTaskType(t *testing.T) {
	tests := map[string]string{
		"cut":     ProcessCut,
		"bend":    ProcessBend,
		"load":    ProcessLoad,
		"inspect": ProcessOther,
		"":        ProcessOther,
	}
	for taskType, want := range tests {
		if got := ProcessForTaskType(taskType); got != want {
			t.Errorf("ProcessForTaskType(%q) = %s, want %s", taskType, got, want)
		}
	}
}
