// Package dispatch holds the machine-selection heuristic: a greedy,
// single-pass score over the candidates for one task. It never reshuffles
// queued work and never looks ahead across a batch, so batch ordering
// affects outcomes.
package dispatch

// Machine statuses as reported by the shop floor.
const (
	MachineIdle    = "idle"
	MachineRunning = "running"
	MachineBlocked = "blocked"
	MachineDown    = "down"
)

// Machine process categories.
const (
	ProcessCut   = "cut"
	ProcessBend  = "bend"
	ProcessLoad  = "load"
	ProcessOther = "other"
)

// Scoring weights.
const (
	idleBonus       = 50
	runningBonus    = 10
	blockedPenalty  = -30
	downPenalty     = -100
	perQueuedWeight = 10
)

// Candidate is one capable machine with its current load.
type Candidate struct {
	MachineID  string
	Status     string
	QueueDepth int // items in queued or running state
}

// ProcessForTaskType maps a production-task type onto a machine process
// category.
func ProcessForTaskType(taskType string) string {
	switch taskType {
	case "cut":
		return ProcessCut
	case "bend":
		return ProcessBend
	case "load":
		return ProcessLoad
	default:
		return ProcessOther
	}
}

// Score rates one candidate. Higher is better.
func Score(c Candidate) int {
	score := 0
	switch c.Status {
	case MachineIdle:
		score += idleBonus
	case MachineRunning:
		score += runningBonus
	case MachineBlocked:
		score += blockedPenalty
	case MachineDown:
		score += downPenalty
	}
	return score - perQueuedWeight*c.QueueDepth
}

// Select picks the candidate with the strictly highest score. Machines
// that are down are never selected. Ties keep the first candidate
// encountered, so the result is deterministic for a fixed input order.
func Select(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	bestScore := 0
	found := false

	for _, c := range candidates {
		if c.Status == MachineDown {
			continue
		}
		score := Score(c)
		if !found || score > bestScore {
			best = c
			bestScore = score
			found = true
		}
	}

	return best, found
}
