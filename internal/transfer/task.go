package transfer

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"retroref/internal/fileutil"
	"retroref/internal/sources"
)

// State tracks a task through its lifecycle. Transitions are linear:
// Pending → InFlight → Verifying → Committed, with Failed reachable from
// Pending and InFlight after the retry budget is spent.
type State string

const (
	StatePending   State = "pending"
	StateInFlight  State = "inflight"
	StateVerifying State = "verifying"
	StateCommitted State = "committed"
	StateFailed    State = "failed"
)

// Task is one scheduled materialization of a selected candidate. A task is
// owned by exactly one worker while executing; the orchestrator only touches
// it again after the worker returns.
type Task struct {
	ID          string
	System      string
	Ref         sources.CandidateRef
	Destination string
	Staging     string
	State       State
	Attempts    int
	CacheHit    bool
	Digest      fileutil.Digest
	Err         error
}

// NewTask builds a Pending task. The staging name carries the task ID so
// concurrent tasks for identically named files never collide.
func NewTask(system string, ref sources.CandidateRef, destDir, stagingDir string) *Task {
	id := uuid.NewString()
	return &Task{
		ID:          id,
		System:      system,
		Ref:         ref,
		Destination: filepath.Join(destDir, ref.Name),
		Staging:     filepath.Join(stagingDir, fmt.Sprintf("%s-%s", id[:8], ref.Name)),
		State:       StatePending,
	}
}
