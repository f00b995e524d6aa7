package combat

import "time"

// deferredTask is a scheduled sub-attack (e.g. one round of a burst),
// keyed by target ID so a target swap or death cancels only the relevant
// in-flight shots.
type deferredTask struct {
	runAt    time.Time
	targetID uint32
	fn       func(now time.Time)
}

// taskQueue holds pending deferred tasks. Run by the scheduler each tick;
// cancellation is cooperative and keyed by identity, never a blind clear
// unless the whole combat session disengages.
type taskQueue struct {
	tasks []deferredTask
}

// Schedule appends a task to run at or after runAt.
func (q *taskQueue) Schedule(runAt time.Time, targetID uint32, fn func(now time.Time)) {
	q.tasks = append(q.tasks, deferredTask{runAt: runAt, targetID: targetID, fn: fn})
}

// CancelTarget drops every pending task aimed at the given target.
func (q *taskQueue) CancelTarget(targetID uint32) {
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.targetID != targetID {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
}

// CancelAll drops every pending task. Only used on full combat disengage.
func (q *taskQueue) CancelAll() {
	q.tasks = nil
}

// RunDue executes and removes every task whose time has come. Tasks
// scheduled by a running task are picked up on the next pass.
func (q *taskQueue) RunDue(now time.Time) {
	due := make([]deferredTask, 0, len(q.tasks))
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if !now.Before(t.runAt) {
			due = append(due, t)
		} else {
			kept = append(kept, t)
		}
	}
	q.tasks = kept
	for _, t := range due {
		t.fn(now)
	}
}

// Pending returns the number of queued tasks.
func (q *taskQueue) Pending() int {
	return len(q.tasks)
}

// PendingFor returns the number of queued tasks aimed at the target.
func (q *taskQueue) PendingFor(targetID uint32) int {
	n := 0
	for _, t := range q.tasks {
		if t.targetID == targetID {
			n++
		}
	}
	return n
}
