package domain

// transitionTable defines which statuses are reachable from each status
// via an explicit caller update. Completed and cancelled are terminal:
// a completed task must never be cancelled (implicitly or explicitly),
// and a cancelled task cannot be resurrected.
var transitionTable = map[TaskStatus][]TaskStatus{
	TaskStatusAssigned:  {TaskStatusStarted, TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusStarted:   {TaskStatusCompleted, TaskStatusCancelled},
	TaskStatusCompleted: {},
	TaskStatusCancelled: {},
}

// AllowedNextStates returns the set of statuses reachable from the given
// status. The returned slice is a copy and safe to mutate.
func AllowedNextStates(current TaskStatus) []TaskStatus {
	next, ok := transitionTable[current]
	if !ok {
		return nil
	}

	out := make([]TaskStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether an explicit update may move a task from
// one status to another.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}
