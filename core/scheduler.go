package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer

	queued bool
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

var timerList *Timer

// ScheduleTimer adds a timer to the schedule.
// Scheduling a timer that is already queued is a no-op.
func ScheduleTimer(t *Timer) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	if t.queued {
		return
	}
	insertTimer(t)
}

// CancelTimer removes a timer from the schedule if it is queued
func CancelTimer(t *Timer) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	if !t.queued {
		return
	}
	if timerList == t {
		timerList = t.Next
	} else {
		for cur := timerList; cur != nil; cur = cur.Next {
			if cur.Next == t {
				cur.Next = t.Next
				break
			}
		}
	}
	t.Next = nil
	t.queued = false
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Comparisons use the signed difference so the list survives clock wrap.
func insertTimer(t *Timer) {
	t.queued = true
	if timerList == nil || before(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// popDue detaches the first timer due at now, or returns nil
func popDue(now uint32) *Timer {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	if timerList == nil || before(now, timerList.WakeTime) {
		return nil
	}
	t := timerList
	timerList = t.Next
	t.Next = nil
	t.queued = false
	return t
}

// TimerDispatch processes due timers.
// Handlers run with interrupts enabled; only list manipulation is masked.
func TimerDispatch(now uint32) {
	for {
		timer := popDue(now)
		if timer == nil {
			return
		}

		if timer.Handler(timer) == SF_RESCHEDULE {
			ScheduleTimer(timer)
		}
	}
}

// ResetTimers drops every queued timer (used on stop and in tests)
func ResetTimers() {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	for t := timerList; t != nil; {
		next := t.Next
		t.Next = nil
		t.queued = false
		t = next
	}
	timerList = nil
}
