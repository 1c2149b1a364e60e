package motion

import "sync/atomic"

type slotEntry struct {
	action Action
}

// Slot holds the single active action. Install is called from the main loop
// while the controller reads the slot from the control tick; each side sees
// either the old or the new action, never a mix.
type Slot struct {
	cur atomic.Pointer[slotEntry]
}

// Install makes a the active action and returns the one it replaced.
// Installing the action that is already active changes nothing and reports
// installed=false. Installing nil clears the slot.
func (s *Slot) Install(a Action) (prev Action, installed bool) {
	var next *slotEntry
	if a != nil {
		next = &slotEntry{action: a}
	}
	for {
		old := s.cur.Load()
		if old != nil && a != nil && old.action == a {
			return a, false
		}
		if old == nil && a == nil {
			return nil, false
		}
		if s.cur.CompareAndSwap(old, next) {
			if old == nil {
				return nil, true
			}
			return old.action, true
		}
	}
}

// Active returns the active action or nil
func (s *Slot) Active() Action {
	if e := s.cur.Load(); e != nil {
		return e.action
	}
	return nil
}

// clearIf empties the slot only if a is still the active action
func (s *Slot) clearIf(a Action) bool {
	e := s.cur.Load()
	if e == nil || e.action != a {
		return false
	}
	return s.cur.CompareAndSwap(e, nil)
}
