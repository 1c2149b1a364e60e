//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt mask returned by DisableInterrupts
type State = interrupt.State

// DisableInterrupts masks interrupts and returns the previous state.
// Keep the critical section short: encoder edges are lost while masked.
func DisableInterrupts() State {
	return interrupt.Disable()
}

// RestoreInterrupts restores the interrupt state
func RestoreInterrupts(state State) {
	interrupt.Restore(state)
}
