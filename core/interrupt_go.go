//go:build !tinygo

package core

// State is a placeholder for interrupt state on regular Go
type State uintptr

// DisableInterrupts is a no-op on regular Go (for testing).
// Host builds drive every context from a single goroutine.
func DisableInterrupts() State {
	return 0
}

// RestoreInterrupts is a no-op on regular Go (for testing)
func RestoreInterrupts(state State) {
	// No-op
}
