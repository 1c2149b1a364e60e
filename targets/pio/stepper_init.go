//go:build rp2040

// Package pio provides step/dir stepper backends for the auxiliary
// stepper-step command: PIO state machines first, SIO-driven GPIO once
// all eight are taken.
package pio

import (
	"rollingbase/core"
)

var (
	// RP2040 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	pioAllocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)
)

// InitSteppers installs the backend factory used by core.NewStepper
func InitSteppers() {
	core.SetStepperBackendFactory(createBackend)
}

// createBackend hands out a PIO state machine, or a GPIO backend once they
// are exhausted
func createBackend() core.StepperBackend {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		core.DebugPrintln("[STEPPER] PIO exhausted, using GPIO backend")
		return NewGPIOStepperBackend()
	}
	return NewPIOStepperBackend(pioNum, smNum)
}

// allocatePIO allocates a PIO state machine round-robin across both blocks
func allocatePIO() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ {
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}
