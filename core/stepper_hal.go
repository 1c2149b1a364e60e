package core

// StepperBackend defines the hardware abstraction for stepper control
// Implementations can use GPIO, PIO, or other methods
type StepperBackend interface {
	// Init initializes the stepper hardware
	// stepPin: GPIO pin for step pulses
	// dirPin: GPIO pin for direction signal
	Init(stepPin, dirPin uint8) error

	// Step generates a single step pulse
	// Must handle pulse width timing internally
	// Should be fast (called from timer dispatch)
	Step()

	// SetDirection sets the direction output
	// dir: true = reverse, false = forward
	SetDirection(dir bool)

	// Stop immediately halts stepping
	Stop()

	// GetName returns backend implementation name
	GetName() string
}
