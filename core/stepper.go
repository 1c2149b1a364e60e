package core

// Auxiliary steppers: one-shot relative moves outside the closed loop.
// Steppers are looked up by the first pin they were configured with.

import (
	"errors"
)

const (
	// MaxSteppers bounds the auxiliary stepper registry
	MaxSteppers = 8

	// DefaultStepInterval is used when a stepper is created with interval 0 (µs)
	DefaultStepInterval = 2000
)

var (
	ErrNoStepperBackend = errors.New("no stepper backend available")
	ErrTooManySteppers  = errors.New("stepper registry full")
	ErrStepperBusy      = errors.New("stepper move in progress")
)

// AuxStepper moves an auxiliary stepper by a relative step count without
// blocking the caller.
type AuxStepper interface {
	Move(steps int32) error
	Stop()
}

type stepperEntry struct {
	pin uint8
	s   AuxStepper
}

var (
	steppers     [MaxSteppers]stepperEntry
	stepperCount uint8

	// Backend factory function (set by platform-specific code)
	stepperBackendFactory func() StepperBackend
)

// SetStepperBackendFactory sets the factory function for creating stepper backends
// This should be called by platform-specific initialization code
func SetStepperBackendFactory(factory func() StepperBackend) {
	stepperBackendFactory = factory
}

// RegisterAuxStepper makes s reachable under pin. Registering a pin again
// replaces the previous stepper.
func RegisterAuxStepper(pin uint8, s AuxStepper) error {
	for i := uint8(0); i < stepperCount; i++ {
		if steppers[i].pin == pin {
			steppers[i].s = s
			return nil
		}
	}
	if stepperCount >= MaxSteppers {
		return ErrTooManySteppers
	}
	steppers[stepperCount] = stepperEntry{pin: pin, s: s}
	stepperCount++
	return nil
}

// GetAuxStepper returns the stepper registered under pin, or nil
func GetAuxStepper(pin uint8) AuxStepper {
	for i := uint8(0); i < stepperCount; i++ {
		if steppers[i].pin == pin {
			return steppers[i].s
		}
	}
	return nil
}

// StopAllSteppers halts every registered auxiliary stepper
func StopAllSteppers() {
	for i := uint8(0); i < stepperCount; i++ {
		steppers[i].s.Stop()
	}
}

// ResetSteppers clears the registry (for testing)
func ResetSteppers() {
	for i := range steppers {
		steppers[i] = stepperEntry{}
	}
	stepperCount = 0
}

// Stepper is a step/dir stepper whose pulses are timed by the timer list
// and produced by a StepperBackend.
type Stepper struct {
	StepPin uint8
	DirPin  uint8

	// Position in steps since boot (signed)
	Position int64

	// Interval between steps in µs
	Interval uint32

	remaining uint32
	reverse   bool

	// Timer for next step event
	StepTimer Timer

	// Hardware backend
	Backend StepperBackend
}

// NewStepper creates a step/dir stepper on the registered backend and
// registers it under stepPin.
func NewStepper(stepPin, dirPin uint8, interval uint32) (*Stepper, error) {
	if stepperBackendFactory == nil {
		return nil, ErrNoStepperBackend
	}
	backend := stepperBackendFactory()
	if backend == nil {
		return nil, ErrNoStepperBackend
	}
	if err := backend.Init(stepPin, dirPin); err != nil {
		return nil, err
	}

	if interval == 0 {
		interval = DefaultStepInterval
	}
	s := &Stepper{
		StepPin:  stepPin,
		DirPin:   dirPin,
		Interval: interval,
		Backend:  backend,
	}
	s.StepTimer.Handler = s.stepperEventHandler

	if err := RegisterAuxStepper(stepPin, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Move starts a relative move of steps (sign selects direction).
// It returns ErrStepperBusy while a previous move is running.
func (s *Stepper) Move(steps int32) error {
	if s.remaining > 0 {
		return ErrStepperBusy
	}

	s.reverse = steps < 0
	if steps < 0 {
		steps = -steps
	}
	s.remaining = uint32(steps)
	if s.remaining == 0 {
		return nil
	}

	s.Backend.SetDirection(s.reverse)
	s.StepTimer.WakeTime = GetTime() + s.Interval
	ScheduleTimer(&s.StepTimer)
	return nil
}

// stepperEventHandler emits one step and reschedules until the move is done
func (s *Stepper) stepperEventHandler(t *Timer) uint8 {
	if s.remaining == 0 {
		return SF_DONE
	}

	s.Backend.Step()
	if s.reverse {
		s.Position--
	} else {
		s.Position++
	}
	s.remaining--

	if s.remaining == 0 {
		return SF_DONE
	}

	t.WakeTime += s.Interval
	return SF_RESCHEDULE
}

// Stop immediately stops the stepper
func (s *Stepper) Stop() {
	CancelTimer(&s.StepTimer)
	s.remaining = 0
	s.Backend.Stop()
}

// IsActive returns true while a move is in progress
func (s *Stepper) IsActive() bool {
	return s.remaining > 0
}
