//go:build rp2040

package main

import (
	"machine"
	"sync/atomic"

	"tinygo.org/x/drivers/easystepper"

	"rollingbase/config"
	"rollingbase/core"
	"rollingbase/targets/pio"
)

// coilStepper drives a four-wire unipolar stepper through easystepper.
// easystepper.Move blocks, so moves run on their own goroutine one step at a
// time, checking for Stop between steps.
type coilStepper struct {
	dev  *easystepper.Device
	busy uint32
	stop uint32
}

func newCoilStepper(pins [4]machine.Pin, stepsPerRev, rpm int32) (*coilStepper, error) {
	dev, err := easystepper.New(easystepper.DeviceConfig{
		Pin1:      pins[0],
		Pin2:      pins[1],
		Pin3:      pins[2],
		Pin4:      pins[3],
		StepCount: uint(stepsPerRev),
		RPM:       uint(rpm),
		Mode:      easystepper.ModeFour,
	})
	if err != nil {
		return nil, err
	}
	dev.Configure()
	return &coilStepper{dev: dev}, nil
}

// Move starts a relative move; a move already running makes it fail
func (c *coilStepper) Move(steps int32) error {
	if !atomic.CompareAndSwapUint32(&c.busy, 0, 1) {
		return core.ErrStepperBusy
	}
	atomic.StoreUint32(&c.stop, 0)
	go c.run(steps)
	return nil
}

func (c *coilStepper) run(steps int32) {
	step := int32(1)
	if steps < 0 {
		step, steps = -1, -steps
	}
	for i := int32(0); i < steps; i++ {
		if atomic.LoadUint32(&c.stop) != 0 {
			break
		}
		c.dev.Move(step)
	}
	c.dev.Off()
	atomic.StoreUint32(&c.busy, 0)
}

// Stop ends the current move after the step in progress
func (c *coilStepper) Stop() {
	atomic.StoreUint32(&c.stop, 1)
}

// initSteppers creates the configured auxiliary steppers. A stepper that
// fails to start is reported and skipped.
func initSteppers(cfg *config.Config) {
	pio.InitSteppers()

	for _, sc := range cfg.Steppers {
		var err error
		switch sc.Kind {
		case config.StepperPIO:
			err = initPIOStepper(sc)
		case config.StepperFourWire:
			err = initCoilStepper(sc)
		}
		if err != nil {
			core.DebugPrintln("[STEPPER] " + sc.Kind + ": " + err.Error())
		}
	}
}

func initPIOStepper(sc config.StepperConfig) error {
	step, err := config.ParsePin(sc.StepPin)
	if err != nil {
		return err
	}
	dir, err := config.ParsePin(sc.DirPin)
	if err != nil {
		return err
	}
	_, err = core.NewStepper(uint8(step), uint8(dir), sc.IntervalUS)
	return err
}

func initCoilStepper(sc config.StepperConfig) error {
	var pins [4]machine.Pin
	for i, name := range sc.Pins {
		p, err := config.ParsePin(name)
		if err != nil {
			return err
		}
		pins[i] = machine.Pin(p)
	}
	s, err := newCoilStepper(pins, sc.StepsPerRev, sc.RPM)
	if err != nil {
		return err
	}
	return core.RegisterAuxStepper(uint8(pins[0]), s)
}
