package motion

import (
	"math"

	"rollingbase/core"
)

// Direction selects which H-bridge input is driven
type Direction uint8

const (
	Neutral Direction = iota
	Forward
	Backward
)

// MaxPower is the full-scale wheel power
const MaxPower = core.PWMMax

// WheelConfig describes one motor's wiring and trim
type WheelConfig struct {
	ForwardPin  core.GPIOPin
	BackwardPin core.GPIOPin
	PowerPin    core.PWMPin
	EncoderA    core.GPIOPin
	EncoderB    core.GPIOPin

	// PWMFrequency is the power output carrier in Hz
	PWMFrequency uint32

	// Correction scales commanded speed to match the other wheel
	Correction float64

	// Threshold is added to any nonzero power to overcome static friction
	Threshold uint8

	// EncoderReversed flips the tick direction for a mirrored motor
	EncoderReversed bool
}

// Wheel drives one motor and owns its tick counter
type Wheel struct {
	cfg  WheelConfig
	gpio core.GPIODriver
	pwm  core.PWMDriver

	Ticks TickCounter

	dir   Direction
	power uint8
}

// NewWheel creates a wheel on the given drivers. Call Init before use.
func NewWheel(cfg WheelConfig, gpio core.GPIODriver, pwm core.PWMDriver) *Wheel {
	if cfg.Correction == 0 {
		cfg.Correction = 1
	}
	w := &Wheel{
		cfg:  cfg,
		gpio: gpio,
		pwm:  pwm,
	}
	w.Ticks.reversed = cfg.EncoderReversed
	return w
}

// Init configures the direction and power outputs and leaves the wheel stopped
func (w *Wheel) Init() error {
	if err := w.gpio.ConfigureOutput(w.cfg.ForwardPin); err != nil {
		return err
	}
	if err := w.gpio.ConfigureOutput(w.cfg.BackwardPin); err != nil {
		return err
	}
	if err := w.pwm.ConfigureHardwarePWM(w.cfg.PowerPin, w.cfg.PWMFrequency); err != nil {
		return err
	}
	w.Stop()
	return nil
}

// Set drives the direction pins and power output
func (w *Wheel) Set(dir Direction, power uint8) {
	_ = w.pwm.SetDutyCycle(w.cfg.PowerPin, core.PWMValue(power))
	switch dir {
	case Forward:
		_ = w.gpio.SetPin(w.cfg.ForwardPin, true)
		_ = w.gpio.SetPin(w.cfg.BackwardPin, false)
	case Backward:
		_ = w.gpio.SetPin(w.cfg.ForwardPin, false)
		_ = w.gpio.SetPin(w.cfg.BackwardPin, true)
	default:
		dir = Neutral
		_ = w.gpio.SetPin(w.cfg.ForwardPin, false)
		_ = w.gpio.SetPin(w.cfg.BackwardPin, false)
	}
	w.dir = dir
	w.power = power
}

// Stop sets neutral at zero power
func (w *Wheel) Stop() {
	w.Set(Neutral, 0)
}

// Drive maps a signed speed to direction and power. The magnitude is scaled
// by the correction factor, raised by the threshold and clamped to MaxPower.
func (w *Wheel) Drive(speed float64) {
	if speed == 0 || math.IsNaN(speed) {
		w.Stop()
		return
	}

	dir := Forward
	if speed < 0 {
		dir = Backward
		speed = -speed
	}

	power := speed*w.cfg.Correction + float64(w.cfg.Threshold)
	if power > MaxPower {
		power = MaxPower
	}
	w.Set(dir, uint8(power))
}

// Direction returns the last applied direction
func (w *Wheel) Direction() Direction {
	return w.dir
}

// Power returns the last applied power
func (w *Wheel) Power() uint8 {
	return w.power
}
