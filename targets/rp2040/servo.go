//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/servo"

	"rollingbase/core"
)

// Pulse range matching common hobby servos, in µs
const (
	servoMinPulse = 544
	servoMaxPulse = 2400
)

// RPServoDriver implements core.ServoDriver with the tinygo servo driver.
// A servo reconfigures its PWM slice to 50 Hz, so servos must not share a
// slice with a wheel's power pin.
type RPServoDriver struct {
	servos map[core.GPIOPin]servo.Servo
}

// NewRPServoDriver creates a servo driver with no attached servos
func NewRPServoDriver() *RPServoDriver {
	return &RPServoDriver{servos: make(map[core.GPIOPin]servo.Servo)}
}

// Attach starts servo pulses on pin
func (d *RPServoDriver) Attach(pin core.GPIOPin) error {
	if _, ok := d.servos[pin]; ok {
		return nil
	}
	if pin >= numPins {
		return ErrInvalidPin
	}
	s, err := servo.New(getPWMPeripheral(pwmSlice(uint32(pin))), machine.Pin(pin))
	if err != nil {
		return err
	}
	d.servos[pin] = s
	return nil
}

// SetAngle moves the servo on pin to angle degrees
func (d *RPServoDriver) SetAngle(pin core.GPIOPin, angle uint8) error {
	s, ok := d.servos[pin]
	if !ok {
		return ErrPinNotConfigured
	}
	if angle > 180 {
		angle = 180
	}
	pulse := servoMinPulse + int32(angle)*(servoMaxPulse-servoMinPulse)/180
	s.SetMicroseconds(int16(pulse))
	return nil
}
