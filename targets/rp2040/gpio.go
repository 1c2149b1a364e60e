//go:build rp2040

package main

import (
	"errors"
	"machine"

	"rollingbase/core"
)

// numPins is the RP2040's GPIO count (GPIO0-GPIO29)
const numPins = 30

var (
	ErrInvalidPin       = errors.New("invalid GPIO pin")
	ErrPinNotConfigured = errors.New("GPIO pin not configured")
)

// RPGPIODriver implements core.GPIODriver over machine.Pin
type RPGPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

// ConfigureInputPullUp configures a pin as an input with pull-up
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= numPins {
		return ErrInvalidPin
	}
	// Reconfiguring is fine; encoder and wheel pins are set up once
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: mode})
	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		machinePin = d.configuredPins[pin]
	}
	machinePin.Set(value)
	return nil
}

// ReadPin reads the pin level. It skips the map so it stays safe in
// interrupt context.
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// SetRisingInterrupt binds handler to rising edges of pin
func (d *RPGPIODriver) SetRisingInterrupt(pin core.GPIOPin, handler func()) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return ErrPinNotConfigured
	}
	return machinePin.SetInterrupt(machine.PinRising, func(machine.Pin) {
		handler()
	})
}
