//go:build rp2040

package main

import (
	"machine"

	"rollingbase/core"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type. It has
// the method set of tinygo.org/x/drivers/servo.PWM, so slices can be
// handed to the servo driver as well.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// RP2040PWMDriver implements core.PWMDriver on the 8 hardware PWM slices
// (2 channels each). GPIO N belongs to slice (N>>1)&7, channel N&1.
type RP2040PWMDriver struct {
	// slice number -> configured period in ns
	slices map[uint8]uint64

	// pin -> channel within its slice
	channels map[core.PWMPin]uint8
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		slices:   make(map[uint8]uint64),
		channels: make(map[core.PWMPin]uint8),
	}
}

// ConfigureHardwarePWM sets up pin's slice at frequency Hz. Both channels of
// a slice share the period; the last configuration wins.
func (d *RP2040PWMDriver) ConfigureHardwarePWM(pin core.PWMPin, frequency uint32) error {
	if frequency == 0 {
		frequency = 1000
	}
	sliceNum := pwmSlice(uint32(pin))
	pwm := getPWMPeripheral(sliceNum)

	period := uint64(1e9) / uint64(frequency)
	if existing, ok := d.slices[sliceNum]; !ok || existing != period {
		if err := pwm.Configure(machine.PWMConfig{Period: period}); err != nil {
			return err
		}
		d.slices[sliceNum] = period
	}

	channel, err := pwm.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}
	d.channels[pin] = channel
	return nil
}

// SetDutyCycle sets the duty from 0 (off) to core.PWMMax (fully on)
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	channel, exists := d.channels[pin]
	if !exists {
		return nil
	}
	if value > core.PWMMax {
		value = core.PWMMax
	}

	pwm := getPWMPeripheral(pwmSlice(uint32(pin)))
	pwm.Set(channel, uint32(value)*pwm.Top()/core.PWMMax)
	return nil
}

func pwmSlice(pin uint32) uint8 {
	return uint8((pin >> 1) & 0x7)
}

// getPWMPeripheral returns PWM0-PWM7 for a slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
