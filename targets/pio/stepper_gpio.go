//go:build rp2040

package pio

import (
	"device/arm"
	"device/rp"
	"machine"
)

// GPIOStepperBackend toggles step/dir pins through the SIO block
type GPIOStepperBackend struct {
	stepMask uint32
	dirMask  uint32
}

// NewGPIOStepperBackend creates an unconfigured GPIO backend
func NewGPIOStepperBackend() *GPIOStepperBackend {
	return &GPIOStepperBackend{}
}

// Init configures both pins as low outputs
func (b *GPIOStepperBackend) Init(stepPin, dirPin uint8) error {
	for _, p := range []machine.Pin{machine.Pin(stepPin), machine.Pin(dirPin)} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	b.stepMask = 1 << stepPin
	b.dirMask = 1 << dirPin
	return nil
}

// Step emits one pulse of roughly 100ns
func (b *GPIOStepperBackend) Step() {
	rp.SIO.GPIO_OUT_SET.Set(b.stepMask)
	arm.Asm("nop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop")
	rp.SIO.GPIO_OUT_CLR.Set(b.stepMask)
}

// SetDirection drives the direction pin (high = reverse) and waits out the
// dir-to-step setup time
func (b *GPIOStepperBackend) SetDirection(dir bool) {
	if dir {
		rp.SIO.GPIO_OUT_SET.Set(b.dirMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(b.dirMask)
	}
	arm.Asm("nop\nnop\nnop")
}

// Stop leaves the step pin low
func (b *GPIOStepperBackend) Stop() {
	rp.SIO.GPIO_OUT_CLR.Set(b.stepMask)
}

// GetName returns the backend name
func (b *GPIOStepperBackend) GetName() string {
	return "GPIO"
}
