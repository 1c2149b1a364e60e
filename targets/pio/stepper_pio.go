//go:build rp2040

package pio

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Command word pushed to the state machine:
//
//	Bits 0-15:  pulse count minus one
//	Bits 16-23: delay loops between pulses
//	Bit 24:     direction (0=forward, 1=reverse)
//
// The program pulls a word, latches the direction pin and emits the pulses.
func buildStepperProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1
		// step_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

// Jump targets above are absolute, so the program lives at offset 0
const stepperPIOOrigin = 0

// programLoaded tracks which PIO blocks already hold the program
var programLoaded [2]bool

// PIOStepperBackend emits step pulses from a PIO state machine
type PIOStepperBackend struct {
	pio       *rp2pio.PIO
	sm        rp2pio.StateMachine
	pioNum    uint8
	stepPin   machine.Pin
	dirPin    machine.Pin
	direction bool
}

// NewPIOStepperBackend binds state machine smNum of PIO block pioNum
func NewPIOStepperBackend(pioNum, smNum uint8) *PIOStepperBackend {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &PIOStepperBackend{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
	}
}

// Init loads the program (once per block) and starts the state machine
func (b *PIOStepperBackend) Init(stepPin, dirPin uint8) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)

	b.sm.TryClaim()

	program := buildStepperProgram()
	if !programLoaded[b.pioNum] {
		if _, err := b.pio.AddProgram(program, stepperPIOOrigin); err != nil {
			return err
		}
		programLoaded[b.pioNum] = true
	}
	offset := uint8(stepperPIOOrigin)

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)
	cfg.SetOutPins(b.dirPin, 1)
	// Shift right, explicit PULL, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	// Pin directions must be set after Init
	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, false)
	b.sm.SetPinsConsecutive(b.dirPin, 1, false)

	b.sm.SetEnabled(true)
	return nil
}

// Step queues a single pulse in the current direction
func (b *PIOStepperBackend) Step() {
	b.queue(0, 1)
}

func (b *PIOStepperBackend) queue(countMinusOne uint16, delay uint8) {
	cmd := uint32(countMinusOne) | uint32(delay)<<16
	if b.direction {
		cmd |= 1 << 24
	}
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(cmd)
}

// SetDirection latches the direction for the following pulses
func (b *PIOStepperBackend) SetDirection(dir bool) {
	b.direction = dir
}

// Stop drops queued pulses and restarts the state machine
func (b *PIOStepperBackend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

// GetName returns the backend name
func (b *PIOStepperBackend) GetName() string {
	return "PIO"
}
