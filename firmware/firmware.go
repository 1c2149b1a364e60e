// Package firmware connects the serial protocol to the motion controller:
// inbound frames are decoded into actions or direct operations, and
// controller notifications are framed back to the companion computer.
package firmware

import (
	"errors"
	"sync/atomic"

	"rollingbase/core"
	"rollingbase/motion"
	"rollingbase/protocol"
)

var (
	// ErrOutOfRange is returned for payload fields that cannot be acted on
	ErrOutOfRange = errors.New("payload value out of range")

	// ErrNoServo is returned when no servo driver is registered
	ErrNoServo = errors.New("no servo driver")

	// ErrNoStepper is returned when no stepper is registered on a pin
	ErrNoStepper = errors.New("no stepper on pin")
)

// Options configures a Firmware
type Options struct {
	// Registry receives the command table; nil uses the global registry
	Registry *core.CommandRegistry

	// Precision supplies the error and trajectory tolerances for a go-to
	// that leaves them at zero
	Precision motion.Precision
}

// Firmware is the command side of the controller
type Firmware struct {
	ctrl      *motion.Controller
	outbox    *Outbox
	sender    Sender
	registry  *core.CommandRegistry
	precision motion.Precision

	servos uint64 // bitmask of attached servo pins

	unknown  atomic.Uint32
	rejected atomic.Uint32
}

// New builds the firmware and registers its command table
func New(ctrl *motion.Controller, outbox *Outbox, sender Sender, opts Options) *Firmware {
	f := &Firmware{
		ctrl:      ctrl,
		outbox:    outbox,
		sender:    sender,
		registry:  opts.Registry,
		precision: opts.Precision,
	}
	if f.registry == nil {
		f.registry = core.GetGlobalRegistry()
	}
	f.registerCommands()
	return f
}

// HandleFrame dispatches one inbound frame. Unknown and unsupported codes
// are answered with an unknown-type message echoing the code; malformed
// payloads are reported as text and change nothing.
func (f *Firmware) HandleFrame(msgType uint8, payload []byte) {
	err := f.registry.Dispatch(msgType, payload)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrUnknownCommand), errors.Is(err, core.ErrUnsupportedCommand):
		f.unknown.Add(1)
		_ = f.sender.Send(protocol.MsgUnknownType, []byte{msgType})
	default:
		f.rejected.Add(1)
		msg := f.registry.Name(msgType) + ": " + err.Error()
		core.DebugAsync("[FW] " + msg)
		_ = f.sender.Send(protocol.MsgText, []byte(msg))
	}
}

// Flush sends pending controller notifications. Call from the main loop.
func (f *Firmware) Flush() int {
	return f.outbox.Drain(f.sender)
}

// FrameRejected records an inbound frame that failed its checks
func (f *Firmware) FrameRejected(err error) {
	var kind uint32
	if errors.Is(err, protocol.ErrFrameCRC) {
		kind = 1
	}
	core.RecordEvent(core.EvtFrameRejected, 0, kind, 0)
}

// Unknown returns the number of frames answered with unknown-type
func (f *Firmware) Unknown() uint32 {
	return f.unknown.Load()
}

// Rejected returns the number of commands refused for a malformed payload
func (f *Firmware) Rejected() uint32 {
	return f.rejected.Load()
}
