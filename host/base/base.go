// Package base is the companion-computer client for the rolling base. It
// keeps a queue of actions, sending the next one when the controller
// reports the previous one finished, and tracks the reported odometry.
package base

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"rollingbase/config"
	"rollingbase/host/serial"
	"rollingbase/protocol"
)

// ErrTimeout is returned by WaitIdle when the queue does not drain in time
var ErrTimeout = errors.New("timed out waiting for actions to finish")

// Pose is a position in the controller's distance unit with theta in radians
type Pose struct {
	X     float32 `yaml:"x"`
	Y     float32 `yaml:"y"`
	Theta float32 `yaml:"theta"`
}

// Add returns the component-wise sum
func (p Pose) Add(o Pose) Pose {
	return Pose{X: p.X + o.X, Y: p.Y + o.Y, Theta: p.Theta + o.Theta}
}

// queued is one pending message. Messages that report completion hold the
// queue until the controller's action-finished arrives.
type queued struct {
	code    uint8
	payload []byte
	awaits  bool
	sent    bool
}

// Base is a connection to the rolling base controller
type Base struct {
	transport *protocol.HostTransport
	defaults  config.GoToDefaults
	out       io.Writer

	mu       sync.Mutex
	queue    []*queued
	idle     chan struct{} // closed while the queue is empty
	odometry Pose
	offset   Pose
	unknown  []uint8
}

// New starts a client over an open port
func New(port io.ReadWriteCloser, defaults config.GoToDefaults) *Base {
	b := &Base{
		defaults: defaults,
		out:      os.Stdout,
		idle:     make(chan struct{}),
	}
	close(b.idle)

	b.transport = protocol.NewHostTransport(port)
	b.transport.SetHandler(b.handleFrame)
	return b
}

// Connect opens the serial device and starts a client on it
func Connect(cfg *serial.Config, defaults config.GoToDefaults) (*Base, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to base")
	}
	return New(port, defaults), nil
}

// SetOutput redirects the client's log lines
func (b *Base) SetOutput(w io.Writer) {
	b.mu.Lock()
	b.out = w
	b.mu.Unlock()
}

// Close stops the client and closes the port
func (b *Base) Close() error {
	return b.transport.Close()
}

// Odometry returns the last pose reported by the controller
func (b *Base) Odometry() Pose {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.odometry
}

// SetPositionOffset sets the offset added to every outgoing target
func (b *Base) SetPositionOffset(p Pose) {
	b.mu.Lock()
	b.offset = p
	b.mu.Unlock()
}

// Pending returns the number of queued messages, including the one in
// progress
func (b *Base) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Unknown returns the message codes the controller reported as unknown
func (b *Base) Unknown() []uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint8(nil), b.unknown...)
}

// WaitIdle blocks until the queue is empty
func (b *Base) WaitIdle(timeout time.Duration) error {
	b.mu.Lock()
	idle := b.idle
	b.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// enqueue adds a message. With skipQueue it goes to the head and is sent at
// once, superseding an action already in progress.
func (b *Base) enqueue(code uint8, payload []byte, awaits, skipQueue bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := &queued{code: code, payload: payload, awaits: awaits}
	if skipQueue {
		if len(b.queue) > 0 && b.queue[0].sent {
			b.logf("Action %s superseded", protocol.MessageName(b.queue[0].code))
			b.queue = b.queue[1:]
		}
		b.queue = append([]*queued{q}, b.queue...)
	} else {
		b.queue = append(b.queue, q)
	}
	return b.pump()
}

// sendNow bypasses and clears the queue
func (b *Base) sendNow(code uint8, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.queue); n > 0 {
		b.logf("Dropping %d queued action(s)", n)
	}
	b.queue = nil
	b.markIdle()
	return b.send(code, payload)
}

// pump sends queued messages until one must wait for completion.
// Must be called with mu held.
func (b *Base) pump() error {
	for len(b.queue) > 0 {
		head := b.queue[0]
		if head.sent {
			return nil
		}
		b.markBusy()
		if err := b.send(head.code, head.payload); err != nil {
			b.queue = b.queue[1:]
			b.markIdleIfEmpty()
			return err
		}
		if head.awaits {
			head.sent = true
			return nil
		}
		b.queue = b.queue[1:]
	}
	b.markIdle()
	return nil
}

func (b *Base) send(code uint8, payload []byte) error {
	if err := b.transport.Send(code, payload); err != nil {
		return errors.Wrapf(err, "failed to send %s", protocol.MessageName(code))
	}
	return nil
}

func (b *Base) markBusy() {
	select {
	case <-b.idle:
		b.idle = make(chan struct{})
	default:
	}
}

func (b *Base) markIdle() {
	select {
	case <-b.idle:
	default:
		close(b.idle)
	}
}

func (b *Base) markIdleIfEmpty() {
	if len(b.queue) == 0 {
		b.markIdle()
	}
}

// handleFrame runs on the transport's reader goroutine
func (b *Base) handleFrame(f protocol.Frame) {
	switch f.Type {
	case protocol.MsgOdometry:
		var p protocol.Position
		if err := p.UnmarshalBinary(f.Payload); err != nil {
			b.logLocked("Bad odometry frame: %v", err)
			return
		}
		b.mu.Lock()
		b.odometry = Pose{X: p.X, Y: p.Y, Theta: p.Theta}
		b.mu.Unlock()

	case protocol.MsgActionFinished:
		if len(f.Payload) < protocol.ActionFinishedSize {
			b.logLocked("Bad action finished frame")
			return
		}
		b.actionFinished(f.Payload[0])

	case protocol.MsgText:
		b.logLocked("Controller says: %s", string(f.Payload))

	case protocol.MsgUnknownType:
		if len(f.Payload) < protocol.UnknownTypeSize {
			return
		}
		code := f.Payload[0]
		b.mu.Lock()
		b.unknown = append(b.unknown, code)
		b.dropUnknownHead(code)
		b.mu.Unlock()
		b.logLocked("Controller does not know message %d (%s)", code, protocol.MessageName(code))

	default:
		b.logLocked("Unexpected message %d", f.Type)
	}
}

// dropUnknownHead stops waiting for an action the controller refused.
// Must be called with mu held.
func (b *Base) dropUnknownHead(code uint8) {
	if len(b.queue) > 0 && b.queue[0].sent && b.queue[0].code == code {
		b.queue = b.queue[1:]
		if err := b.pump(); err != nil {
			b.logf("%v", err)
		}
	}
}

func (b *Base) actionFinished(code uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logf("Action finished: %s", protocol.MessageName(code))
	if len(b.queue) == 0 || !b.queue[0].sent || b.queue[0].code != code {
		b.logf("Received action finished but no matching action in progress")
		return
	}
	b.queue = b.queue[1:]
	if err := b.pump(); err != nil {
		b.logf("%v", err)
	}
}

// logf must be called with mu held
func (b *Base) logf(format string, args ...interface{}) {
	fmt.Fprintf(b.out, format+"\n", args...)
}

func (b *Base) logLocked(format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logf(format, args...)
}
