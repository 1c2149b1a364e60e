package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTransportClosed is returned by operations on a closed HostTransport
var ErrTransportClosed = errors.New("transport stopped")

// HostTransport handles the companion side of the serial link.
// Frames are delivered to the handler when one is set, and otherwise
// queued for ReceiveFrame.
type HostTransport struct {
	// Serial I/O
	port io.ReadWriteCloser

	// Buffers
	inputBuffer *RxRing

	// Channel for received frames when no handler is set
	frameChan chan Frame

	handler func(Frame)

	// last is the most recent frame written, kept for a single resend on NACK
	last []byte

	writeMutex   sync.Mutex
	readMutex    sync.Mutex
	handlerMutex sync.RWMutex

	rejected uint32 // atomic

	// Stop channel for graceful shutdown
	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport creates a new host-side transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:        port,
		inputBuffer: NewRxRing(4 * FrameLengthMax),
		frameChan:   make(chan Frame, 32),
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// Send frames and writes one message
func (t *HostTransport) Send(msgType uint8, payload []byte) error {
	msg, err := AppendFrame(nil, msgType, payload)
	if err != nil {
		return fmt.Errorf("failed to build frame: %w", err)
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	if err := t.write(msg); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	t.last = msg
	return nil
}

// write must be called with writeMutex held
func (t *HostTransport) write(msg []byte) error {
	select {
	case <-t.stopChan:
		return ErrTransportClosed
	default:
	}

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

func (t *HostTransport) sendNack() {
	msg, _ := AppendFrame(nil, MsgNack, nil)

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()
	_ = t.write(msg)
}

// resendLast repeats the last frame once; a second NACK for the same
// frame is ignored
func (t *HostTransport) resendLast() {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	if t.last == nil {
		return
	}
	_ = t.write(t.last)
	t.last = nil
}

// ReceiveFrame waits for the next queued frame
func (t *HostTransport) ReceiveFrame(timeout time.Duration) (Frame, error) {
	select {
	case f := <-t.frameChan:
		return f, nil

	case <-time.After(timeout):
		return Frame{}, fmt.Errorf("frame timeout after %v", timeout)

	case <-t.stopChan:
		return Frame{}, ErrTransportClosed
	}
}

// SetHandler sets a callback for received frames. The callback runs on
// the reader goroutine.
func (t *HostTransport) SetHandler(handler func(Frame)) {
	t.handlerMutex.Lock()
	t.handler = handler
	t.handlerMutex.Unlock()
}

// Rejected returns the number of received frames that failed their checks
func (t *HostTransport) Rejected() uint32 {
	return atomic.LoadUint32(&t.rejected)
}

// readLoop continuously reads from the serial port and processes frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.feed(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			select {
			case <-t.stopChan:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}

// feed buffers raw bytes, splitting writes larger than the free space
func (t *HostTransport) feed(data []byte) {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	for len(data) > 0 {
		w := t.inputBuffer.Write(data)
		data = data[w:]
		t.processFrames()
		if w == 0 && len(data) > 0 {
			// Buffer full of undecodable bytes
			t.inputBuffer.Reset()
		}
	}
}

// processFrames parses and dispatches frames from the input buffer.
// Must be called with readMutex held.
func (t *HostTransport) processFrames() {
	for {
		f, ok, err := t.inputBuffer.Next()
		if !ok {
			return
		}

		if err != nil {
			atomic.AddUint32(&t.rejected, 1)
			t.sendNack()
			continue
		}

		if f.Type == MsgNack {
			t.resendLast()
			continue
		}

		payload := make([]byte, len(f.Payload))
		copy(payload, f.Payload)
		t.dispatch(Frame{Type: f.Type, Payload: payload})
	}
}

// dispatch routes a frame to the handler or the frame channel
func (t *HostTransport) dispatch(f Frame) {
	t.handlerMutex.RLock()
	handler := t.handler
	t.handlerMutex.RUnlock()

	if handler != nil {
		handler(f)
		return
	}

	select {
	case t.frameChan <- f:
	default:
		// Channel full, drop oldest
		select {
		case <-t.frameChan:
		default:
		}
		t.frameChan <- f
	}
}

// Close stops the transport and closes the serial port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			// Closing the port unblocks a pending Read
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Reset drops buffered input and queued frames
func (t *HostTransport) Reset() {
	t.readMutex.Lock()
	t.inputBuffer.Reset()
	t.readMutex.Unlock()

	t.writeMutex.Lock()
	t.last = nil
	t.writeMutex.Unlock()

	for len(t.frameChan) > 0 {
		<-t.frameChan
	}
}
