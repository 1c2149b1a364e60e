package protocol

import "sync/atomic"

// FrameHandler is called for every valid inbound frame other than a NACK.
// payload aliases the receive buffer and must not be retained.
type FrameHandler func(msgType uint8, payload []byte)

// Transport handles the controller side of the serial link
type Transport struct {
	output  OutputBuffer
	handler FrameHandler

	// last holds the most recent non-NACK frame for resend on NACK
	last    [FrameLengthMax]byte
	lastLen int

	rejected uint32 // atomic
	panics   uint32 // atomic

	rejectCallback func(err error) // Called for every frame that fails its checks
	flushCallback  func()          // Called to push output to USB immediately
}

// NewTransport creates a new Transport instance
func NewTransport(output OutputBuffer, handler FrameHandler) *Transport {
	return &Transport{
		output:  output,
		handler: handler,
	}
}

// Receive handles every complete frame buffered in input. A partial frame
// stays buffered for the next call.
func (t *Transport) Receive(input *RxRing) {
	for {
		f, ok, err := input.Next()
		if !ok {
			return
		}

		if err != nil {
			atomic.AddUint32(&t.rejected, 1)
			if t.rejectCallback != nil {
				t.rejectCallback(err)
			}
			t.sendNack()
			continue
		}

		if f.Type == MsgNack {
			t.resend()
			continue
		}

		t.dispatch(f)
	}
}

// dispatch calls the handler, recovering from any panic so one bad
// command cannot take the link down
func (t *Transport) dispatch(f Frame) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint32(&t.panics, 1)
		}
	}()

	if t.handler != nil {
		t.handler(f.Type, f.Payload)
	}
}

// Send frames and queues one message. The frame is kept for resend.
func (t *Transport) Send(msgType uint8, payload []byte) error {
	cursor := t.output.CurPosition()
	if err := EncodeFrame(t.output, msgType, payload); err != nil {
		return err
	}
	t.lastLen = copy(t.last[:], t.output.DataSince(cursor))
	t.flush()
	return nil
}

// SendText sends a text message, truncated to the maximum payload
func (t *Transport) SendText(s string) {
	if len(s) > MaxPayload {
		s = s[:MaxPayload]
	}
	_ = t.Send(MsgText, []byte(s))
}

// sendNack asks the peer to repeat its last frame. NACKs are never
// recorded as the last frame.
func (t *Transport) sendNack() {
	_ = EncodeFrame(t.output, MsgNack, nil)
	t.flush()
}

func (t *Transport) resend() {
	if t.lastLen == 0 {
		return
	}
	t.output.Output(t.last[:t.lastLen])
	t.flush()
}

func (t *Transport) flush() {
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// Rejected returns the number of inbound frames that failed their checks
func (t *Transport) Rejected() uint32 {
	return atomic.LoadUint32(&t.rejected)
}

// Panics returns the number of handler invocations that panicked
func (t *Transport) Panics() uint32 {
	return atomic.LoadUint32(&t.panics)
}

// Reset forgets the last sent frame (useful after USB disconnect/reconnect)
func (t *Transport) Reset() {
	t.lastLen = 0
	atomic.StoreUint32(&t.rejected, 0)
	atomic.StoreUint32(&t.panics, 0)
}

// SetRejectCallback sets a callback for frames that fail CRC or length checks
func (t *Transport) SetRejectCallback(callback func(err error)) {
	t.rejectCallback = callback
}

// SetFlushCallback sets a callback to immediately flush output to USB
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
