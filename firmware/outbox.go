package firmware

import (
	"sync/atomic"

	"rollingbase/motion"
	"rollingbase/protocol"
)

// Sender queues one framed message toward the companion computer
type Sender interface {
	Send(msgType uint8, payload []byte) error
}

// Outbox carries notifications from the control tick to the main loop.
// It implements motion.Notifier; neither method blocks or allocates.
type Outbox struct {
	finished chan uint8
	odometry chan protocol.Position

	dropped atomic.Uint32
}

// NewOutbox creates an outbox holding up to depth pending completions
func NewOutbox(depth int) *Outbox {
	if depth <= 0 {
		depth = 8
	}
	return &Outbox{
		finished: make(chan uint8, depth),
		odometry: make(chan protocol.Position, 1),
	}
}

// ActionFinished implements motion.Notifier
func (o *Outbox) ActionFinished(code uint8) {
	select {
	case o.finished <- code:
	default:
		o.dropped.Add(1)
	}
}

// Odometry implements motion.Notifier. A pose still pending is replaced.
// The control tick is the only writer.
func (o *Outbox) Odometry(pose motion.Pose) {
	select {
	case <-o.odometry:
	default:
	}
	select {
	case o.odometry <- protocol.Position{X: float32(pose.X), Y: float32(pose.Y), Theta: float32(pose.Theta)}:
	default:
	}
}

// Dropped returns the number of completions lost to a full queue
func (o *Outbox) Dropped() uint32 {
	return o.dropped.Load()
}

// Drain sends every pending notification, completions first. It returns the
// number of frames sent.
func (o *Outbox) Drain(s Sender) int {
	sent := 0
	for empty := false; !empty; {
		select {
		case code := <-o.finished:
			if s.Send(protocol.MsgActionFinished, []byte{code}) == nil {
				sent++
			}
		default:
			empty = true
		}
	}

	select {
	case p := <-o.odometry:
		b, _ := p.MarshalBinary()
		if s.Send(protocol.MsgOdometry, b) == nil {
			sent++
		}
	default:
	}
	return sent
}
