package motion

import "rollingbase/protocol"

// HoldPosition drives both wheels back toward the ticks captured when it
// started. It never finishes; only a new action replaces it.
type HoldPosition struct {
	lifecycle

	target Ticks
	armed  bool
}

// NewHoldPosition holds at the ticks seen on its first tick
func NewHoldPosition() *HoldPosition {
	return &HoldPosition{}
}

// NewHoldPositionAt holds at the given ticks
func NewHoldPositionAt(target Ticks) *HoldPosition {
	return &HoldPosition{target: target, armed: true}
}

// Code implements Action
func (h *HoldPosition) Code() uint8 { return protocol.MsgKeepPosition }

// Target returns the held tick position
func (h *HoldPosition) Target() Ticks { return h.target }

func (h *HoldPosition) advance(pose Pose, ticks Ticks, d *Drive) {
	if !h.armed {
		h.target = ticks
		h.armed = true
	}
	h.begin()

	kp := d.Gains().Kp
	err := h.target.Sub(ticks)
	d.Run(
		clamp(kp*float64(err.Right), -MaxPower, MaxPower),
		clamp(kp*float64(err.Left), -MaxPower, MaxPower),
	)
}

// SetClosedLoop enables or disables idle hold, finishing on its first tick
type SetClosedLoop struct {
	lifecycle

	Enable bool
}

// NewEnablePID re-enables idle hold
func NewEnablePID() *SetClosedLoop { return &SetClosedLoop{Enable: true} }

// NewDisablePID disables idle hold and stops the wheels
func NewDisablePID() *SetClosedLoop { return &SetClosedLoop{Enable: false} }

// Code implements Action
func (s *SetClosedLoop) Code() uint8 {
	if s.Enable {
		return protocol.MsgEnablePID
	}
	return protocol.MsgDisablePID
}

func (s *SetClosedLoop) advance(pose Pose, ticks Ticks, d *Drive) {
	s.begin()
	d.SetHoldOnIdle(s.Enable)
	if !s.Enable {
		d.Stop()
	}
	s.finish()
}
