package base

import (
	"github.com/pkg/errors"

	"rollingbase/protocol"
)

// GoToOption adjusts one field of a go-to or orient-to request
type GoToOption func(*goToRequest)

type goToRequest struct {
	msg       protocol.GoTo
	skipQueue bool
}

// SkipQueue sends the request immediately, replacing the action in progress
func SkipQueue() GoToOption {
	return func(r *goToRequest) { r.skipQueue = true }
}

// Backward drives in reverse
func Backward() GoToOption {
	return func(r *goToRequest) { r.msg.IsBackward = true }
}

// MaxSpeed sets the cruise power (0-255)
func MaxSpeed(speed uint8) GoToOption {
	return func(r *goToRequest) { r.msg.MaxSpeed = speed }
}

// CorrectionSpeed sets the steering correction power
func CorrectionSpeed(speed uint8) GoToOption {
	return func(r *goToRequest) { r.msg.CorrectionSpeed = speed }
}

// Precision sets the dwell in control ticks and the error and trajectory
// tolerances in encoder ticks
func Precision(nextPositionDelay, actionErrorAuth, trajPrecision uint16) GoToOption {
	return func(r *goToRequest) {
		r.msg.NextPositionDelay = nextPositionDelay
		r.msg.ActionErrorAuth = actionErrorAuth
		r.msg.TrajPrecision = trajPrecision
	}
}

// Acceleration sets the ramp-up start power and distance; a zero distance
// disables the ramp
func Acceleration(startSpeed uint8, distance float32) GoToOption {
	return func(r *goToRequest) {
		r.msg.AccelStartSpeed = startSpeed
		r.msg.AccelDistance = distance
	}
}

// Deceleration sets the ramp-down end power and distance; a zero distance
// disables the ramp
func Deceleration(endSpeed uint8, distance float32) GoToOption {
	return func(r *goToRequest) {
		r.msg.DecelEndSpeed = endSpeed
		r.msg.DecelDistance = distance
	}
}

func (b *Base) goToRequest(target Pose, opts []GoToOption) ([]byte, bool, error) {
	b.mu.Lock()
	pos := target.Add(b.offset)
	b.mu.Unlock()

	d := b.defaults
	r := goToRequest{msg: protocol.GoTo{
		X:                 pos.X,
		Y:                 pos.Y,
		MaxSpeed:          d.MaxSpeed,
		NextPositionDelay: d.NextPositionDelay,
		ActionErrorAuth:   d.ActionErrorAuth,
		TrajPrecision:     d.TrajPrecision,
		CorrectionSpeed:   d.CorrectionSpeed,
		AccelStartSpeed:   d.AccelStartSpeed,
		AccelDistance:     d.AccelDistance,
		DecelEndSpeed:     d.DecelEndSpeed,
		DecelDistance:     d.DecelDistance,
	}}
	for _, opt := range opts {
		opt(&r)
	}

	payload, err := r.msg.MarshalBinary()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to encode go-to")
	}
	return payload, r.skipQueue, nil
}

// GoTo drives to target (plus the position offset). The request is queued
// behind unfinished actions unless SkipQueue is given.
func (b *Base) GoTo(target Pose, opts ...GoToOption) error {
	payload, skip, err := b.goToRequest(target, opts)
	if err != nil {
		return err
	}
	return b.enqueue(protocol.MsgGoTo, payload, true, skip)
}

// OrientToPoint turns in place to face target
func (b *Base) OrientToPoint(target Pose, opts ...GoToOption) error {
	payload, skip, err := b.goToRequest(target, opts)
	if err != nil {
		return err
	}
	return b.enqueue(protocol.MsgOrientToPoint, payload, true, skip)
}

// KeepCurrentPosition holds the wheels where they are. Holding never
// finishes, so it is sent at once and the queue is cleared.
func (b *Base) KeepCurrentPosition() error {
	return b.sendNow(protocol.MsgKeepPosition, nil)
}

// Stop halts the base and clears the queue
func (b *Base) Stop() error {
	return b.sendNow(protocol.MsgStop, nil)
}

// DisablePID turns off position hold while idle
func (b *Base) DisablePID(skipQueue bool) error {
	return b.enqueue(protocol.MsgDisablePID, nil, true, skipQueue)
}

// EnablePID turns position hold while idle back on
func (b *Base) EnablePID(skipQueue bool) error {
	return b.enqueue(protocol.MsgEnablePID, nil, true, skipQueue)
}

// ResetOdometry sets the controller's pose to the origin once the queued
// actions are done
func (b *Base) ResetOdometry(skipQueue bool) error {
	return b.enqueue(protocol.MsgResetPosition, nil, false, skipQueue)
}

// SetHome overwrites the controller's pose
func (b *Base) SetHome(p Pose, skipQueue bool) error {
	payload, _ := protocol.Position{X: p.X, Y: p.Y, Theta: p.Theta}.MarshalBinary()
	return b.enqueue(protocol.MsgSetHome, payload, false, skipQueue)
}

// SetPID replaces the closed-loop gains
func (b *Base) SetPID(kp, ki, kd float32, skipQueue bool) error {
	payload, _ := protocol.SetPID{Kp: kp, Ki: ki, Kd: kd}.MarshalBinary()
	return b.enqueue(protocol.MsgSetPID, payload, false, skipQueue)
}

// ServoGoTo moves the servo on pin to angle degrees
func (b *Base) ServoGoTo(pin, angle uint8, skipQueue bool) error {
	if angle > 180 {
		return errors.Errorf("servo angle %d out of range", angle)
	}
	payload, _ := protocol.ServoGoTo{Pin: pin, Angle: angle}.MarshalBinary()
	return b.enqueue(protocol.MsgServoGoTo, payload, false, skipQueue)
}

// StepperStep moves the stepper registered under pin by steps
func (b *Base) StepperStep(pin uint8, steps int32, skipQueue bool) error {
	payload, _ := protocol.StepperStep{Pin: pin, Steps: steps}.MarshalBinary()
	return b.enqueue(protocol.MsgStepperStep, payload, false, skipQueue)
}
