package firmware

import (
	"math"

	"rollingbase/core"
	"rollingbase/motion"
	"rollingbase/protocol"
)

// registerCommands installs the inbound message table
func (f *Firmware) registerCommands() {
	r := f.registry

	r.Register(protocol.MsgGoTo, "go_to", f.cmdGoTo)
	r.Register(protocol.MsgCurveGoTo, "curve_go_to", func([]byte) error {
		return core.ErrUnsupportedCommand
	})
	r.Register(protocol.MsgKeepPosition, "keep_current_position", func([]byte) error {
		f.ctrl.Install(motion.NewHoldPosition())
		return nil
	})
	r.Register(protocol.MsgDisablePID, "disable_pid", func([]byte) error {
		f.ctrl.Install(motion.NewDisablePID())
		return nil
	})
	r.Register(protocol.MsgEnablePID, "enable_pid", func([]byte) error {
		f.ctrl.Install(motion.NewEnablePID())
		return nil
	})
	r.Register(protocol.MsgResetPosition, "reset_position", func([]byte) error {
		f.ctrl.ResetPosition(motion.Pose{})
		return nil
	})
	r.Register(protocol.MsgSetPID, "set_pid", f.cmdSetPID)
	r.Register(protocol.MsgSetHome, "set_home", f.cmdSetHome)
	r.Register(protocol.MsgOrientToPoint, "orient_to_point", f.cmdOrientToPoint)
	r.Register(protocol.MsgServoGoTo, "servo_go_to", f.cmdServoGoTo)
	r.Register(protocol.MsgStepperStep, "stepper_step", f.cmdStepperStep)
	r.Register(protocol.MsgStop, "stop", func([]byte) error {
		f.ctrl.Stop()
		core.StopAllSteppers()
		return nil
	})
}

func (f *Firmware) cmdGoTo(payload []byte) error {
	target, params, err := f.decodeGoTo(payload)
	if err != nil {
		return err
	}
	f.ctrl.Install(motion.NewMoveToPoint(target, params))
	return nil
}

func (f *Firmware) cmdOrientToPoint(payload []byte) error {
	target, params, err := f.decodeGoTo(payload)
	if err != nil {
		return err
	}
	f.ctrl.Install(motion.NewOrientToPoint(target, params))
	return nil
}

// decodeGoTo validates a go-to record and converts it to action parameters
func (f *Firmware) decodeGoTo(payload []byte) (motion.Point, motion.MoveParams, error) {
	var g protocol.GoTo
	if err := g.UnmarshalBinary(payload); err != nil {
		return motion.Point{}, motion.MoveParams{}, err
	}
	if !finite(g.X) || !finite(g.Y) ||
		!finite(g.AccelDistance) || g.AccelDistance < 0 ||
		!finite(g.DecelDistance) || g.DecelDistance < 0 {
		return motion.Point{}, motion.MoveParams{}, ErrOutOfRange
	}

	precision := motion.Precision{
		Delay:      g.NextPositionDelay,
		Error:      float64(g.ActionErrorAuth),
		Trajectory: float64(g.TrajPrecision),
	}
	if precision.Error == 0 {
		precision.Error = f.precision.Error
	}
	if precision.Trajectory == 0 {
		precision.Trajectory = f.precision.Trajectory
	}

	params := motion.MoveParams{
		Backward:        g.IsBackward,
		MaxSpeed:        float64(g.MaxSpeed),
		CorrectionSpeed: float64(g.CorrectionSpeed),
		Precision:       precision,
		AccelStartSpeed: float64(g.AccelStartSpeed),
		AccelDistance:   float64(g.AccelDistance),
		DecelEndSpeed:   float64(g.DecelEndSpeed),
		DecelDistance:   float64(g.DecelDistance),
	}
	return motion.Point{X: float64(g.X), Y: float64(g.Y)}, params, nil
}

func (f *Firmware) cmdSetPID(payload []byte) error {
	var s protocol.SetPID
	if err := s.UnmarshalBinary(payload); err != nil {
		return err
	}
	if !finite(s.Kp) || !finite(s.Ki) || !finite(s.Kd) {
		return ErrOutOfRange
	}
	f.ctrl.Drive().SetGains(motion.Gains{Kp: float64(s.Kp), Ki: float64(s.Ki), Kd: float64(s.Kd)})
	return nil
}

func (f *Firmware) cmdSetHome(payload []byte) error {
	var p protocol.Position
	if err := p.UnmarshalBinary(payload); err != nil {
		return err
	}
	if !finite(p.X) || !finite(p.Y) || !finite(p.Theta) {
		return ErrOutOfRange
	}
	f.ctrl.ResetPosition(motion.Pose{X: float64(p.X), Y: float64(p.Y), Theta: float64(p.Theta)})
	return nil
}

// cmdServoGoTo attaches the servo on first use, then moves it
func (f *Firmware) cmdServoGoTo(payload []byte) error {
	var s protocol.ServoGoTo
	if err := s.UnmarshalBinary(payload); err != nil {
		return err
	}
	if s.Angle > 180 || s.Pin >= 64 {
		return ErrOutOfRange
	}
	drv := core.GetServoDriver()
	if drv == nil {
		return ErrNoServo
	}

	pin := core.GPIOPin(s.Pin)
	if f.servos&(1<<s.Pin) == 0 {
		if err := drv.Attach(pin); err != nil {
			return err
		}
		f.servos |= 1 << s.Pin
	}
	return drv.SetAngle(pin, s.Angle)
}

func (f *Firmware) cmdStepperStep(payload []byte) error {
	var s protocol.StepperStep
	if err := s.UnmarshalBinary(payload); err != nil {
		return err
	}
	st := core.GetAuxStepper(s.Pin)
	if st == nil {
		return ErrNoStepper
	}
	return st.Move(s.Steps)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
