package firmware

import (
	"math"
	"strings"
	"testing"

	"rollingbase/core"
	"rollingbase/motion"
	"rollingbase/protocol"
)

type nopGPIO struct{}

func (nopGPIO) ConfigureOutput(core.GPIOPin) error            { return nil }
func (nopGPIO) ConfigureInputPullUp(core.GPIOPin) error       { return nil }
func (nopGPIO) SetPin(core.GPIOPin, bool) error               { return nil }
func (nopGPIO) ReadPin(core.GPIOPin) bool                     { return false }
func (nopGPIO) SetRisingInterrupt(core.GPIOPin, func()) error { return nil }

type nopPWM struct{}

func (nopPWM) ConfigureHardwarePWM(core.PWMPin, uint32) error { return nil }
func (nopPWM) SetDutyCycle(core.PWMPin, core.PWMValue) error  { return nil }

type sentFrame struct {
	msgType uint8
	payload []byte
}

type mockSender struct {
	frames []sentFrame
}

func (m *mockSender) Send(msgType uint8, payload []byte) error {
	m.frames = append(m.frames, sentFrame{msgType, append([]byte(nil), payload...)})
	return nil
}

type mockServo struct {
	attached map[core.GPIOPin]int
	angles   map[core.GPIOPin]uint8
}

func (m *mockServo) Attach(pin core.GPIOPin) error {
	m.attached[pin]++
	return nil
}

func (m *mockServo) SetAngle(pin core.GPIOPin, angle uint8) error {
	m.angles[pin] = angle
	return nil
}

type mockAuxStepper struct {
	moves   []int32
	stopped int
}

func (m *mockAuxStepper) Move(steps int32) error {
	m.moves = append(m.moves, steps)
	return nil
}

func (m *mockAuxStepper) Stop() { m.stopped++ }

type testRig struct {
	fw     *Firmware
	ctrl   *motion.Controller
	drive  *motion.Drive
	sender *mockSender
	outbox *Outbox
}

func newTestRig(t *testing.T, telemetryEvery uint32) *testRig {
	t.Helper()
	geom := motion.NewGeometry(1024, 6.1, 27.07)
	right := motion.NewWheel(motion.WheelConfig{ForwardPin: 0, BackwardPin: 1, PowerPin: 2}, nopGPIO{}, nopPWM{})
	left := motion.NewWheel(motion.WheelConfig{ForwardPin: 4, BackwardPin: 3, PowerPin: 5}, nopGPIO{}, nopPWM{})
	drive := motion.NewDrive(right, left, geom, motion.Gains{Kp: 1.5})
	odom := motion.NewOdometry(geom, &right.Ticks, &left.Ticks)
	outbox := NewOutbox(4)
	ctrl := motion.NewController(drive, odom, outbox, motion.ControllerConfig{TelemetryEvery: telemetryEvery})
	sender := &mockSender{}

	fw := New(ctrl, outbox, sender, Options{
		Registry:  core.NewCommandRegistry(),
		Precision: motion.Precision{Delay: 100, Error: 20, Trajectory: 50},
	})
	return &testRig{fw: fw, ctrl: ctrl, drive: drive, sender: sender, outbox: outbox}
}

func goToPayload(t *testing.T, g protocol.GoTo) []byte {
	t.Helper()
	b, err := g.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	return b
}

func TestGoToInstallsMove(t *testing.T) {
	r := newTestRig(t, 0)

	r.fw.HandleFrame(protocol.MsgGoTo, goToPayload(t, protocol.GoTo{
		X: 100, Y: -20, IsBackward: true, MaxSpeed: 150,
		NextPositionDelay: 30, ActionErrorAuth: 15, TrajPrecision: 40,
		CorrectionSpeed: 60, AccelStartSpeed: 80, AccelDistance: 10,
		DecelEndSpeed: 70, DecelDistance: 12,
	}))

	m, ok := r.ctrl.Active().(*motion.MoveToPoint)
	if !ok {
		t.Fatalf("Active = %T, want *motion.MoveToPoint", r.ctrl.Active())
	}
	if m.Target != (motion.Point{X: 100, Y: -20}) {
		t.Errorf("Target = %+v", m.Target)
	}
	p := m.Params
	if !p.Backward || p.MaxSpeed != 150 || p.CorrectionSpeed != 60 {
		t.Errorf("Params = %+v", p)
	}
	if p.Precision != (motion.Precision{Delay: 30, Error: 15, Trajectory: 40}) {
		t.Errorf("Precision = %+v", p.Precision)
	}
	if p.AccelDistance != 10 || p.DecelDistance != 12 || p.DecelEndSpeed != 70 {
		t.Errorf("ramps = %+v", p)
	}
	if len(r.sender.frames) != 0 {
		t.Errorf("go-to should not reply, got %+v", r.sender.frames)
	}
}

func TestGoToZeroTolerancesUseDefaults(t *testing.T) {
	r := newTestRig(t, 0)

	r.fw.HandleFrame(protocol.MsgGoTo, goToPayload(t, protocol.GoTo{X: 10, MaxSpeed: 100}))

	m := r.ctrl.Active().(*motion.MoveToPoint)
	if m.Params.Precision.Error != 20 || m.Params.Precision.Trajectory != 50 {
		t.Errorf("Precision = %+v, want defaults", m.Params.Precision)
	}
	if m.Params.Precision.Delay != 0 {
		t.Errorf("Delay = %d, want 0 as sent", m.Params.Precision.Delay)
	}
}

func TestOrientToPointInstalls(t *testing.T) {
	r := newTestRig(t, 0)

	r.fw.HandleFrame(protocol.MsgOrientToPoint, goToPayload(t, protocol.GoTo{X: 0, Y: 50, MaxSpeed: 80}))

	o, ok := r.ctrl.Active().(*motion.OrientToPoint)
	if !ok {
		t.Fatalf("Active = %T, want *motion.OrientToPoint", r.ctrl.Active())
	}
	if o.Target != (motion.Point{Y: 50}) {
		t.Errorf("Target = %+v", o.Target)
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	r := newTestRig(t, 0)

	tests := []struct {
		name    string
		msgType uint8
		payload []byte
	}{
		{"short go_to", protocol.MsgGoTo, make([]byte, protocol.GoToSize-1)},
		{"nan target", protocol.MsgGoTo, goToPayload(t, protocol.GoTo{X: float32(math.NaN())})},
		{"negative ramp", protocol.MsgOrientToPoint, goToPayload(t, protocol.GoTo{AccelDistance: -1})},
		{"short set_home", protocol.MsgSetHome, make([]byte, 8)},
		{"short set_pid", protocol.MsgSetPID, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.sender.frames = nil
			r.fw.HandleFrame(tt.msgType, tt.payload)

			if r.ctrl.Active() != nil {
				t.Errorf("malformed payload installed %T", r.ctrl.Active())
			}
			if len(r.sender.frames) != 1 || r.sender.frames[0].msgType != protocol.MsgText {
				t.Fatalf("expected one text reply, got %+v", r.sender.frames)
			}
			if !strings.HasPrefix(string(r.sender.frames[0].payload), r.fw.registry.Name(tt.msgType)) {
				t.Errorf("text %q does not name the command", r.sender.frames[0].payload)
			}
		})
	}
	if r.fw.Rejected() != uint32(len(tests)) {
		t.Errorf("Rejected = %d, want %d", r.fw.Rejected(), len(tests))
	}
}

func TestUnknownAndUnsupported(t *testing.T) {
	r := newTestRig(t, 0)

	r.fw.HandleFrame(protocol.MsgCurveGoTo, make([]byte, 30))
	r.fw.HandleFrame(42, nil)

	if len(r.sender.frames) != 2 {
		t.Fatalf("expected 2 replies, got %+v", r.sender.frames)
	}
	for i, code := range []uint8{protocol.MsgCurveGoTo, 42} {
		f := r.sender.frames[i]
		if f.msgType != protocol.MsgUnknownType || len(f.payload) != 1 || f.payload[0] != code {
			t.Errorf("reply %d = %+v, want unknown-type echoing %d", i, f, code)
		}
	}
	if r.fw.Unknown() != 2 {
		t.Errorf("Unknown = %d, want 2", r.fw.Unknown())
	}
}

func TestClosedLoopCommands(t *testing.T) {
	r := newTestRig(t, 0)

	r.fw.HandleFrame(protocol.MsgKeepPosition, nil)
	if _, ok := r.ctrl.Active().(*motion.HoldPosition); !ok {
		t.Errorf("keep position installed %T", r.ctrl.Active())
	}

	r.fw.HandleFrame(protocol.MsgDisablePID, nil)
	s, ok := r.ctrl.Active().(*motion.SetClosedLoop)
	if !ok || s.Enable {
		t.Fatalf("disable pid installed %T %+v", r.ctrl.Active(), s)
	}
	r.ctrl.Tick()
	if r.drive.HoldOnIdle() {
		t.Error("hold-on-idle still enabled after disable_pid")
	}

	r.fw.HandleFrame(protocol.MsgEnablePID, nil)
	r.ctrl.Tick()
	if !r.drive.HoldOnIdle() {
		t.Error("hold-on-idle disabled after enable_pid")
	}
}

func TestSetPID(t *testing.T) {
	r := newTestRig(t, 0)

	b, _ := protocol.SetPID{Kp: 2, Ki: 0.5, Kd: 0.25}.MarshalBinary()
	r.fw.HandleFrame(protocol.MsgSetPID, b)

	if g := r.drive.Gains(); g != (motion.Gains{Kp: 2, Ki: 0.5, Kd: 0.25}) {
		t.Errorf("Gains = %+v", g)
	}
}

func TestSetHomeAndTelemetry(t *testing.T) {
	r := newTestRig(t, 1)

	b, _ := protocol.Position{X: 12.5, Y: -3, Theta: 1}.MarshalBinary()
	r.fw.HandleFrame(protocol.MsgSetHome, b)
	r.ctrl.Tick()

	if n := r.fw.Flush(); n != 1 {
		t.Fatalf("Flush sent %d frames, want 1", n)
	}
	f := r.sender.frames[0]
	if f.msgType != protocol.MsgOdometry {
		t.Fatalf("frame type = %d, want odometry", f.msgType)
	}
	var p protocol.Position
	if err := p.UnmarshalBinary(f.payload); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if p != (protocol.Position{X: 12.5, Y: -3, Theta: 1}) {
		t.Errorf("odometry = %+v", p)
	}

	r.fw.HandleFrame(protocol.MsgResetPosition, nil)
	r.ctrl.Tick()
	r.sender.frames = nil
	r.fw.Flush()
	if err := p.UnmarshalBinary(r.sender.frames[0].payload); err != nil || p != (protocol.Position{}) {
		t.Errorf("after reset odometry = %+v (%v)", p, err)
	}
}

func TestActionFinishedFlushed(t *testing.T) {
	r := newTestRig(t, 0)

	// Already at the target: finishes on the first tick
	r.fw.HandleFrame(protocol.MsgGoTo, goToPayload(t, protocol.GoTo{MaxSpeed: 100}))
	r.ctrl.Tick()
	r.ctrl.Tick()

	if n := r.fw.Flush(); n != 1 {
		t.Fatalf("Flush sent %d frames, want 1", n)
	}
	f := r.sender.frames[0]
	if f.msgType != protocol.MsgActionFinished || len(f.payload) != 1 || f.payload[0] != protocol.MsgGoTo {
		t.Errorf("frame = %+v, want action finished for go_to", f)
	}
	if r.fw.Flush() != 0 {
		t.Error("second Flush sent frames")
	}
}

func TestStop(t *testing.T) {
	core.ResetSteppers()
	defer core.ResetSteppers()
	st := &mockAuxStepper{}
	if err := core.RegisterAuxStepper(6, st); err != nil {
		t.Fatalf("RegisterAuxStepper: %v", err)
	}

	r := newTestRig(t, 0)
	r.fw.HandleFrame(protocol.MsgGoTo, goToPayload(t, protocol.GoTo{X: 100, MaxSpeed: 100}))
	r.fw.HandleFrame(protocol.MsgStop, nil)

	if r.ctrl.Active() != nil {
		t.Errorf("Active = %T after stop", r.ctrl.Active())
	}
	if r.drive.HoldOnIdle() {
		t.Error("hold-on-idle enabled after stop")
	}
	if st.stopped != 1 {
		t.Errorf("stepper stopped %d times, want 1", st.stopped)
	}
}

func TestServoGoTo(t *testing.T) {
	defer core.SetServoDriver(nil)
	r := newTestRig(t, 0)

	core.SetServoDriver(nil)
	r.fw.HandleFrame(protocol.MsgServoGoTo, []byte{9, 90})
	if r.fw.Rejected() != 1 {
		t.Errorf("servo without driver not rejected")
	}

	servo := &mockServo{attached: map[core.GPIOPin]int{}, angles: map[core.GPIOPin]uint8{}}
	core.SetServoDriver(servo)

	r.fw.HandleFrame(protocol.MsgServoGoTo, []byte{9, 90})
	r.fw.HandleFrame(protocol.MsgServoGoTo, []byte{9, 45})
	r.fw.HandleFrame(protocol.MsgServoGoTo, []byte{9, 200})

	if servo.attached[9] != 1 {
		t.Errorf("servo attached %d times, want 1", servo.attached[9])
	}
	if servo.angles[9] != 45 {
		t.Errorf("angle = %d, want 45", servo.angles[9])
	}
	if r.fw.Rejected() != 2 {
		t.Errorf("Rejected = %d, want 2 (no driver, angle 200)", r.fw.Rejected())
	}
}

func TestStepperStep(t *testing.T) {
	core.ResetSteppers()
	defer core.ResetSteppers()
	st := &mockAuxStepper{}
	core.RegisterAuxStepper(6, st)

	r := newTestRig(t, 0)
	b, _ := protocol.StepperStep{Pin: 6, Steps: -300}.MarshalBinary()
	r.fw.HandleFrame(protocol.MsgStepperStep, b)

	if len(st.moves) != 1 || st.moves[0] != -300 {
		t.Errorf("moves = %v, want [-300]", st.moves)
	}

	b, _ = protocol.StepperStep{Pin: 7, Steps: 10}.MarshalBinary()
	r.fw.HandleFrame(protocol.MsgStepperStep, b)
	if r.fw.Rejected() != 1 {
		t.Errorf("step on unregistered pin not rejected")
	}
}

func TestOutboxKeepsLatestPose(t *testing.T) {
	o := NewOutbox(2)
	o.ActionFinished(1)
	o.ActionFinished(2)
	o.ActionFinished(3)
	o.Odometry(motion.Pose{X: 1})
	o.Odometry(motion.Pose{X: 2})

	if o.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", o.Dropped())
	}

	s := &mockSender{}
	if n := o.Drain(s); n != 3 {
		t.Fatalf("Drain sent %d, want 3", n)
	}
	if s.frames[0].payload[0] != 1 || s.frames[1].payload[0] != 2 {
		t.Errorf("completions out of order: %+v", s.frames)
	}
	var p protocol.Position
	p.UnmarshalBinary(s.frames[2].payload)
	if s.frames[2].msgType != protocol.MsgOdometry || p.X != 2 {
		t.Errorf("odometry frame = %+v, want the latest pose", s.frames[2])
	}
	if n := o.Drain(s); n != 0 {
		t.Errorf("second Drain sent %d, want 0", n)
	}
}

func TestGlobalRegistryByDefault(t *testing.T) {
	r := newTestRig(t, 0)
	fw := New(r.ctrl, r.outbox, r.sender, Options{})

	if fw.registry != core.GetGlobalRegistry() {
		t.Fatal("nil Registry should use the global registry")
	}
	if _, ok := core.GetGlobalRegistry().GetCommand(protocol.MsgStop); !ok {
		t.Error("stop not registered on the global registry")
	}

	fw.HandleFrame(protocol.MsgDisablePID, nil)
	r.ctrl.Tick()
	if r.drive.HoldOnIdle() {
		t.Error("disable_pid through the global registry had no effect")
	}
}
