package motion

import (
	"testing"

	"rollingbase/core"
)

type mockGPIO struct {
	outputs    map[core.GPIOPin]bool
	levels     map[core.GPIOPin]bool
	inputs     map[core.GPIOPin]bool
	interrupts map[core.GPIOPin]func()
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		outputs:    make(map[core.GPIOPin]bool),
		levels:     make(map[core.GPIOPin]bool),
		inputs:     make(map[core.GPIOPin]bool),
		interrupts: make(map[core.GPIOPin]func()),
	}
}

func (m *mockGPIO) ConfigureOutput(pin core.GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *mockGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	m.inputs[pin] = true
	return nil
}

func (m *mockGPIO) SetPin(pin core.GPIOPin, value bool) error {
	m.levels[pin] = value
	return nil
}

func (m *mockGPIO) ReadPin(pin core.GPIOPin) bool {
	return m.levels[pin]
}

func (m *mockGPIO) SetRisingInterrupt(pin core.GPIOPin, handler func()) error {
	m.interrupts[pin] = handler
	return nil
}

type mockPWM struct {
	duty map[core.PWMPin]core.PWMValue
	freq map[core.PWMPin]uint32
}

func newMockPWM() *mockPWM {
	return &mockPWM{
		duty: make(map[core.PWMPin]core.PWMValue),
		freq: make(map[core.PWMPin]uint32),
	}
}

func (m *mockPWM) ConfigureHardwarePWM(pin core.PWMPin, frequency uint32) error {
	m.freq[pin] = frequency
	return nil
}

func (m *mockPWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	m.duty[pin] = value
	return nil
}

type recorder struct {
	finished []uint8
	poses    []Pose
}

func (r *recorder) ActionFinished(code uint8) { r.finished = append(r.finished, code) }
func (r *recorder) Odometry(pose Pose)        { r.poses = append(r.poses, pose) }

var (
	rightWheelConfig = WheelConfig{ForwardPin: 1, BackwardPin: 0, PowerPin: 2, EncoderA: 11, EncoderB: 12}
	leftWheelConfig  = WheelConfig{ForwardPin: 3, BackwardPin: 4, PowerPin: 5, EncoderA: 13, EncoderB: 14}
)

func testGeometry() Geometry {
	return NewGeometry(1024, 6.1, 27.07)
}

type testBase struct {
	ctrl        *Controller
	drive       *Drive
	right, left *Wheel
	gpio        *mockGPIO
	pwm         *mockPWM
	rec         *recorder
}

func newTestBase(t *testing.T, cfg ControllerConfig) *testBase {
	t.Helper()
	gpio := newMockGPIO()
	pwm := newMockPWM()

	right := NewWheel(rightWheelConfig, gpio, pwm)
	left := NewWheel(leftWheelConfig, gpio, pwm)
	for _, w := range []*Wheel{right, left} {
		if err := w.Init(); err != nil {
			t.Fatalf("wheel Init failed: %v", err)
		}
	}

	geom := testGeometry()
	drive := NewDrive(right, left, geom, Gains{Kp: 1.5})
	odom := NewOdometry(geom, &right.Ticks, &left.Ticks)
	rec := &recorder{}

	return &testBase{
		ctrl:  NewController(drive, odom, rec, cfg),
		drive: drive,
		right: right,
		left:  left,
		gpio:  gpio,
		pwm:   pwm,
		rec:   rec,
	}
}

// follow advances each wheel's counter by step ticks in its commanded direction
func (b *testBase) follow(step int32) {
	for _, w := range []*Wheel{b.right, b.left} {
		switch w.Direction() {
		case Forward:
			w.Ticks.count += step
		case Backward:
			w.Ticks.count -= step
		}
	}
}
