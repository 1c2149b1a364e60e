package motion

import (
	"math"
	"testing"
)

func TestWheelDrive(t *testing.T) {
	gpio := newMockGPIO()
	pwm := newMockPWM()
	cfg := rightWheelConfig
	cfg.Correction = 1.17
	cfg.Threshold = 10
	w := NewWheel(cfg, gpio, pwm)
	if err := w.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tests := []struct {
		name  string
		speed float64
		dir   Direction
		power uint8
	}{
		{"forward", 50, Forward, 68},
		{"backward", -50, Backward, 68},
		{"clamped", 1000, Forward, MaxPower},
		{"clamped backward", -1000, Backward, MaxPower},
		{"zero", 0, Neutral, 0},
		{"nan", math.NaN(), Neutral, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.Drive(tt.speed)
			if w.Direction() != tt.dir || w.Power() != tt.power {
				t.Errorf("Drive(%v) = (%d, %d), want (%d, %d)",
					tt.speed, w.Direction(), w.Power(), tt.dir, tt.power)
			}
			if uint8(pwm.duty[cfg.PowerPin]) != tt.power {
				t.Errorf("duty = %d, want %d", pwm.duty[cfg.PowerPin], tt.power)
			}
			fwd, back := gpio.levels[cfg.ForwardPin], gpio.levels[cfg.BackwardPin]
			switch tt.dir {
			case Forward:
				if !fwd || back {
					t.Errorf("forward pins = %v/%v", fwd, back)
				}
			case Backward:
				if fwd || !back {
					t.Errorf("backward pins = %v/%v", fwd, back)
				}
			default:
				if fwd || back {
					t.Errorf("neutral pins = %v/%v", fwd, back)
				}
			}
		})
	}
}

func TestWheelInitStopped(t *testing.T) {
	gpio := newMockGPIO()
	pwm := newMockPWM()
	cfg := leftWheelConfig
	cfg.PWMFrequency = 40000
	w := NewWheel(cfg, gpio, pwm)
	if err := w.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if !gpio.outputs[cfg.ForwardPin] || !gpio.outputs[cfg.BackwardPin] {
		t.Error("direction pins not configured as outputs")
	}
	if pwm.freq[cfg.PowerPin] != 40000 {
		t.Errorf("PWM frequency = %d, want 40000", pwm.freq[cfg.PowerPin])
	}
	if w.Direction() != Neutral || w.Power() != 0 {
		t.Error("wheel not stopped after Init")
	}
}

func TestEncoderEdges(t *testing.T) {
	gpio := newMockGPIO()
	w := NewWheel(rightWheelConfig, gpio, newMockPWM())
	if err := w.BindEncoder(); err != nil {
		t.Fatalf("BindEncoder failed: %v", err)
	}

	isr := gpio.interrupts[rightWheelConfig.EncoderA]
	if isr == nil {
		t.Fatal("no interrupt bound to phase A")
	}
	if !gpio.inputs[rightWheelConfig.EncoderB] {
		t.Error("phase B not configured as input")
	}

	gpio.levels[rightWheelConfig.EncoderB] = true
	for i := 0; i < 5; i++ {
		isr()
	}
	gpio.levels[rightWheelConfig.EncoderB] = false
	for i := 0; i < 2; i++ {
		isr()
	}

	if got := w.Ticks.Load(); got != 3 {
		t.Errorf("ticks = %d, want 3", got)
	}
}

func TestEncoderReversed(t *testing.T) {
	c := TickCounter{reversed: true}
	c.Edge(true)
	c.Edge(true)
	c.Edge(false)
	if c.Load() != -1 {
		t.Errorf("reversed ticks = %d, want -1", c.Load())
	}
}
