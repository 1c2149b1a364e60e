// Package config holds the robot description shared by the firmware and the
// companion client: geometry, pin assignment, control cadence and the
// default parameters of point-targeted actions.
package config

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"rollingbase/core"
	"rollingbase/motion"
)

// ErrInvalidPin is returned for pin names that are neither "gpioN" nor "N"
var ErrInvalidPin = errors.New("invalid pin name")

// Stepper kinds
const (
	StepperPIO      = "pio"
	StepperFourWire = "four-wire"
)

// Config is the complete robot configuration
type Config struct {
	Geometry   GeometryConfig `json:"geometry"`
	RightWheel WheelConfig    `json:"right_wheel"`
	LeftWheel  WheelConfig    `json:"left_wheel"`

	// PWMFrequency is the wheel power carrier in Hz
	PWMFrequency uint32 `json:"pwm_frequency"`

	// ControlPeriodUS is the control tick period in µs
	ControlPeriodUS uint32 `json:"control_period_us"`

	// TelemetryEvery sends the pose every N control ticks
	TelemetryEvery uint32 `json:"telemetry_every"`

	// DisableIdleHold starts the robot with hold-on-idle off
	DisableIdleHold bool `json:"disable_idle_hold"`

	PID      GainsConfig     `json:"pid"`
	GoTo     GoToDefaults    `json:"go_to"`
	Servos   []ServoConfig   `json:"servos"`
	Steppers []StepperConfig `json:"steppers"`
}

// GeometryConfig describes the wheels and their spacing
type GeometryConfig struct {
	EncoderResolution float64 `json:"encoder_resolution"` // ticks per revolution
	WheelDiameter     float64 `json:"wheel_diameter"`
	CenterDistance    float64 `json:"center_distance"`
}

// WheelConfig is one wheel's pins and power calibration
type WheelConfig struct {
	Forward         string  `json:"forward_pin"`
	Backward        string  `json:"backward_pin"`
	PWM             string  `json:"pwm_pin"`
	EncoderA        string  `json:"encoder_a"`
	EncoderB        string  `json:"encoder_b"`
	Correction      float64 `json:"correction"`
	Threshold       uint8   `json:"threshold"`
	EncoderReversed bool    `json:"encoder_reversed"`
}

// GainsConfig holds the closed-loop gains
type GainsConfig struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// GoToDefaults are the parameters used for go-to and orient-to when the
// caller leaves them unset. Tolerances are in encoder ticks.
type GoToDefaults struct {
	MaxSpeed          uint8   `json:"max_speed"`
	NextPositionDelay uint16  `json:"next_position_delay"`
	ActionErrorAuth   uint16  `json:"action_error_auth"`
	TrajPrecision     uint16  `json:"traj_precision"`
	CorrectionSpeed   uint8   `json:"correction_speed"`
	AccelStartSpeed   uint8   `json:"accel_start_speed"`
	AccelDistance     float32 `json:"accel_distance"`
	DecelEndSpeed     uint8   `json:"decel_end_speed"`
	DecelDistance     float32 `json:"decel_distance"`
}

// ServoConfig declares a servo output
type ServoConfig struct {
	Pin string `json:"pin"`
}

// StepperConfig declares an auxiliary stepper. PIO steppers use StepPin and
// DirPin; four-wire steppers use Pins and are addressed by their first pin.
type StepperConfig struct {
	Kind        string    `json:"kind"`
	StepPin     string    `json:"step_pin"`
	DirPin      string    `json:"dir_pin"`
	Pins        [4]string `json:"pins"`
	StepsPerRev int32     `json:"steps_per_rev"`
	RPM         int32     `json:"rpm"`
	IntervalUS  uint32    `json:"interval_us"`
}

// Load parses a JSON configuration and fills unset values with defaults
func Load(jsonData []byte) (*Config, error) {
	var cfg Config

	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration values with the reference
// robot's values
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Geometry.EncoderResolution == 0 {
		cfg.Geometry.EncoderResolution = def.Geometry.EncoderResolution
	}
	if cfg.Geometry.WheelDiameter == 0 {
		cfg.Geometry.WheelDiameter = def.Geometry.WheelDiameter
	}
	if cfg.Geometry.CenterDistance == 0 {
		cfg.Geometry.CenterDistance = def.Geometry.CenterDistance
	}

	defaultWheel(&cfg.RightWheel, def.RightWheel)
	defaultWheel(&cfg.LeftWheel, def.LeftWheel)

	if cfg.PWMFrequency == 0 {
		cfg.PWMFrequency = def.PWMFrequency
	}
	if cfg.ControlPeriodUS == 0 {
		cfg.ControlPeriodUS = def.ControlPeriodUS
	}
	if cfg.TelemetryEvery == 0 {
		cfg.TelemetryEvery = def.TelemetryEvery
	}
	if cfg.PID == (GainsConfig{}) {
		cfg.PID = def.PID
	}

	g := &cfg.GoTo
	if g.MaxSpeed == 0 {
		g.MaxSpeed = def.GoTo.MaxSpeed
	}
	if g.NextPositionDelay == 0 {
		g.NextPositionDelay = def.GoTo.NextPositionDelay
	}
	if g.ActionErrorAuth == 0 {
		g.ActionErrorAuth = def.GoTo.ActionErrorAuth
	}
	if g.TrajPrecision == 0 {
		g.TrajPrecision = def.GoTo.TrajPrecision
	}
	if g.CorrectionSpeed == 0 {
		g.CorrectionSpeed = def.GoTo.CorrectionSpeed
	}

	for i := range cfg.Steppers {
		s := &cfg.Steppers[i]
		if s.Kind == "" {
			s.Kind = StepperPIO
		}
		if s.IntervalUS == 0 {
			s.IntervalUS = core.DefaultStepInterval
		}
		if s.StepsPerRev == 0 {
			s.StepsPerRev = 2048
		}
		if s.RPM == 0 {
			s.RPM = 10
		}
	}
}

func defaultWheel(w *WheelConfig, def WheelConfig) {
	if w.Forward == "" {
		w.Forward = def.Forward
	}
	if w.Backward == "" {
		w.Backward = def.Backward
	}
	if w.PWM == "" {
		w.PWM = def.PWM
	}
	if w.EncoderA == "" {
		w.EncoderA = def.EncoderA
	}
	if w.EncoderB == "" {
		w.EncoderB = def.EncoderB
	}
	if w.Correction == 0 {
		w.Correction = def.Correction
	}
}

// Default returns the reference robot's configuration
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			EncoderResolution: 1024,
			WheelDiameter:     6.1,
			CenterDistance:    27.07,
		},
		RightWheel: WheelConfig{
			Forward:    "gpio0",
			Backward:   "gpio1",
			PWM:        "gpio2",
			EncoderA:   "gpio14",
			EncoderB:   "gpio13",
			Correction: 1.0,
		},
		LeftWheel: WheelConfig{
			Forward:    "gpio4",
			Backward:   "gpio3",
			PWM:        "gpio5",
			EncoderA:   "gpio12",
			EncoderB:   "gpio11",
			Correction: 1.17,
		},
		PWMFrequency:    40000,
		ControlPeriodUS: motion.DefaultPeriod,
		TelemetryEvery:  100,
		PID:             GainsConfig{Kp: 1.5},
		GoTo: GoToDefaults{
			MaxSpeed:          150,
			NextPositionDelay: 100,
			ActionErrorAuth:   20,
			TrajPrecision:     50,
			CorrectionSpeed:   80,
			AccelStartSpeed:   80,
			AccelDistance:     10,
			DecelEndSpeed:     80,
			DecelDistance:     10,
		},
	}
}

// Validate checks pin names and the geometry
func (c *Config) Validate() error {
	if c.Geometry.EncoderResolution <= 0 || c.Geometry.WheelDiameter <= 0 || c.Geometry.CenterDistance <= 0 {
		return errors.New("geometry values must be positive")
	}
	for _, w := range []WheelConfig{c.RightWheel, c.LeftWheel} {
		if _, err := w.Motion(c.PWMFrequency); err != nil {
			return err
		}
	}
	for _, s := range c.Servos {
		if _, err := ParsePin(s.Pin); err != nil {
			return err
		}
	}
	for _, s := range c.Steppers {
		switch s.Kind {
		case StepperPIO:
			if _, err := ParsePin(s.StepPin); err != nil {
				return err
			}
			if _, err := ParsePin(s.DirPin); err != nil {
				return err
			}
		case StepperFourWire:
			for _, p := range s.Pins {
				if _, err := ParsePin(p); err != nil {
					return err
				}
			}
		default:
			return errors.New("unknown stepper kind: " + s.Kind)
		}
	}
	return nil
}

// DriveGeometry converts the wheel description into the motion geometry
func (c *Config) DriveGeometry() motion.Geometry {
	return motion.NewGeometry(c.Geometry.EncoderResolution, c.Geometry.WheelDiameter, c.Geometry.CenterDistance)
}

// ControllerConfig returns the control cadence
func (c *Config) ControllerConfig() motion.ControllerConfig {
	return motion.ControllerConfig{
		Period:         c.ControlPeriodUS,
		TelemetryEvery: c.TelemetryEvery,
	}
}

// Gains returns the closed-loop gains
func (c *Config) Gains() motion.Gains {
	return motion.Gains{Kp: c.PID.Kp, Ki: c.PID.Ki, Kd: c.PID.Kd}
}

// Precision returns the default finish tolerances, in ticks
func (c *Config) Precision() motion.Precision {
	return motion.Precision{
		Delay:      c.GoTo.NextPositionDelay,
		Error:      float64(c.GoTo.ActionErrorAuth),
		Trajectory: float64(c.GoTo.TrajPrecision),
	}
}

// Motion resolves the wheel's pin names
func (w WheelConfig) Motion(pwmFrequency uint32) (motion.WheelConfig, error) {
	var (
		mc  motion.WheelConfig
		err error
	)
	if mc.ForwardPin, err = ParsePin(w.Forward); err != nil {
		return mc, err
	}
	if mc.BackwardPin, err = ParsePin(w.Backward); err != nil {
		return mc, err
	}
	pwm, err := ParsePin(w.PWM)
	if err != nil {
		return mc, err
	}
	mc.PowerPin = core.PWMPin(pwm)
	if mc.EncoderA, err = ParsePin(w.EncoderA); err != nil {
		return mc, err
	}
	if mc.EncoderB, err = ParsePin(w.EncoderB); err != nil {
		return mc, err
	}
	mc.PWMFrequency = pwmFrequency
	mc.Correction = w.Correction
	mc.Threshold = w.Threshold
	mc.EncoderReversed = w.EncoderReversed
	return mc, nil
}

// ParsePin accepts "gpio12", "GPIO12" or "12"
func ParsePin(name string) (core.GPIOPin, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "gpio")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, ErrInvalidPin
	}
	return core.GPIOPin(n), nil
}
