package motion

import "math"

// Steepness is the logistic curve's residual fraction at each end of a ramp
const Steepness = 0.01

// ProfileParams is one logistic ramp: the speed it starts (or ends) at and
// the ramp length in ticks, plus the fitted curve constants.
type ProfileParams struct {
	Offset   float64
	Distance float64

	a, b, c  float64
	fitted   bool
	disabled bool
}

// Enabled reports whether the curve bounds the speed
func (p *ProfileParams) Enabled() bool {
	return p.fitted && !p.disabled
}

// fit computes the curve constants once. A zero distance leaves the curve
// disabled; constants that cannot be evaluated disable it too.
func (p *ProfileParams) fit(maxSpeed float64) {
	if p.fitted || p.Distance == 0 {
		return
	}
	p.fitted = true

	if maxSpeed <= 0 || p.Distance < 0 {
		p.disabled = true
		return
	}

	a := p.Offset / maxSpeed
	arg := (1-a)/Steepness - 1
	if arg <= 0 || math.IsNaN(arg) || math.IsInf(arg, 0) {
		p.disabled = true
		return
	}

	p.a = a
	p.b = p.Distance / 2
	p.c = math.Log(arg) / p.b
}

// Speed evaluates the curve t ticks into the ramp, clamped to [Offset, maxSpeed]
func (p *ProfileParams) Speed(maxSpeed, t float64) float64 {
	if !p.Enabled() {
		return maxSpeed
	}
	s := maxSpeed*(1-p.a)/(1+math.Exp(-p.c*(t-p.b))) + p.a
	lo := p.Offset
	if lo > maxSpeed {
		lo = maxSpeed
	}
	if math.IsNaN(s) {
		return lo
	}
	return clamp(s, lo, maxSpeed)
}

// Constants returns the fitted a, b, c
func (p *ProfileParams) Constants() (a, b, c float64) {
	return p.a, p.b, p.c
}

// SpeedProfile bounds commanded speed by an acceleration ramp from the start
// and a deceleration ramp into the end position.
type SpeedProfile struct {
	MaxSpeed        float64
	CorrectionSpeed float64
	Accel           ProfileParams
	Decel           ProfileParams
	EndTicks        float64
}

// NewSpeedProfile creates a profile. Ramp distances are in ticks.
func NewSpeedProfile(maxSpeed, correctionSpeed, accelOffset, accelDistance, decelOffset, decelDistance float64) *SpeedProfile {
	return &SpeedProfile{
		MaxSpeed:        maxSpeed,
		CorrectionSpeed: correctionSpeed,
		Accel:           ProfileParams{Offset: accelOffset, Distance: accelDistance},
		Decel:           ProfileParams{Offset: decelOffset, Distance: decelDistance},
	}
}

// Fit records the end position and fits both curves. Curves that are
// already fitted are left untouched.
func (s *SpeedProfile) Fit(endTicks float64) {
	s.EndTicks = endTicks
	s.Accel.fit(s.MaxSpeed)
	s.Decel.fit(s.MaxSpeed)
}

// SpeedAt returns the speed magnitude at ticks travelled since the start:
// the lower of the two curves.
func (s *SpeedProfile) SpeedAt(ticks float64) float64 {
	if s.MaxSpeed <= 0 || math.IsNaN(s.MaxSpeed) {
		return 0
	}
	accel := s.Accel.Speed(s.MaxSpeed, ticks)
	decel := s.Decel.Speed(s.MaxSpeed, s.EndTicks-ticks)
	return math.Min(accel, decel)
}
