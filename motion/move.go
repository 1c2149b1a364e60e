package motion

import (
	"math"

	"rollingbase/protocol"
)

// headingSaturation is the heading error at which steering correction
// reaches full correction speed.
const headingSaturation = math.Pi / 6

// MoveParams are the shared parameters of point-targeted actions.
// Speeds are wheel power units; ramp distances are in distance units.
type MoveParams struct {
	Backward        bool
	MaxSpeed        float64
	CorrectionSpeed float64
	Precision       Precision

	AccelStartSpeed float64
	AccelDistance   float64
	DecelEndSpeed   float64
	DecelDistance   float64
}

func (p MoveParams) profile(ticksPerUnit float64) *SpeedProfile {
	return NewSpeedProfile(p.MaxSpeed, p.CorrectionSpeed,
		p.AccelStartSpeed, p.AccelDistance*ticksPerUnit,
		p.DecelEndSpeed, p.DecelDistance*ticksPerUnit)
}

// travelled returns the mean absolute wheel travel in ticks
func travelled(start, now Ticks) float64 {
	d := now.Sub(start)
	return (abs32(d.Right) + abs32(d.Left)) / 2
}

// MoveToPoint drives to a target along a straight line, forwards or
// backwards, steering toward the target as it goes.
type MoveToPoint struct {
	lifecycle

	Target Point
	Params MoveParams

	profile    *SpeedProfile
	start      Point
	startTicks Ticks
	settle     settle
}

// NewMoveToPoint creates a move to target
func NewMoveToPoint(target Point, params MoveParams) *MoveToPoint {
	return &MoveToPoint{Target: target, Params: params}
}

// Code implements Action
func (m *MoveToPoint) Code() uint8 { return protocol.MsgGoTo }

func (m *MoveToPoint) advance(pose Pose, ticks Ticks, d *Drive) {
	tpu := d.Geometry.TicksPerUnit()
	here := pose.Point()

	if m.state == NotStarted {
		m.start = here
		m.startTicks = ticks
		m.profile = m.Params.profile(tpu)
		m.profile.Fit(distance(here, m.Target) * tpu)
		m.begin()
	}

	if m.arrived(here, tpu) {
		d.Stop()
		if m.settle.inside(m.Params.Precision) {
			m.finish()
		}
		return
	}
	m.settle.outside()

	base := m.profile.SpeedAt(travelled(m.startTicks, ticks))

	bearing := math.Atan2(m.Target.Y-here.Y, m.Target.X-here.X)
	if m.Params.Backward {
		bearing += math.Pi
		base = -base
	}
	e := NormalizeAngle(bearing - pose.Theta)

	// Target behind the drive direction after an overshoot: back up to it.
	if math.Abs(e) > math.Pi/2 {
		base = -base
		e = NormalizeAngle(e + math.Pi)
	}

	corr := m.Params.CorrectionSpeed * clamp(e/headingSaturation, -1, 1)
	d.Run(base+corr, base-corr)
}

// arrived reports whether here is inside the position tolerance and inside
// the trajectory corridor. A zero Trajectory disables the corridor.
func (m *MoveToPoint) arrived(here Point, tpu float64) bool {
	p := m.Params.Precision
	if distance(here, m.Target)*tpu > p.Error {
		return false
	}
	return p.Trajectory <= 0 || m.lateral(here)*tpu <= p.Trajectory
}

// lateral returns the distance from p to the start-to-target line
func (m *MoveToPoint) lateral(p Point) float64 {
	dx, dy := m.Target.X-m.start.X, m.Target.Y-m.start.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return distance(p, m.Target)
	}
	return math.Abs(dx*(p.Y-m.start.Y)-dy*(p.X-m.start.X)) / length
}

// OrientToPoint rotates in place until the robot faces the target, or turns
// its back to it when Backward is set.
type OrientToPoint struct {
	lifecycle

	Target Point
	Params MoveParams

	profile    *SpeedProfile
	startTicks Ticks
	settle     settle
}

// NewOrientToPoint creates a rotation toward target
func NewOrientToPoint(target Point, params MoveParams) *OrientToPoint {
	return &OrientToPoint{Target: target, Params: params}
}

// Code implements Action
func (o *OrientToPoint) Code() uint8 { return protocol.MsgOrientToPoint }

func (o *OrientToPoint) advance(pose Pose, ticks Ticks, d *Drive) {
	tpu := d.Geometry.TicksPerUnit()
	radius := d.Geometry.TrackRadius

	e := o.headingError(pose, tpu)
	if o.state == NotStarted {
		o.startTicks = ticks
		o.profile = o.Params.profile(tpu)
		o.profile.Fit(math.Abs(e) * radius * tpu)
		o.begin()
	}

	if math.Abs(e)*radius*tpu <= o.Params.Precision.Error {
		d.Stop()
		if o.settle.inside(o.Params.Precision) {
			o.finish()
		}
		return
	}
	o.settle.outside()

	speed := o.profile.SpeedAt(travelled(o.startTicks, ticks))
	if e < 0 {
		speed = -speed
	}
	d.Run(speed, -speed)
}

// headingError is the turn needed to face the target. A target inside the
// position tolerance gives no error.
func (o *OrientToPoint) headingError(pose Pose, tpu float64) float64 {
	here := pose.Point()
	if distance(here, o.Target)*tpu <= o.Params.Precision.Error {
		return 0
	}
	bearing := math.Atan2(o.Target.Y-here.Y, o.Target.X-here.X)
	if o.Params.Backward {
		bearing += math.Pi
	}
	return NormalizeAngle(bearing - pose.Theta)
}
