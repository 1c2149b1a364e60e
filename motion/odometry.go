package motion

import (
	"math"
	"sync/atomic"
)

// Odometry integrates the robot pose from wheel ticks. Sample must only be
// called from the control tick; ResetPosition may be called from anywhere.
type Odometry struct {
	geom        Geometry
	right, left *TickCounter

	pose    Pose
	last    Ticks
	primed  bool
	pending atomic.Pointer[Pose]
}

// NewOdometry creates odometry over the two wheels' counters
func NewOdometry(geom Geometry, right, left *TickCounter) *Odometry {
	return &Odometry{
		geom:  geom,
		right: right,
		left:  left,
	}
}

// ResetPosition overwrites the pose on the next sample. Tick state is kept.
func (o *Odometry) ResetPosition(p Pose) {
	p.Theta = NormalizeAngle(p.Theta)
	o.pending.Store(&p)
}

// Sample reads both counters, integrates the delta since the previous
// sample and returns the new pose with the tick snapshot.
func (o *Odometry) Sample() (Pose, Ticks) {
	ticks := readTicks(o.right, o.left)
	if !o.primed {
		o.last = ticks
		o.primed = true
	}

	delta := ticks.Sub(o.last)
	o.last = ticks

	if p := o.pending.Swap(nil); p != nil {
		o.pose = *p
		return o.pose, ticks
	}

	o.pose = o.integrate(o.pose, delta)
	return o.pose, ticks
}

// integrate applies one tick delta using the heading at the start of the
// interval.
func (o *Odometry) integrate(p Pose, d Ticks) Pose {
	upt := o.geom.UnitsPerTick()
	dr := float64(d.Right) * upt
	dl := float64(d.Left) * upt

	linear := (dr + dl) / 2
	var angular float64
	if o.geom.TrackRadius > 0 {
		angular = (dr - dl) / (2 * o.geom.TrackRadius)
	}

	p.X += linear * math.Cos(p.Theta)
	p.Y += linear * math.Sin(p.Theta)
	p.Theta = NormalizeAngle(p.Theta + angular)
	return p
}
