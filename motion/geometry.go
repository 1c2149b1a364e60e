// Package motion implements the closed-loop drive of a differential-drive
// base: wheel outputs, encoder ticks, odometry, speed profiles and the
// navigation actions advanced by the fixed-period controller.
package motion

import "math"

// Geometry holds the kinematic constants of the base. It is built once at
// startup and never mutated.
type Geometry struct {
	EncoderResolution float64 // ticks per wheel revolution
	WheelPerimeter    float64 // distance units per revolution
	TrackRadius       float64 // half the distance between wheel contact points
}

// NewGeometry derives the geometry from wheel diameter and centre distance
func NewGeometry(encoderResolution, wheelDiameter, centerDistance float64) Geometry {
	return Geometry{
		EncoderResolution: encoderResolution,
		WheelPerimeter:    math.Pi * wheelDiameter,
		TrackRadius:       centerDistance / 2,
	}
}

// TicksPerUnit converts a distance into encoder ticks
func (g Geometry) TicksPerUnit() float64 {
	if g.WheelPerimeter == 0 {
		return 0
	}
	return g.EncoderResolution / g.WheelPerimeter
}

// UnitsPerTick converts encoder ticks into distance
func (g Geometry) UnitsPerTick() float64 {
	if g.EncoderResolution == 0 {
		return 0
	}
	return g.WheelPerimeter / g.EncoderResolution
}

// Point is a position in the world frame
type Point struct {
	X, Y float64
}

// Pose is the robot position and heading in the world frame.
// Theta is in radians, normalised to (-π, π].
type Pose struct {
	X, Y  float64
	Theta float64
}

// Point returns the position part of the pose
func (p Pose) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// Ticks is a snapshot of both wheels' encoder counts
type Ticks struct {
	Right, Left int32
}

// Sub returns the per-wheel difference t - o
func (t Ticks) Sub(o Ticks) Ticks {
	return Ticks{Right: t.Right - o.Right, Left: t.Left - o.Left}
}

// NormalizeAngle wraps a into (-π, π]
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v int32) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}
