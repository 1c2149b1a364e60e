package motion

import "sync/atomic"

// Gains are the closed-loop gains. Only Kp is consulted, by position hold.
type Gains struct {
	Kp, Ki, Kd float64
}

// Drive is the drive train handed to actions on every tick
type Drive struct {
	Right, Left *Wheel
	Geometry    Geometry

	holdOnIdle atomic.Bool
	gains      atomic.Pointer[Gains]
}

// NewDrive pairs two wheels with the base geometry
func NewDrive(right, left *Wheel, geom Geometry, gains Gains) *Drive {
	d := &Drive{
		Right:    right,
		Left:     left,
		Geometry: geom,
	}
	d.SetGains(gains)
	d.holdOnIdle.Store(true)
	return d
}

// SetGains replaces the closed-loop gains
func (d *Drive) SetGains(g Gains) {
	d.gains.Store(&g)
}

// Gains returns the current gains
func (d *Drive) Gains() Gains {
	return *d.gains.Load()
}

// SetHoldOnIdle selects whether the base holds position with no action
func (d *Drive) SetHoldOnIdle(on bool) {
	d.holdOnIdle.Store(on)
}

// HoldOnIdle reports whether idle hold is enabled
func (d *Drive) HoldOnIdle() bool {
	return d.holdOnIdle.Load()
}

// Run drives both wheels with signed speeds
func (d *Drive) Run(right, left float64) {
	d.Right.Drive(right)
	d.Left.Drive(left)
}

// Stop puts both wheels in neutral
func (d *Drive) Stop() {
	d.Right.Stop()
	d.Left.Stop()
}
