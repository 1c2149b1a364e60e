package motion

import (
	"sync/atomic"

	"rollingbase/core"
)

// Notifier receives the controller's outbound events. Both methods are
// called from the control tick and must not block.
type Notifier interface {
	ActionFinished(code uint8)
	Odometry(pose Pose)
}

// ControllerConfig sets the control cadence
type ControllerConfig struct {
	// Period between control ticks in µs
	Period uint32

	// TelemetryEvery emits a pose every N control ticks; 0 disables it
	TelemetryEvery uint32
}

// Controller is the fixed-period entry point of the drive pipeline
type Controller struct {
	drive    *Drive
	odom     *Odometry
	notifier Notifier
	cfg      ControllerConfig

	slot Slot

	running  atomic.Bool
	stopReq  atomic.Bool
	overruns atomic.Uint32

	// touched only inside Tick
	idleHold *HoldPosition
	count    uint32

	timer core.Timer
}

// NewController wires the pipeline together
func NewController(drive *Drive, odom *Odometry, notifier Notifier, cfg ControllerConfig) *Controller {
	c := &Controller{
		drive:    drive,
		odom:     odom,
		notifier: notifier,
		cfg:      cfg,
	}
	c.timer.Handler = c.controlEvent
	return c
}

// Install replaces the active action. The previous action is not advanced
// again.
func (c *Controller) Install(a Action) {
	if a == nil {
		c.slot.Install(nil)
		return
	}
	prev, installed := c.slot.Install(a)
	if !installed {
		core.RecordEvent(core.EvtSelfReplace, a.Code(), 0, 0)
		return
	}
	var prevCode uint32 = 0xFF
	if prev != nil {
		prevCode = uint32(prev.Code())
	}
	core.RecordEvent(core.EvtActionInstalled, a.Code(), prevCode, 0)
}

// Active returns the installed action or nil
func (c *Controller) Active() Action {
	return c.slot.Active()
}

// Stop clears the active action, disables idle hold and puts the wheels in
// neutral on the next tick.
func (c *Controller) Stop() {
	c.slot.Install(nil)
	c.drive.SetHoldOnIdle(false)
	c.stopReq.Store(true)
	core.RecordEvent(core.EvtStop, 0, 0, 0)
}

// ResetPosition overwrites the pose on the next tick
func (c *Controller) ResetPosition(p Pose) {
	c.odom.ResetPosition(p)
}

// Drive returns the drive train
func (c *Controller) Drive() *Drive {
	return c.drive
}

// Overruns returns how many ticks were dropped because the previous one
// was still running.
func (c *Controller) Overruns() uint32 {
	return c.overruns.Load()
}

// Tick runs one control period. It never blocks and is not reentrant: a call
// made while another is in progress is dropped.
func (c *Controller) Tick() {
	if !c.running.CompareAndSwap(false, true) {
		n := c.overruns.Add(1)
		core.RecordEvent(core.EvtControlOverrun, 0, n, 0)
		return
	}
	defer c.running.Store(false)

	pose, ticks := c.odom.Sample()

	if c.stopReq.Swap(false) {
		c.idleHold = nil
		c.drive.Stop()
	}

	if a := c.slot.Active(); a != nil {
		c.idleHold = nil
		if !a.IsFinished() {
			a.advance(pose, ticks, c.drive)
		}
		if a.IsFinished() {
			c.slot.clearIf(a)
			if a.base().markReported() {
				core.RecordEvent(core.EvtActionFinished, a.Code(), c.count, 0)
				c.notifier.ActionFinished(a.Code())
			}
		}
	} else if c.drive.HoldOnIdle() {
		if c.idleHold == nil {
			c.idleHold = NewHoldPositionAt(ticks)
			core.RecordEvent(core.EvtHoldArmed, c.idleHold.Code(),
				uint32(ticks.Right), uint32(ticks.Left))
		}
		c.idleHold.advance(pose, ticks, c.drive)
	}

	c.count++
	if c.cfg.TelemetryEvery > 0 && c.count%c.cfg.TelemetryEvery == 0 {
		c.notifier.Odometry(pose)
	}
}

// Start schedules the control tick on the timer list every Period µs
func (c *Controller) Start(now uint32) {
	if c.cfg.Period == 0 {
		c.cfg.Period = DefaultPeriod
	}
	c.timer.WakeTime = now + c.cfg.Period
	core.ScheduleTimer(&c.timer)
}

// Halt removes the control tick from the timer list and stops the wheels
func (c *Controller) Halt() {
	core.CancelTimer(&c.timer)
	c.drive.Stop()
}

// DefaultPeriod is the control period used when none is configured (µs)
const DefaultPeriod = 10000

func (c *Controller) controlEvent(t *core.Timer) uint8 {
	c.Tick()

	// Skip missed periods instead of replaying them.
	next := t.WakeTime + c.cfg.Period
	if int32(core.GetTime()-next) >= 0 {
		next = core.GetTime() + c.cfg.Period
	}
	t.WakeTime = next
	return core.SF_RESCHEDULE
}
