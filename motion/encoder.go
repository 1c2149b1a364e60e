package motion

import "rollingbase/core"

// TickCounter accumulates one wheel's encoder edges since boot.
//
// It has a single writer, the wheel's encoder interrupt. Readers outside that
// interrupt must hold a critical section (core.DisableInterrupts) while
// calling Load.
type TickCounter struct {
	count    int32
	reversed bool
}

// Edge records one edge of phase A given the level of phase B
func (c *TickCounter) Edge(phaseB bool) {
	if phaseB != c.reversed {
		c.count++
	} else {
		c.count--
	}
}

// Load returns the raw count
func (c *TickCounter) Load() int32 {
	return c.count
}

// BindEncoder configures the wheel's encoder pins and attaches the edge
// handler to rising edges of phase A.
func (w *Wheel) BindEncoder() error {
	gpio := w.gpio
	a, b := w.cfg.EncoderA, w.cfg.EncoderB
	if err := gpio.ConfigureInputPullUp(a); err != nil {
		return err
	}
	if err := gpio.ConfigureInputPullUp(b); err != nil {
		return err
	}

	counter := &w.Ticks
	return gpio.SetRisingInterrupt(a, func() {
		counter.Edge(gpio.ReadPin(b))
	})
}

// readTicks takes a consistent snapshot of both counters
func readTicks(right, left *TickCounter) Ticks {
	state := core.DisableInterrupts()
	t := Ticks{Right: right.Load(), Left: left.Load()}
	core.RestoreInterrupts(state)
	return t
}
