package session

// Generation identifies one run of the countdown. Every Start and Cancel
// moves to a new generation, so ticks scheduled for an older run are stale.
type Generation uint64

// TickResult reports what one tick did to the countdown.
type TickResult struct {
	// Stale is set when the tick belongs to a cancelled or replaced run.
	Stale     bool
	Remaining int
	// Expired is set on the tick that reaches zero and on no other.
	Expired bool
}

// Countdown is a one-second logical countdown. It does not own a clock:
// the caller delivers ticks tagged with the generation they were
// scheduled for.
type Countdown struct {
	gen       Generation
	total     int
	remaining int
	live      bool
}

// Start replaces any running countdown with a new one of the given length.
func (c *Countdown) Start(seconds int) Generation {
	if seconds < 0 {
		seconds = 0
	}
	c.gen++
	c.total = seconds
	c.remaining = seconds
	c.live = true
	return c.gen
}

// Cancel invalidates the running countdown, if any.
func (c *Countdown) Cancel() {
	c.gen++
	c.live = false
}

// Tick advances the countdown by one second if gen is current.
func (c *Countdown) Tick(gen Generation) TickResult {
	if gen != c.gen || !c.live {
		return TickResult{Stale: true, Remaining: c.remaining}
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		return TickResult{Remaining: c.remaining}
	}
	c.live = false
	return TickResult{Remaining: 0, Expired: true}
}

// Generation returns the current generation.
func (c *Countdown) Generation() Generation { return c.gen }

// Live reports whether a countdown is running.
func (c *Countdown) Live() bool { return c.live }

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Total returns the length of the current run.
func (c *Countdown) Total() int { return c.total }

// Progress returns the elapsed fraction of the current run.
func (c *Countdown) Progress() float64 {
	return Progress(c.total-c.remaining, c.total)
}

func (c *Countdown) snapshot() Timer {
	return Timer{Gen: c.gen, Total: c.total, Remaining: c.remaining, Live: c.live}
}
