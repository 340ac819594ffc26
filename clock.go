package stagecraft

import (
	"math"
	"slices"
	"time"
)

// TimerEventConfig describes a timed callback.
type TimerEventConfig struct {
	Delay time.Duration
	// Repeat is the number of extra dispatches; -1 repeats forever.
	Repeat int
	// Loop repeats forever.
	Loop     bool
	Callback func()
	// StartAt pre-fills the elapsed time.
	StartAt   time.Duration
	TimeScale float64
	Paused    bool
}

// TimerEvent is a callback scheduled on a scene Clock.
type TimerEvent struct {
	Delay     time.Duration
	Callback  func()
	TimeScale float64
	Paused    bool

	elapsed       time.Duration
	repeatCount   int
	hasDispatched bool
}

func newTimerEvent(cfg TimerEventConfig) *TimerEvent {
	ev := &TimerEvent{
		Delay:     cfg.Delay,
		Callback:  cfg.Callback,
		TimeScale: cfg.TimeScale,
		Paused:    cfg.Paused,
		elapsed:   cfg.StartAt,
	}
	if ev.TimeScale <= 0 {
		ev.TimeScale = 1
	}
	if cfg.Loop || cfg.Repeat < 0 {
		ev.repeatCount = math.MaxInt
	} else {
		ev.repeatCount = cfg.Repeat
	}
	return ev
}

// Elapsed returns the time since the last dispatch.
func (ev *TimerEvent) Elapsed() time.Duration { return ev.elapsed }

// Progress returns the fraction of the current delay that has passed.
func (ev *TimerEvent) Progress() float64 {
	if ev.Delay <= 0 {
		return 1
	}
	return float64(ev.elapsed) / float64(ev.Delay)
}

// RepeatCount returns the remaining repeats.
func (ev *TimerEvent) RepeatCount() int { return ev.repeatCount }

// HasDispatched reports whether the callback ran for the current delay.
func (ev *TimerEvent) HasDispatched() bool { return ev.hasDispatched }

// Remove stops the event; with dispatch it fires the callback one last time.
func (ev *TimerEvent) Remove(dispatch bool) {
	ev.elapsed = ev.Delay
	ev.hasDispatched = !dispatch
	ev.repeatCount = 0
}

// Clock schedules timer events against scene time. It advances on the
// scene's update event, so it stops while the scene is paused or asleep.
type Clock struct {
	// Now is the game time of the last update.
	Now       time.Duration
	TimeScale float64
	Paused    bool

	sys              *Systems
	active           []*TimerEvent
	pendingInsertion []*TimerEvent
	pendingRemoval   []*TimerEvent
	handles          []ListenerHandle
}

// NewClock creates a stopped clock.
func NewClock() *Clock {
	return &Clock{TimeScale: 1}
}

// Boot implements ScenePluginInstance.
func (c *Clock) Boot(sys *Systems) {
	c.sys = sys
	c.handles = append(c.handles,
		sys.events.On(EventPreUpdate, func(...any) { c.preUpdate() }),
		sys.events.On(EventUpdate, func(args ...any) {
			t, _ := args[0].(time.Duration)
			delta, _ := args[1].(time.Duration)
			c.Update(t, delta)
		}),
	)
}

// AddEvent schedules an event. A looping event needs a positive delay.
func (c *Clock) AddEvent(cfg TimerEventConfig) *TimerEvent {
	if cfg.Delay <= 0 && (cfg.Loop || cfg.Repeat != 0) {
		if c.sys != nil {
			c.sys.logger.Warn("repeating timer event needs a positive delay")
		}
		return nil
	}
	ev := newTimerEvent(cfg)
	c.pendingInsertion = append(c.pendingInsertion, ev)
	return ev
}

// DelayedCall runs fn once after delay.
func (c *Clock) DelayedCall(delay time.Duration, fn func()) *TimerEvent {
	return c.AddEvent(TimerEventConfig{Delay: delay, Callback: fn})
}

// RemoveEvent unschedules ev.
func (c *Clock) RemoveEvent(ev *TimerEvent) {
	c.pendingInsertion = slices.DeleteFunc(c.pendingInsertion, func(e *TimerEvent) bool { return e == ev })
	c.pendingRemoval = append(c.pendingRemoval, ev)
}

// RemoveAllEvents unschedules every event.
func (c *Clock) RemoveAllEvents() {
	c.pendingRemoval = append(c.pendingRemoval, c.active...)
	c.pendingInsertion = nil
}

// Len returns the number of scheduled events, including ones not yet active.
func (c *Clock) Len() int { return len(c.active) + len(c.pendingInsertion) }

func (c *Clock) preUpdate() {
	if len(c.pendingRemoval) > 0 {
		c.active = slices.DeleteFunc(c.active, func(e *TimerEvent) bool {
			return slices.Contains(c.pendingRemoval, e)
		})
		c.pendingRemoval = nil
	}
	if len(c.pendingInsertion) > 0 {
		c.active = append(c.active, c.pendingInsertion...)
		c.pendingInsertion = nil
	}
}

// Update advances every active event by delta scaled by TimeScale.
func (c *Clock) Update(t, delta time.Duration) {
	c.Now = t
	if c.Paused {
		return
	}
	delta = time.Duration(float64(delta) * c.TimeScale)

	for _, ev := range c.active {
		if ev.Paused || slices.Contains(c.pendingRemoval, ev) {
			continue
		}
		ev.elapsed += time.Duration(float64(delta) * ev.TimeScale)
		if ev.elapsed < ev.Delay {
			continue
		}

		remainder := ev.elapsed - ev.Delay
		ev.elapsed = ev.Delay
		if !ev.hasDispatched && ev.Callback != nil {
			ev.hasDispatched = true
			ev.Callback()
		}

		if ev.repeatCount > 0 {
			ev.repeatCount--
			for remainder >= ev.Delay && ev.repeatCount > 0 {
				if ev.Callback != nil {
					ev.Callback()
				}
				remainder -= ev.Delay
				ev.repeatCount--
			}
			ev.elapsed = remainder
			ev.hasDispatched = false
		} else if ev.hasDispatched || ev.Callback == nil {
			c.pendingRemoval = append(c.pendingRemoval, ev)
		}
	}
}

// Shutdown implements PluginShutdowner.
func (c *Clock) Shutdown() {
	c.active = nil
	c.pendingInsertion = nil
	c.pendingRemoval = nil
}

// Destroy implements ScenePluginInstance.
func (c *Clock) Destroy() {
	c.Shutdown()
	for _, h := range c.handles {
		h.Remove()
	}
	c.handles = nil
}
