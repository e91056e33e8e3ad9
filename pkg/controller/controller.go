// Package controller runs the teleoperation control loop: safety line
// first, then the gamepad, then the two servos.
//
// Every iteration resolves its state from scratch in priority order:
//
//	EmergencyStop   safety line tripped; both servos forced to centre,
//	                gamepad ignored.
//	Disconnected    no gamepad link; nothing is written.
//	EnableHeld      enable button held; servos follow the sticks.
//	EnableReleased  enable button released; both servos at centre.
//
// The only state carried between iterations is the status throttling.
package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/anglemap"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/gamepad"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/safety"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/throttle"
)

type State uint8

const (
	EmergencyStop State = iota
	Disconnected
	EnableHeld
	EnableReleased
)

func (s State) String() string {
	switch s {
	case EmergencyStop:
		return "ESTOP"
	case Disconnected:
		return "NO PAD"
	case EnableHeld:
		return "ENABLED"
	case EnableReleased:
		return "NEUTRAL"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Status message classes, each throttled independently.
const (
	ClassEStop      throttle.Class = "estop"
	ClassHeld       throttle.Class = "held"
	ClassReleased   throttle.Class = "released"
	ClassWriteError throttle.Class = "write-error"
)

func DefaultIntervals() map[throttle.Class]time.Duration {
	return map[throttle.Class]time.Duration{
		ClassEStop:      500 * time.Millisecond,
		ClassHeld:       200 * time.Millisecond,
		ClassReleased:   500 * time.Millisecond,
		ClassWriteError: time.Second,
	}
}

const DefaultPeriod = 10 * time.Millisecond

// Report describes what one iteration did.
type Report struct {
	State State
	Left  int
	Right int
	// Wrote is false when the servos were left untouched.
	Wrote bool
}

// Actuators drives the left and right servos.
type Actuators interface {
	SetAngles(left, right int) error
}

type Observer interface {
	Observe(r Report)
}

type Alerter interface {
	PlaySound(path string)
}

// Sounds are played on gamepad link changes; empty paths are skipped.
type Sounds struct {
	Connect    string `yaml:"connect"`
	Disconnect string `yaml:"disconnect"`
}

type Options struct {
	// Status receives human-readable status lines.  Defaults to stdout.
	Status    io.Writer
	Intervals map[throttle.Class]time.Duration
	Observer  Observer
	Alerter   Alerter
	Sounds    Sounds
}

type Controller struct {
	left, right anglemap.Channel

	gate      safety.Gate
	pad       gamepad.Source
	actuators Actuators

	log      io.Writer
	status   *throttle.Emitter
	observer Observer
	alerter  Alerter
	sounds   Sounds
}

func New(
	left, right anglemap.Channel,
	gate safety.Gate,
	pad gamepad.Source,
	actuators Actuators,
	opts Options,
) *Controller {
	if opts.Status == nil {
		opts.Status = os.Stdout
	}
	if opts.Intervals == nil {
		opts.Intervals = DefaultIntervals()
	}
	return &Controller{
		left:      left,
		right:     right,
		gate:      gate,
		pad:       pad,
		actuators: actuators,
		log:       opts.Status,
		status:    throttle.New(opts.Status, opts.Intervals),
		observer:  opts.Observer,
		alerter:   opts.Alerter,
		sounds:    opts.Sounds,
	}
}

// Run steps the loop every period until ctx is done, then parks both servos
// at centre.
func (c *Controller) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.log, "Control loop stopping, servos to neutral")
			c.writeNeutral(EnableReleased, time.Now())
			return
		case now := <-ticker.C:
			c.Step(now)
		}
	}
}

// Step runs one iteration of the loop at time now.
func (c *Controller) Step(now time.Time) Report {
	c.drainLinkEvents()
	r := c.resolve(now)
	if c.observer != nil {
		c.observer.Observe(r)
	}
	return r
}

func (c *Controller) resolve(now time.Time) Report {
	if c.gate.IsTripped() {
		r := c.writeNeutral(EmergencyStop, now)
		c.status.Println(ClassEStop, now, "EMERGENCY STOP PRESSED! Servos stopped.")
		return r
	}

	pad := c.pad.Snapshot()
	if !pad.Connected {
		return Report{State: Disconnected}
	}

	if pad.EnablePressed {
		// Cross-wired: the left servo follows the right stick (inverted) and
		// the right servo follows the left stick.
		left := c.left.Map(anglemap.Invert(pad.RightStickY))
		right := c.right.Map(pad.LeftStickY)
		r := c.write(EnableHeld, left, right, now)
		c.status.Printf(ClassHeld, now, "[ENABLE HELD] Left: %d | Right: %d\n", left, right)
		return r
	}

	r := c.writeNeutral(EnableReleased, now)
	c.status.Println(ClassReleased, now, "[ENABLE RELEASED] Servos in neutral.")
	return r
}

func (c *Controller) writeNeutral(state State, now time.Time) Report {
	return c.write(state, c.left.Neutral(), c.right.Neutral(), now)
}

func (c *Controller) write(state State, left, right int, now time.Time) Report {
	if err := c.actuators.SetAngles(left, right); err != nil {
		c.status.Println(ClassWriteError, now, "Failed to set servo angles!", err)
	}
	return Report{State: state, Left: left, Right: right, Wrote: true}
}

func (c *Controller) drainLinkEvents() {
	for {
		select {
		case e := <-c.pad.LinkEvents():
			fmt.Fprintln(c.log, e)
			if c.alerter == nil {
				continue
			}
			if e.Connected {
				c.alerter.PlaySound(c.sounds.Connect)
			} else {
				c.alerter.PlaySound(c.sounds.Disconnect)
			}
		default:
			return
		}
	}
}
