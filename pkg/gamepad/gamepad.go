package gamepad

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/joystick"
)

// Snapshot is the gamepad state as seen by one control loop iteration.
type Snapshot struct {
	Connected     bool
	EnablePressed bool
	LeftStickY    int8
	RightStickY   int8
}

// LinkEvent is posted when the gamepad link comes up or goes down.
type LinkEvent struct {
	Connected bool
}

func (e LinkEvent) String() string {
	if e.Connected {
		return "Connected!"
	}
	return "Disconnected!"
}

type Source interface {
	// Snapshot returns the last known state without blocking.
	Snapshot() Snapshot
	// LinkEvents delivers connect/disconnect notifications.  At most one is
	// buffered; readers must not block on it.
	LinkEvents() <-chan LinkEvent
}

// Mapping selects which joystick button and axes feed the snapshot.
type Mapping struct {
	EnableButton uint8 `yaml:"enable_button"`
	LeftStickY   uint8 `yaml:"left_stick_y"`
	RightStickY  uint8 `yaml:"right_stick_y"`
}

func DefaultMapping() Mapping {
	return Mapping{
		EnableButton: joystick.ButtonR1,
		LeftStickY:   joystick.AxisLStickY,
		RightStickY:  joystick.AxisRStickY,
	}
}

type EventReader interface {
	ReadEvent() (*joystick.Event, error)
	Close() error
}

type Opener func() (EventReader, error)

// DeviceOpener opens a Linux joystick device.
func DeviceOpener(device string) Opener {
	return func() (EventReader, error) {
		return joystick.Open(device)
	}
}

const DefaultRetryInterval = time.Second

// Pad tracks the state of one gamepad.  Run updates it from the link
// goroutine; Snapshot may be called concurrently from the control loop.
type Pad struct {
	open          Opener
	mapping       Mapping
	RetryInterval time.Duration

	connected   atomic.Bool
	enable      atomic.Bool
	leftStickY  atomic.Int32
	rightStickY atomic.Int32

	linkEvents chan LinkEvent
}

var _ Source = (*Pad)(nil)

func New(open Opener, mapping Mapping) *Pad {
	return &Pad{
		open:          open,
		mapping:       mapping,
		RetryInterval: DefaultRetryInterval,
		linkEvents:    make(chan LinkEvent, 1),
	}
}

func (p *Pad) Snapshot() Snapshot {
	return Snapshot{
		Connected:     p.connected.Load(),
		EnablePressed: p.enable.Load(),
		LeftStickY:    int8(p.leftStickY.Load()),
		RightStickY:   int8(p.rightStickY.Load()),
	}
}

func (p *Pad) LinkEvents() <-chan LinkEvent {
	return p.linkEvents
}

// Run keeps the link up until ctx is done, reopening the device whenever it
// goes away.  Reopening is paced by RetryInterval.
func (p *Pad) Run(ctx context.Context) {
	firstLog := true
	for ctx.Err() == nil {
		r, err := p.open()
		if err != nil {
			if firstLog {
				fmt.Printf("Waiting for joystick: %v.\n", err)
				firstLog = false
			}
			p.waitToRetry(ctx)
			continue
		}
		firstLog = true

		err = p.readUntilFailure(ctx, r)
		if ctx.Err() != nil {
			return
		}
		fmt.Printf("Joystick failed: %v\n", err)
		p.waitToRetry(ctx)
	}
}

func (p *Pad) waitToRetry(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.RetryInterval):
	}
}

// readUntilFailure applies events from r until it fails.  The pad only
// counts as connected once the device has produced an event.
func (p *Pad) readUntilFailure(ctx context.Context, r EventReader) error {
	// Closing the device is the only way to unblock a pending read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = r.Close()
	}()

	connected := false
	defer func() {
		if connected {
			p.setConnected(false)
		}
	}()

	for ctx.Err() == nil {
		event, err := r.ReadEvent()
		if err != nil {
			return err
		}
		p.HandleEvent(event)
		if !connected {
			p.setConnected(true)
			connected = true
		}
	}
	return ctx.Err()
}

// HandleEvent applies one joystick event to the pad state.
func (p *Pad) HandleEvent(event *joystick.Event) {
	switch event.Type {
	case joystick.EventTypeButton:
		if event.Number == p.mapping.EnableButton {
			p.enable.Store(event.Value != 0)
		}
	case joystick.EventTypeAxis:
		switch event.Number {
		case p.mapping.LeftStickY:
			p.leftStickY.Store(int32(scaleAxis(event.Value)))
		case p.mapping.RightStickY:
			p.rightStickY.Store(int32(scaleAxis(event.Value)))
		}
	}
}

func (p *Pad) setConnected(connected bool) {
	if !connected {
		// Don't let stale inputs survive into the next connection.
		p.enable.Store(false)
		p.leftStickY.Store(0)
		p.rightStickY.Store(0)
	}
	p.connected.Store(connected)
	p.notify(LinkEvent{Connected: connected})
}

// notify posts e without ever blocking, replacing an unread older event.
func (p *Pad) notify(e LinkEvent) {
	for {
		select {
		case p.linkEvents <- e:
			return
		default:
		}
		select {
		case <-p.linkEvents:
		default:
		}
	}
}

// scaleAxis narrows a joystick axis reading to the int8 range of a gamepad
// stick.
func scaleAxis(v int16) int8 {
	return int8(v >> 8)
}
