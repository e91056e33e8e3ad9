package gamepad

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/joystick"
)

// scriptedReader plays back events, then blocks until released and fails.
type scriptedReader struct {
	events  []*joystick.Event
	release chan struct{}
	once    sync.Once
}

func newScriptedReader(events ...*joystick.Event) *scriptedReader {
	return &scriptedReader{events: events, release: make(chan struct{})}
}

func (r *scriptedReader) ReadEvent() (*joystick.Event, error) {
	if len(r.events) > 0 {
		e := r.events[0]
		r.events = r.events[1:]
		return e, nil
	}
	<-r.release
	return nil, errors.New("device gone")
}

func (r *scriptedReader) Close() error {
	r.Disconnect()
	return nil
}

func (r *scriptedReader) Disconnect() {
	r.once.Do(func() { close(r.release) })
}

func axis(n uint8, v int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeAxis, Number: n, Value: v}
}

func button(n uint8, v int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeButton, Number: n, Value: v}
}

func TestHandleEvent(t *testing.T) {
	p := New(nil, DefaultMapping())

	p.HandleEvent(button(joystick.ButtonR1, 1))
	p.HandleEvent(axis(joystick.AxisLStickY, 32767))
	p.HandleEvent(axis(joystick.AxisRStickY, -32767))
	p.HandleEvent(axis(joystick.AxisLStickX, 1000))
	p.HandleEvent(button(joystick.ButtonCross, 1))

	assert.Equal(t, Snapshot{
		Connected:     false,
		EnablePressed: true,
		LeftStickY:    127,
		RightStickY:   -128,
	}, p.Snapshot())

	p.HandleEvent(button(joystick.ButtonR1, 0))
	assert.False(t, p.Snapshot().EnablePressed)
}

func TestScaleAxis(t *testing.T) {
	assert.Equal(t, int8(0), scaleAxis(0))
	assert.Equal(t, int8(127), scaleAxis(32767))
	assert.Equal(t, int8(-128), scaleAxis(-32767))
	assert.Equal(t, int8(-128), scaleAxis(-32768))
	assert.Equal(t, int8(3), scaleAxis(1000))
}

func TestNotifyKeepsLatest(t *testing.T) {
	p := New(nil, DefaultMapping())
	p.notify(LinkEvent{Connected: true})
	p.notify(LinkEvent{Connected: false})

	select {
	case e := <-p.LinkEvents():
		assert.False(t, e.Connected)
	default:
		t.Fatal("expected a pending link event")
	}
	select {
	case e := <-p.LinkEvents():
		t.Fatalf("unexpected second event %v", e)
	default:
	}
}

func TestRunConnectAndDisconnect(t *testing.T) {
	reader := newScriptedReader(
		button(joystick.ButtonR1, 1),
		axis(joystick.AxisRStickY, 16384),
	)
	opened := make(chan struct{}, 1)
	var calls int
	var mu sync.Mutex
	open := func() (EventReader, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			opened <- struct{}{}
			return reader, nil
		}
		return nil, errors.New("no device")
	}

	p := New(open, DefaultMapping())
	p.RetryInterval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	<-opened
	e := waitForLinkEvent(t, p)
	require.True(t, e.Connected)
	require.Eventually(t, func() bool {
		s := p.Snapshot()
		return s.EnablePressed && s.RightStickY == 64
	}, time.Second, time.Millisecond)
	assert.True(t, p.Snapshot().Connected)

	reader.Disconnect()
	e = waitForLinkEvent(t, p)
	require.False(t, e.Connected)
	assert.Equal(t, Snapshot{}, p.Snapshot())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type failingReader struct{}

func (failingReader) ReadEvent() (*joystick.Event, error) { return nil, errors.New("no such device") }
func (failingReader) Close() error                        { return nil }

func TestRunBacksOffWhenReadsFail(t *testing.T) {
	var mu sync.Mutex
	opens := 0
	open := func() (EventReader, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++
		return failingReader{}, nil
	}

	p := New(open, DefaultMapping())
	p.RetryInterval = 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, opens, 4)
	assert.False(t, p.Snapshot().Connected)
	select {
	case e := <-p.LinkEvents():
		t.Fatalf("a device that never produced an event should not report %v", e)
	default:
	}
}

func waitForLinkEvent(t *testing.T, p *Pad) LinkEvent {
	t.Helper()
	select {
	case e := <-p.LinkEvents():
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for link event")
	}
	return LinkEvent{}
}
