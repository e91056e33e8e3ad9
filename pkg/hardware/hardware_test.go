package hardware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/controller"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/safety"
)

var (
	_ controller.Actuators = (*Hardware)(nil)
	_ controller.Actuators = (*Dummy)(nil)
)

type fakePWM struct {
	angles  map[int]int
	failOn  int
	closed  bool
	configs int
}

func newFakePWM() *fakePWM {
	return &fakePWM{angles: map[int]int{}, failOn: -1}
}

func (f *fakePWM) Configure() error {
	f.configs++
	return nil
}

func (f *fakePWM) SetServo(port int, value float64) error {
	return f.SetAngle(port, int(value*180))
}

func (f *fakePWM) SetAngle(port int, degrees int) error {
	if port == f.failOn {
		return errors.New("i2c write failed")
	}
	f.angles[port] = degrees
	return nil
}

func (f *fakePWM) Close() error {
	f.closed = true
	return nil
}

type fixedGate bool

func (g fixedGate) IsTripped() bool { return bool(g) }

func TestSetAnglesRoutesToPorts(t *testing.T) {
	pwm := newFakePWM()
	h := NewWith(pwm, 2, 5, safety.Never{}, nil)

	require.NoError(t, h.SetAngles(80, 115))
	assert.Equal(t, map[int]int{2: 80, 5: 115}, pwm.angles)
	assert.False(t, h.IsTripped())
}

func TestSetAnglesReportsFailingServo(t *testing.T) {
	pwm := newFakePWM()
	pwm.failOn = 5
	h := NewWith(pwm, 2, 5, fixedGate(true), nil)

	err := h.SetAngles(80, 115)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "right servo")
	assert.True(t, h.IsTripped())
}

func TestShutdownClosesBoard(t *testing.T) {
	pwm := newFakePWM()
	h := NewWith(pwm, 0, 1, safety.Never{}, nil)
	h.PlaySound("/sounds/ignored.wav")
	h.Shutdown()
	assert.True(t, pwm.closed)
}

func TestDummyTrip(t *testing.T) {
	d := NewDummy()
	assert.False(t, d.IsTripped())
	d.SetTripped(true)
	assert.True(t, d.IsTripped())
	assert.NoError(t, d.SetAngles(1, 2))
}
