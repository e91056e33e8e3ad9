package safety

import (
	"strings"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

const DefaultPin = "GPIO27"

// Gate reports whether the emergency stop is asserted.  Implementations
// re-read the hardware on every call; nothing is latched.
type Gate interface {
	IsTripped() bool
}

// GPIO is a safety switch on a pulled-up input line.  The line is tripped
// when it reads TripLevel.
type GPIO struct {
	pin       gpio.PinIn
	tripLevel gpio.Level
}

var _ Gate = (*GPIO)(nil)

// Open initialises the host GPIO drivers and configures the named pin.
func Open(pinName string, tripLevel gpio.Level) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialising periph host drivers")
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, errors.Errorf("no such GPIO pin %q", pinName)
	}
	return New(pin, tripLevel)
}

func New(pin gpio.PinIn, tripLevel gpio.Level) (*GPIO, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "configuring %s as pulled-up input", pin)
	}
	return &GPIO{
		pin:       pin,
		tripLevel: tripLevel,
	}, nil
}

func (g *GPIO) IsTripped() bool {
	return g.pin.Read() == g.tripLevel
}

// ParseLevel accepts "high" or "low".
func ParseLevel(s string) (gpio.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "":
		return gpio.High, nil
	case "low":
		return gpio.Low, nil
	}
	return gpio.Low, errors.Errorf("invalid trip level %q, expected high or low", s)
}

// Never is a gate that is never tripped, for bench runs without a switch.
type Never struct{}

func (Never) IsTripped() bool {
	return false
}
