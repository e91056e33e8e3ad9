package pca9685

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr   = 0x40
	DefaultDevice = "/dev/i2c-1"

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.

	NumPorts = 16

	PWMPeriod = 20 * time.Millisecond
	PWMMax    = 4095

	// Hobby servo convention: 544us at 0 degrees, 2400us at 180 degrees.
	DefaultMinPulse = 544 * time.Microsecond
	DefaultMaxPulse = 2400 * time.Microsecond
	DefaultTravel   = 180
)

type Interface interface {
	Configure() error
	// SetServo sets a servo position as a fraction of its travel, 0.0-1.0.
	SetServo(port int, value float64) error
	// SetAngle sets a servo position in degrees.
	SetAngle(port int, degrees int) error
	Close() error
}

// Pulse describes how servo travel maps onto pulse widths.
type Pulse struct {
	Min    time.Duration `yaml:"min"`
	Max    time.Duration `yaml:"max"`
	Travel int           `yaml:"travel"`
}

func DefaultPulse() Pulse {
	return Pulse{
		Min:    DefaultMinPulse,
		Max:    DefaultMaxPulse,
		Travel: DefaultTravel,
	}
}

// Fraction converts an angle to a fraction of travel, clamped to [0, 1].
func (p Pulse) Fraction(degrees int) float64 {
	if p.Travel <= 0 {
		return 0
	}
	return clamp(float64(degrees) / float64(p.Travel))
}

// Counts converts a fraction of travel to a PWM off-count.
func (p Pulse) Counts(value float64) uint16 {
	minPWM := float64(PWMMax * p.Min / PWMPeriod)
	maxPWM := float64(PWMMax * p.Max / PWMPeriod)
	return uint16(minPWM + clamp(value)*(maxPWM-minPWM))
}

type PCA9685 struct {
	dev   *i2c.Device
	pulse Pulse
}

func New(deviceFile string, pulse Pulse) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, DefaultAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening PCA9685 on %s", deviceFile)
	}
	return &PCA9685{
		dev:   dev,
		pulse: pulse,
	}, nil
}

func (p *PCA9685) Configure() (err error) {
	// Put device to sleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	// Update pre-scaler for 50Hz.
	err = p.dev.WriteReg(RegPreScale, []byte{0x79})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable.
	err = p.dev.WriteReg(RegMode1, []byte{0x81})
	return
}

func (p *PCA9685) SetServo(port int, value float64) error {
	if port < 0 || port >= NumPorts {
		return errors.Errorf("servo port %d out of range", port)
	}
	pwmValue := p.pulse.Counts(value)
	addr := RegLEDBase + port*4
	return p.dev.WriteReg(byte(addr), []byte{0, 0, byte(pwmValue & 0xff), byte(pwmValue >> 8)})
}

func (p *PCA9685) SetAngle(port int, degrees int) error {
	return p.SetServo(port, p.pulse.Fraction(degrees))
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	} else if v > 1 {
		return 1
	}
	return v
}
