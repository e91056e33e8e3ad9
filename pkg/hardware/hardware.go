package hardware

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/pca9685"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/safety"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/sound"
)

type Config struct {
	I2CDevice     string
	Pulse         pca9685.Pulse
	LeftPort      int
	RightPort     int
	SafetyPin     string
	SafetyTripsOn gpio.Level
}

type Hardware struct {
	pwm       pca9685.Interface
	leftPort  int
	rightPort int

	gate  safety.Gate
	sound *sound.Player
}

var _ Interface = (*Hardware)(nil)

func New(cfg Config) (*Hardware, error) {
	pwm, err := pca9685.New(cfg.I2CDevice, cfg.Pulse)
	if err != nil {
		return nil, err
	}
	if err := pwm.Configure(); err != nil {
		_ = pwm.Close()
		return nil, errors.Wrap(err, "configuring PCA9685")
	}
	gate, err := safety.Open(cfg.SafetyPin, cfg.SafetyTripsOn)
	if err != nil {
		_ = pwm.Close()
		return nil, err
	}
	return NewWith(pwm, cfg.LeftPort, cfg.RightPort, gate, sound.NewPlayer()), nil
}

// NewWith assembles hardware from already opened parts.
func NewWith(pwm pca9685.Interface, leftPort, rightPort int, gate safety.Gate, player *sound.Player) *Hardware {
	return &Hardware{
		pwm:       pwm,
		leftPort:  leftPort,
		rightPort: rightPort,
		gate:      gate,
		sound:     player,
	}
}

func (h *Hardware) SetAngles(left, right int) error {
	if err := h.pwm.SetAngle(h.leftPort, left); err != nil {
		return errors.Wrap(err, "left servo")
	}
	if err := h.pwm.SetAngle(h.rightPort, right); err != nil {
		return errors.Wrap(err, "right servo")
	}
	return nil
}

func (h *Hardware) IsTripped() bool {
	return h.gate.IsTripped()
}

func (h *Hardware) PlaySound(path string) {
	if h.sound == nil {
		return
	}
	h.sound.Play(path)
}

func (h *Hardware) Shutdown() {
	fmt.Println("HW: Shutting down")
	if err := h.pwm.Close(); err != nil {
		fmt.Println("HW: Failed to close PCA9685", err)
	}
	if h.sound != nil {
		h.sound.Close()
	}
}
