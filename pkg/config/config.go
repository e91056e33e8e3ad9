package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/anglemap"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/controller"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/gamepad"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/joystick"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/pca9685"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/safety"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/throttle"
)

const DefaultPath = "/cfg/teleop.yaml"

type Config struct {
	Left      anglemap.Channel `yaml:"left"`
	Right     anglemap.Channel `yaml:"right"`
	MaxTravel int              `yaml:"max_travel"`

	Safety  Safety  `yaml:"safety"`
	Gamepad Gamepad `yaml:"gamepad"`
	Servo   Servo   `yaml:"servo"`

	LoopPeriod time.Duration `yaml:"loop_period"`
	Report     Report        `yaml:"report"`

	Sounds Sounds `yaml:"sounds"`
	Screen string `yaml:"screen"`
}

type Safety struct {
	Pin string `yaml:"pin"`
	// TripLevel is the line level, "high" or "low", that means stop.
	TripLevel string `yaml:"trip_level"`
}

type Gamepad struct {
	Device        string          `yaml:"device"`
	Mapping       gamepad.Mapping `yaml:"mapping"`
	RetryInterval time.Duration   `yaml:"retry_interval"`
}

type Servo struct {
	I2CDevice string        `yaml:"i2c_device"`
	Pulse     pca9685.Pulse `yaml:"pulse"`
}

type Report struct {
	EStop    time.Duration `yaml:"estop"`
	Held     time.Duration `yaml:"held"`
	Released time.Duration `yaml:"released"`
}

type Sounds struct {
	Ready string `yaml:"ready"`
	controller.Sounds `yaml:",inline"`
}

// Default returns the rig's built-in settings.  The right servo's down
// range is 65 degrees so that centre+range stays within a 180 degree servo;
// full stick deflection reaches 180, so the down slope is shallower than a
// 95 degree range clipped at 180.
func Default() Config {
	intervals := controller.DefaultIntervals()
	return Config{
		Left: anglemap.Channel{
			Name:      "left",
			Center:    80,
			UpRange:   70,
			DownRange: 70,
			Port:      0,
		},
		Right: anglemap.Channel{
			Name:      "right",
			Center:    115,
			UpRange:   70,
			DownRange: 65,
			Port:      1,
		},
		MaxTravel: pca9685.DefaultTravel,
		Safety: Safety{
			Pin:       safety.DefaultPin,
			TripLevel: "high",
		},
		Gamepad: Gamepad{
			Device:        joystick.DefaultDevice,
			Mapping:       gamepad.DefaultMapping(),
			RetryInterval: gamepad.DefaultRetryInterval,
		},
		Servo: Servo{
			I2CDevice: pca9685.DefaultDevice,
			Pulse:     pca9685.DefaultPulse(),
		},
		LoopPeriod: controller.DefaultPeriod,
		Report: Report{
			EStop:    intervals[controller.ClassEStop],
			Held:     intervals[controller.ClassHeld],
			Released: intervals[controller.ClassReleased],
		},
		Sounds: Sounds{
			Ready: "/sounds/ready.wav",
			Sounds: controller.Sounds{
				Connect:    "/sounds/connect.wav",
				Disconnect: "/sounds/disconnect.wav",
			},
		},
		Screen: "/dev/fb1",
	}
}

// Load reads path over the defaults.  A missing file is not an error.  The
// JOYSTICK_DEVICE environment variable overrides the gamepad device.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if err == nil {
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parsing %s", path)
		}
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrapf(err, "reading %s", path)
	}
	if dev := os.Getenv("JOYSTICK_DEVICE"); dev != "" {
		cfg.Gamepad.Device = dev
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := c.Left.Validate(c.MaxTravel); err != nil {
		return err
	}
	if err := c.Right.Validate(c.MaxTravel); err != nil {
		return err
	}
	if c.Left.Port == c.Right.Port {
		return errors.Errorf("left and right servos share port %d", c.Left.Port)
	}
	if _, err := safety.ParseLevel(c.Safety.TripLevel); err != nil {
		return err
	}
	if c.LoopPeriod <= 0 {
		return errors.Errorf("loop period must be positive, not %v", c.LoopPeriod)
	}
	for name, interval := range map[string]time.Duration{
		"estop":    c.Report.EStop,
		"held":     c.Report.Held,
		"released": c.Report.Released,
	} {
		if interval <= 0 {
			return errors.Errorf("report.%s interval must be positive, not %v", name, interval)
		}
	}
	return nil
}

func (c Config) Intervals() map[throttle.Class]time.Duration {
	intervals := controller.DefaultIntervals()
	intervals[controller.ClassEStop] = c.Report.EStop
	intervals[controller.ClassHeld] = c.Report.Held
	intervals[controller.ClassReleased] = c.Report.Released
	return intervals
}

// WriteInUse records the effective settings next to path as
// <name>-in-use.yaml.
func (c Config) WriteInUse(path string) (string, error) {
	ext := filepath.Ext(path)
	inUse := strings.TrimSuffix(path, ext) + "-in-use" + ext
	data, err := yaml.Marshal(&c)
	if err != nil {
		return "", err
	}
	return inUse, ioutil.WriteFile(inUse, data, 0666)
}
