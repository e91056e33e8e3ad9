package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/controller"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/gamepad"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/safety"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/screen"
)

func main() {
	app := cli.NewApp()
	app.Name = "teleop"
	app.Usage = "drive the skid/tilt servos from a gamepad"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: config.DefaultPath,
			Usage: "YAML settings file; built-in defaults are used if it is absent",
		},
		cli.BoolFlag{
			Name:  "dummy",
			Usage: "log servo writes instead of driving hardware; SIGUSR1 toggles the safety line",
		},
		cli.DurationFlag{
			Name:  "period",
			Usage: "control loop period, overrides the config file",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	fmt.Println("---- Teleop ----")

	cfgPath := c.String("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if c.IsSet("period") {
		cfg.LoopPeriod = c.Duration("period")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if inUse, err := cfg.WriteInUse(cfgPath); err != nil {
		fmt.Println("Failed to write in-use config, ignoring", err)
	} else {
		fmt.Println("Settings in use written to", inUse)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	hw, err := initHardware(c.Bool("dummy"), cfg)
	if err != nil {
		return err
	}
	defer func() {
		fmt.Println("Shutting down hardware")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()

	pad := gamepad.New(gamepad.DeviceOpener(cfg.Gamepad.Device), cfg.Gamepad.Mapping)
	pad.RetryInterval = cfg.Gamepad.RetryInterval
	go pad.Run(ctx)

	display := screen.New(cfg.Left, cfg.Right, cfg.MaxTravel)
	go display.Loop(ctx, cfg.Screen)

	loop := controller.New(cfg.Left, cfg.Right, hw, pad, hw, controller.Options{
		Intervals: cfg.Intervals(),
		Observer:  display,
		Alerter:   hw,
		Sounds:    cfg.Sounds.Sounds,
	})

	hw.PlaySound(cfg.Sounds.Ready)
	fmt.Println("Ready.")
	loop.Run(ctx, cfg.LoopPeriod)
	return nil
}

func initHardware(dummy bool, cfg config.Config) (hardware.Interface, error) {
	if dummy {
		d := hardware.NewDummy()
		registerDummyTripToggle(d)
		return d, nil
	}
	tripLevel, err := safety.ParseLevel(cfg.Safety.TripLevel)
	if err != nil {
		return nil, err
	}
	return hardware.New(hardware.Config{
		I2CDevice:     cfg.Servo.I2CDevice,
		Pulse:         cfg.Servo.Pulse,
		LeftPort:      cfg.Left.Port,
		RightPort:     cfg.Right.Port,
		SafetyPin:     cfg.Safety.Pin,
		SafetyTripsOn: tripLevel,
	})
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}

func registerDummyTripToggle(d *hardware.Dummy) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1)
	go func() {
		for range signals {
			d.SetTripped(!d.IsTripped())
		}
	}()
}
