package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/gamepad"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/joystick"
)

// Prints the gamepad state the control loop would see, five times a second.
func main() {
	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	jDev := os.Getenv("JOYSTICK_DEVICE")
	if jDev == "" {
		jDev = joystick.DefaultDevice
	}
	pad := gamepad.New(gamepad.DeviceOpener(jDev), gamepad.DefaultMapping())
	go pad.Run(ctx)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-pad.LinkEvents():
			fmt.Println(e)
		case <-ticker.C:
			fmt.Printf("%+v\n", pad.Snapshot())
		}
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
	}()
}
