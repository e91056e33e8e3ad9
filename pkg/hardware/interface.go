package hardware

import "github.com/tigerbot-team/tigerbot/go-teleop/pkg/safety"

// Actuators drives the left and right servos.  Angles are written as given;
// callers keep them inside each channel's configured travel.
type Actuators interface {
	SetAngles(left, right int) error
}

type Interface interface {
	Actuators
	safety.Gate

	PlaySound(path string)
	Shutdown()
}
