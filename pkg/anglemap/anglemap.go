package anglemap

import (
	"math"

	"github.com/pkg/errors"
)

// Stick values inside (-Deadzone, Deadzone) hold the channel at its centre.
const Deadzone = 10

const (
	stickMax = math.MaxInt8
	stickMin = math.MinInt8
)

// Channel is one angle-controlled actuator with a neutral centre and
// independent travel either side of it.  Angles are in degrees.
type Channel struct {
	Name      string `yaml:"name"`
	Center    int    `yaml:"center"`
	UpRange   int    `yaml:"up_range"`
	DownRange int    `yaml:"down_range"`
	Port      int    `yaml:"port"`
}

func (c Channel) Neutral() int {
	return c.Center
}

func (c Channel) Map(value int8) int {
	return MapStickToAngle(value, c.Center, c.UpRange, c.DownRange)
}

// Validate checks that the whole travel of the channel fits in [0, maxTravel].
func (c Channel) Validate(maxTravel int) error {
	if c.UpRange <= 0 || c.DownRange <= 0 {
		return errors.Errorf("channel %q: ranges must be positive (up=%d, down=%d)",
			c.Name, c.UpRange, c.DownRange)
	}
	if c.Center-c.UpRange < 0 {
		return errors.Errorf("channel %q: center %d - up range %d is below 0",
			c.Name, c.Center, c.UpRange)
	}
	if c.Center+c.DownRange > maxTravel {
		return errors.Errorf("channel %q: center %d + down range %d exceeds max travel %d",
			c.Name, c.Center, c.DownRange, maxTravel)
	}
	return nil
}

// MapStickToAngle converts a stick deflection into an actuator angle.
// Positive values (stick down) travel from center to center+downRange,
// negative values (stick up) from center to center-upRange.
func MapStickToAngle(value int8, center, upRange, downRange int) int {
	if value > -Deadzone && value < Deadzone {
		return center
	}
	if value > 0 {
		return interpolate(int(value), 0, stickMax, center, center+downRange)
	}
	return interpolate(int(value), 0, stickMin, center, center-upRange)
}

// Invert negates a stick value, saturating so that the most negative
// reading maps to full positive deflection instead of wrapping.
func Invert(value int8) int8 {
	if value == stickMin {
		return stickMax
	}
	return -value
}

// interpolate maps x linearly from [inMin, inMax] to [outMin, outMax] using
// integer arithmetic; division truncates toward zero.
func interpolate(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
