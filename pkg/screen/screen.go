package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/anglemap"
	"github.com/tigerbot-team/tigerbot/go-teleop/pkg/controller"
)

const (
	S           = 128
	frameBytes  = S * S * 2
	refreshRate = 500 * time.Millisecond
)

// Display shows the controller state on a small RGB565 framebuffer panel.
type Display struct {
	left, right anglemap.Channel
	maxTravel   int

	latest atomic.Value // controller.Report
}

var _ controller.Observer = (*Display)(nil)

func New(left, right anglemap.Channel, maxTravel int) *Display {
	d := &Display{left: left, right: right, maxTravel: maxTravel}
	d.latest.Store(controller.Report{State: controller.Disconnected})
	return d
}

func (d *Display) Observe(r controller.Report) {
	d.latest.Store(r)
}

func (d *Display) Latest() controller.Report {
	return d.latest.Load().(controller.Report)
}

// Loop redraws the panel until ctx is done, then blanks it.  A missing
// framebuffer is not an error; the display is simply skipped.
func (d *Display) Loop(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [frameBytes]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		buf := Encode(d.Render(d.Latest()))
		_, err = f.Seek(0, 0)
		if err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}
		for i := 0; i < S; i++ {
			_, err = f.Write(buf[i*S*2 : (i+1)*S*2])
			if err != nil {
				fmt.Println("Screen failure: ", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws the state name and one bar per servo.
func (d *Display) Render(r controller.Report) image.Image {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	switch r.State {
	case controller.EmergencyStop:
		dc.SetRGB(1, 0.2, 0)
	case controller.EnableHeld:
		dc.SetRGB(0.2, 1, 0.2)
	default:
		dc.SetRGBA(1, 0.9, 0, 1)
	}
	dc.DrawStringAnchored(r.State.String(), S/2, 12, 0.5, 0.5)

	if r.State == controller.EmergencyStop {
		dc.Push()
		dc.Translate(S/2, 40)
		DrawWarning(dc)
		dc.Pop()
	}

	dc.SetRGBA(1, 0.9, 0, 1)
	if r.Wrote {
		d.drawAngleBar(dc, 24, "L", r.Left, d.left)
		d.drawAngleBar(dc, 80, "R", r.Right, d.right)
	}
	return dc.Image()
}

func (d *Display) drawAngleBar(dc *gg.Context, x float64, label string, angle int, ch anglemap.Channel) {
	const top, height, width = 56.0, 56.0, 24.0
	scale := height / float64(d.maxTravel)

	dc.DrawRectangle(x, top, width, height)
	dc.Stroke()
	// Tick at the channel centre.
	cy := top + float64(ch.Center)*scale
	dc.DrawLine(x-3, cy, x+width+3, cy)
	dc.Stroke()

	ay := top + float64(angle)*scale
	dc.DrawRectangle(x+2, ay-2, width-4, 4)
	dc.Fill()
	dc.DrawStringAnchored(fmt.Sprintf("%s%d", label, angle), x+width/2, top+height+8, 0.5, 0.5)
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}

// Encode converts an S x S image to the panel's rotated RGB565 layout.
func Encode(img image.Image) []byte {
	buf := make([]byte, frameBytes)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+x*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+x*S*2] = bb | (gb << 5)
		}
	}
	return buf
}
