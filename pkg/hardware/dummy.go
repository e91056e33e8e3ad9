package hardware

import (
	"fmt"
	"sync/atomic"
)

// Dummy stands in for the real hardware on a bench.  The safety line can be
// toggled with SetTripped.
type Dummy struct {
	tripped atomic.Bool
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) SetAngles(left, right int) error {
	fmt.Printf("DHW: SetAngles left=%v right=%v\n", left, right)
	return nil
}

func (d *Dummy) SetTripped(tripped bool) {
	fmt.Printf("DHW: SetTripped %v\n", tripped)
	d.tripped.Store(tripped)
}

func (d *Dummy) IsTripped() bool {
	return d.tripped.Load()
}

func (d *Dummy) PlaySound(path string) {
	fmt.Printf("DHW: PlaySound path=%v\n", path)
}

func (d *Dummy) Shutdown() {
	fmt.Println("DHW: Shutdown")
}

var _ Interface = (*Dummy)(nil)
