// Package throttle rate-limits status output per message class.  Callers pass
// the current time explicitly so that the control loop and tests share one
// clock reading per iteration.
package throttle

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"
)

type Class string

type Emitter struct {
	out      io.Writer
	limiters map[Class]*rate.Limiter
}

func New(out io.Writer, intervals map[Class]time.Duration) *Emitter {
	e := &Emitter{
		out:      out,
		limiters: map[Class]*rate.Limiter{},
	}
	for class, interval := range intervals {
		e.limiters[class] = rate.NewLimiter(rate.Every(interval), 1)
	}
	return e
}

// Allow reports whether a message of the given class may be emitted at now,
// consuming the class's allowance if so.  Unknown classes are never limited.
func (e *Emitter) Allow(class Class, now time.Time) bool {
	lim, ok := e.limiters[class]
	if !ok {
		return true
	}
	return lim.AllowN(now, 1)
}

func (e *Emitter) Println(class Class, now time.Time, a ...interface{}) bool {
	if !e.Allow(class, now) {
		return false
	}
	fmt.Fprintln(e.out, a...)
	return true
}

func (e *Emitter) Printf(class Class, now time.Time, format string, a ...interface{}) bool {
	if !e.Allow(class, now) {
		return false
	}
	fmt.Fprintf(e.out, format, a...)
	return true
}
