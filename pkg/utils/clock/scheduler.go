package clock

import "time"

// Scheduler arms delayed callbacks. The production implementation wraps
// time.AfterFunc; tests use Fake to drive virtual time deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is an armed callback. Stop reports whether the call was prevented
// from firing; a Stop on an already-fired timer returns false.
type Timer interface {
	Stop() bool
}

type realScheduler struct{}

// Real returns a Scheduler backed by the runtime timer heap.
func Real() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
