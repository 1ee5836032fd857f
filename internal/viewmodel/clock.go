package viewmodel

import "time"

// The slideshow and the status window need injectable time so the timed
// transitions are testable with a simulated clock.

type timerHandle interface {
	Stop() bool
}

type afterFunc func(d time.Duration, fn func()) timerHandle

func realAfter(d time.Duration, fn func()) timerHandle {
	return time.AfterFunc(d, fn)
}
