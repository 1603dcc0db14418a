package monitoring

import "time"

// Monitor reports failures to an external error tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init installs the process-wide monitor.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records err with the given tags. Nil errors are ignored
// by the implementations, so callers do not need to guard.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover captures panics in goroutines. Call it deferred.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush blocks until buffered events are delivered or the timeout expires.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
