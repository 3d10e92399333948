package coordinator

import "time"

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxConcurrent sets how many task executions may be in flight at once.
func WithMaxConcurrent(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithMaxRetries sets how many failed attempts a task is allowed before it
// is marked failed permanently.
func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithTimeout sets the wall-clock limit for an entire run. Zero disables
// the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithPollInterval sets the backoff sleep used when no task is ready or
// running but the run is not yet complete.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithMaxIterations sets the watchdog iteration cap.
func WithMaxIterations(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithStallLimit sets how many consecutive no-progress iterations with
// blocker-held tasks are tolerated before declaring deadlock.
func WithStallLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.stallLimit = n
		}
	}
}

// WithClassifier replaces the default keyword classifier.
func WithClassifier(cl Classifier) Option {
	return func(c *Coordinator) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithLogger sets the debug logger for the run.
func WithLogger(l *DebugLogger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEventBuffer enables event emission with the given channel capacity.
func WithEventBuffer(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.events = make(chan Event, n)
		}
	}
}
