package profiler

import "time"

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often Tick logs statistics. Values <= 0 keep the 1 second default.
//
// Parameters:
//   - interval: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithContext attaches a sample context whose timings are logged on every interval.
//
// Parameters:
//   - c: the sample context
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithContext(c *Context) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.context = c
	}
}

// WithClock replaces the wall clock used for frame timing.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
