package profiler

import (
	"fmt"
	"iter"
	"time"
)

// SampleIndex is a stable handle to a sample registered with AddSample.
type SampleIndex int

// Stats aggregates the measurements of one sample since the last ResetStats.
type Stats struct {
	Count int
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// Mean returns the average duration, or zero when nothing was measured.
func (s Stats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

type sample struct {
	title   string
	started time.Time
	running bool
	stats   Stats
}

// Context times named host-side sections. Sample handles are registered once and stay
// valid for the lifetime of the context. A Context is not safe for concurrent use.
type Context struct {
	samples []sample
	enabled bool
	now     func() time.Time
}

// NewContext creates an enabled, empty sample context.
//
// Returns:
//   - *Context: the new context
func NewContext() *Context {
	return &Context{enabled: true, now: time.Now}
}

// SetEnabled turns measurement on or off. Begin and End are no-ops while disabled.
func (c *Context) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// SetClock replaces the clock used for measurements.
func (c *Context) SetClock(now func() time.Time) {
	c.now = now
}

// AddSample registers a sample and returns its handle.
//
// Parameters:
//   - title: the display name of the sample
//
// Returns:
//   - SampleIndex: the stable handle for the sample
func (c *Context) AddSample(title string) SampleIndex {
	c.samples = append(c.samples, sample{title: title})
	return SampleIndex(len(c.samples) - 1)
}

// Title returns the title a sample was registered with.
func (c *Context) Title(idx SampleIndex) string {
	return c.get(idx).title
}

// Begin starts timing idx.
func (c *Context) Begin(idx SampleIndex) {
	s := c.get(idx)
	if !c.enabled {
		return
	}
	s.started = c.now()
	s.running = true
}

// End stops timing idx and accumulates the measurement. End without Begin is ignored.
func (c *Context) End(idx SampleIndex) {
	s := c.get(idx)
	if !c.enabled || !s.running {
		return
	}
	d := c.now().Sub(s.started)
	s.running = false

	st := &s.stats
	if st.Count == 0 || d < st.Min {
		st.Min = d
	}
	if d > st.Max {
		st.Max = d
	}
	st.Count++
	st.Total += d
	st.Last = d
}

// Stats returns the accumulated statistics for idx.
func (c *Context) Stats(idx SampleIndex) Stats {
	return c.get(idx).stats
}

// ResetStats clears accumulated statistics of every sample. Handles stay valid.
func (c *Context) ResetStats() {
	for i := range c.samples {
		c.samples[i].stats = Stats{}
	}
}

// Len returns the number of registered samples.
func (c *Context) Len() int {
	return len(c.samples)
}

// All iterates samples in registration order.
func (c *Context) All() iter.Seq2[SampleIndex, string] {
	return func(yield func(SampleIndex, string) bool) {
		for i := range c.samples {
			if !yield(SampleIndex(i), c.samples[i].title) {
				return
			}
		}
	}
}

func (c *Context) get(idx SampleIndex) *sample {
	if idx < 0 || int(idx) >= len(c.samples) {
		panic(fmt.Sprintf("profiler: unknown sample %d", idx))
	}
	return &c.samples[idx]
}
