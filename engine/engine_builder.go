package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/config"
	"github.com/Carmen-Shannon/oxy-cls/engine/profiler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables stage timing and performance statistics output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfilerOptions passes options through to the frame profiler, such as its logging interval.
//
// Parameters:
//   - options: profiler options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfilerOptions(options ...profiler.ProfilerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.profilerOptions = append(e.profilerOptions, options...)
	}
}

// WithLogger installs the logger shared by every engine package.
//
// Parameters:
//   - l: the logger, or nil for the silent default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		common.SetLogger(l)
	}
}

// WithMaxRenderTargets sets how many render targets can be clustered in one frame.
// Values <= 0 keep the default.
//
// Parameters:
//   - n: the number of render targets
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxRenderTargets(n int) EngineBuilderOption {
	return func(e *engine) {
		if n > 0 {
			e.maxRenderTargets = n
		}
	}
}

// WithPipeline supplies an already compiled pipeline instead of compiling one on construction.
// The pipeline must have been created on the same device.
//
// Parameters:
//   - p: the pipeline
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipeline(p *cluster.Pipeline) EngineBuilderOption {
	return func(e *engine) {
		e.pipeline = p
	}
}

// WithDebug enables the cluster visualiser after every Execute. The device must be able to draw.
//
// Parameters:
//   - d: the visualiser settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDebug(d config.Debug) EngineBuilderOption {
	return func(e *engine) {
		e.debug = d
	}
}

// WithConfig applies the engine-wide settings of a configuration file: profiling, render target
// count and the visualiser. The [cluster] table is per render target and is not applied here.
//
// Parameters:
//   - cfg: the loaded configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		WithProfiling(cfg.Profiling.Enabled)(e)
		WithProfilerOptions(profiler.WithInterval(time.Duration(cfg.Profiling.Interval)))(e)
		WithMaxRenderTargets(cfg.Device.MaxRenderTargets)(e)
		WithDebug(cfg.Debug)(e)
	}
}
