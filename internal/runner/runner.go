// Package runner drives a tracking command's lifecycle hooks at a fixed
// simulated period, standing in for the robot framework's scheduler. Ticks
// are strictly serialized; cancellation ends the command cooperatively
// between two ticks.
package runner

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Lifecycle is the scheduler contract: the four hooks are called
// synchronously, once each per tick, and Execute never runs after End.
type Lifecycle interface {
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)
}

// Config bounds one run.
type Config struct {
	// Period is the control period in simulated seconds.
	Period float64

	// MaxTicks is a hard stop independent of the command's own termination;
	// zero means no extra bound.
	MaxTicks int
}

// Runner owns the simulated clock that paces a run. Wire Clock() into the
// command under test so its stopwatch advances with the ticks.
type Runner struct {
	clk       *clock.Mock
	logger    *zap.Logger
	observers []Observer
	metrics   []Metric
}

func New(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		clk:    clock.NewMock(),
		logger: logger,
	}
}

// Clock exposes the simulated clock driving the run.
func (r *Runner) Clock() clock.Clock {
	return r.clk
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }
func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }

// Run executes one full lifecycle. The probe is read after each Execute and
// its sample fed to observers and metrics; the step hook advances whatever
// world the command acts on by one period. Context cancellation calls
// End(interrupted=true) and returns the partial result with ctx.Err().
func (r *Runner) Run(ctx context.Context, lc Lifecycle, probe Probe, step func(dt float64), cfg Config) (*Result, error) {
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("runner: period must be positive, got %f", cfg.Period)
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}

	r.logger.Info("run starting", zap.Float64("period_s", cfg.Period))
	lc.Initialize()

	for tick := 0; ; tick++ {
		select {
		case <-ctx.Done():
			lc.End(true)
			result.Interrupted = true
			r.logger.Warn("run interrupted", zap.Int("ticks", tick))
			r.collect(result)
			return result, ctx.Err()
		default:
		}

		lc.Execute()

		if probe != nil {
			sample := probe(float64(tick) * cfg.Period)
			result.Samples = append(result.Samples, sample)
			for _, m := range r.metrics {
				m.Observe(sample)
			}
			for _, o := range r.observers {
				o.OnTick(sample)
			}
		}
		result.Ticks = tick + 1

		if lc.IsFinished() {
			lc.End(false)
			result.Finished = true
			break
		}
		if cfg.MaxTicks > 0 && tick+1 >= cfg.MaxTicks {
			lc.End(true)
			result.Interrupted = true
			r.logger.Warn("run hit tick bound", zap.Int("max_ticks", cfg.MaxTicks))
			break
		}

		if step != nil {
			step(cfg.Period)
		}
		r.clk.Add(secondsToDuration(cfg.Period))
	}

	r.collect(result)
	r.logger.Info("run complete",
		zap.Int("ticks", result.Ticks),
		zap.Bool("finished", result.Finished),
	)
	return result, nil
}

func (r *Runner) collect(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
