package runner

import (
	"context"
	"testing"

	"github.com/omnidrive/holotrack/internal/geom"
)

// fakeCommand finishes after a fixed number of IsFinished polls.
type fakeCommand struct {
	finishAfter int

	initialized int
	executes    int
	polls       int
	ended       bool
	interrupted bool
}

func (f *fakeCommand) Initialize() { f.initialized++ }
func (f *fakeCommand) Execute()    { f.executes++ }
func (f *fakeCommand) IsFinished() bool {
	f.polls++
	return f.polls >= f.finishAfter
}
func (f *fakeCommand) End(interrupted bool) {
	f.ended = true
	f.interrupted = interrupted
}

func TestRunLifecycleOrder(t *testing.T) {
	r := New(nil)
	cmd := &fakeCommand{finishAfter: 3}

	result, err := r.Run(context.Background(), cmd, nil, nil, Config{Period: 0.02})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if cmd.initialized != 1 {
		t.Errorf("expected 1 initialize, got %d", cmd.initialized)
	}
	if cmd.executes != 3 {
		t.Errorf("expected 3 executes, got %d", cmd.executes)
	}
	if !cmd.ended || cmd.interrupted {
		t.Errorf("expected clean end, got ended=%v interrupted=%v", cmd.ended, cmd.interrupted)
	}
	if !result.Finished || result.Ticks != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunRejectsBadPeriod(t *testing.T) {
	r := New(nil)
	if _, err := r.Run(context.Background(), &fakeCommand{finishAfter: 1}, nil, nil, Config{}); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestRunTickBound(t *testing.T) {
	r := New(nil)
	cmd := &fakeCommand{finishAfter: 1 << 30}

	result, err := r.Run(context.Background(), cmd, nil, nil, Config{Period: 0.02, MaxTicks: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Ticks != 10 || !result.Interrupted {
		t.Errorf("expected interrupted after 10 ticks, got %+v", result)
	}
	if !cmd.interrupted {
		t.Error("command should see interrupted=true at the tick bound")
	}
}

func TestRunCancellation(t *testing.T) {
	r := New(nil)
	cmd := &fakeCommand{finishAfter: 1 << 30}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, cmd, nil, nil, Config{Period: 0.02})
	if err == nil {
		t.Fatal("expected context error")
	}
	if !result.Interrupted || !cmd.interrupted {
		t.Error("cancellation must end the command with interrupted=true")
	}
	if cmd.executes != 0 {
		t.Error("no tick should run after cancellation")
	}
}

func TestRunClockAdvancesWithTicks(t *testing.T) {
	r := New(nil)
	cmd := &fakeCommand{finishAfter: 5}

	start := r.clk.Now()
	if _, err := r.Run(context.Background(), cmd, nil, nil, Config{Period: 0.02}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Clock advances between ticks, so 5 ticks move it 4 periods.
	elapsed := r.clk.Now().Sub(start).Seconds()
	if elapsed < 0.08-1e-9 || elapsed > 0.08+1e-9 {
		t.Errorf("expected 0.08s of simulated time, got %f", elapsed)
	}
}

type recordingMetric struct {
	n int
}

func (m *recordingMetric) Name() string   { return "samples" }
func (m *recordingMetric) Observe(Sample) { m.n++ }
func (m *recordingMetric) Value() float64 { return float64(m.n) }
func (m *recordingMetric) Reset()         { m.n = 0 }

func TestRunMetricsAndProbe(t *testing.T) {
	r := New(nil)
	metric := &recordingMetric{n: 99} // must be reset before the run
	r.AddMetric(metric)

	cmd := &fakeCommand{finishAfter: 4}
	probe := func(elapsed float64) Sample {
		return Sample{T: elapsed, Actual: geom.NewPose(elapsed, 0, 0)}
	}

	result, err := r.Run(context.Background(), cmd, probe, nil, Config{Period: 0.02})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) != 4 {
		t.Errorf("expected 4 samples, got %d", len(result.Samples))
	}
	if result.Metrics["samples"] != 4 {
		t.Errorf("expected metric value 4, got %f", result.Metrics["samples"])
	}
	if result.Samples[2].T != 0.04 {
		t.Errorf("sample times should step by the period, got %f", result.Samples[2].T)
	}
}

func TestRunStepHookAdvancesWorld(t *testing.T) {
	r := New(nil)
	cmd := &fakeCommand{finishAfter: 3}

	total := 0.0
	_, err := r.Run(context.Background(), cmd, nil, func(dt float64) { total += dt }, Config{Period: 0.02})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// The world steps between ticks, not after the last one.
	if total < 0.04-1e-9 || total > 0.04+1e-9 {
		t.Errorf("expected 0.04s of world time, got %f", total)
	}
}
