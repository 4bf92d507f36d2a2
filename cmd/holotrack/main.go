package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omnidrive/holotrack/internal/config"
	"github.com/omnidrive/holotrack/internal/drive"
	"github.com/omnidrive/holotrack/internal/follower"
	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/kinematics"
	"github.com/omnidrive/holotrack/internal/metrics"
	"github.com/omnidrive/holotrack/internal/pid"
	"github.com/omnidrive/holotrack/internal/plant"
	"github.com/omnidrive/holotrack/internal/runner"
	"github.com/omnidrive/holotrack/internal/storage"
	"github.com/omnidrive/holotrack/internal/trajectory"
	"github.com/omnidrive/holotrack/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	gracePeriod float64
	keepState   bool
	period      float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "holotrack",
		Short: "holonomic trajectory tracking lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".holotrack", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "structured log output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "track a trajectory and record the run",
		RunE:  runTracking,
	}
	addSessionFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "track a trajectory with live visualization",
		RunE:  runLive,
	}
	addSessionFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&gracePeriod, "grace", config.DefaultGracePeriod, "timeout grace period past trajectory end (s)")
	cmd.Flags().BoolVar(&keepState, "keep-state", false, "carry controller state across runs")
	cmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "control period (s)")
}

// resolveConfig layers preset, config file, then changed CLI flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.Default()
	label := "default"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		label = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		label = "custom"
	}

	if cmd.Flags().Changed("grace") {
		cfg.GracePeriod = gracePeriod
	}
	if cmd.Flags().Changed("keep-state") {
		cfg.Keep = keepState
	}
	if cmd.Flags().Changed("period") {
		cfg.Period = period
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, label, nil
}

func buildLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// session wires one tracking run: trajectory, kinematics, controller, command
// and the simulated chassis it drives.
type session struct {
	cfg        *config.Config
	traj       *trajectory.Trajectory
	kin        *kinematics.Swerve
	plant      *plant.Plant
	cmd        *follower.Command
	lastWheels []kinematics.ModuleState
}

func buildSession(cfg *config.Config, clk clock.Clock) (*session, error) {
	traj, err := trajectory.Generate(cfg.WaypointPoses(), cfg.TrajectoryLimits(), cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("trajectory generation: %w", err)
	}

	kin, err := kinematics.NewSwerve(cfg.ModulePositions()...)
	if err != nil {
		return nil, err
	}

	xPID := pid.New(cfg.Gains.X.Kp, cfg.Gains.X.Ki, cfg.Gains.X.Kd)
	yPID := pid.New(cfg.Gains.Y.Kp, cfg.Gains.Y.Ki, cfg.Gains.Y.Kd)
	thetaPID := pid.NewProfiled(cfg.Gains.Theta.Kp, cfg.Gains.Theta.Ki, cfg.Gains.Theta.Kd, cfg.ThetaConstraints())

	controller, err := drive.NewHolonomic(xPID, yPID, thetaPID, cfg.Period)
	if err != nil {
		return nil, err
	}

	var integ plant.Integrator
	switch cfg.Plant.Integrator {
	case "euler":
		integ = plant.NewEuler()
	default:
		integ = plant.NewRK4()
	}

	pl := plant.New(kin, cfg.WaypointPoses()[0], plant.Options{
		Integrator:      integ,
		LagTimeConstant: cfg.Plant.Lag,
		PoseNoiseStd:    cfg.Plant.PoseNoiseStd,
		Seed:            cfg.Plant.Seed,
	})

	sess := &session{cfg: cfg, traj: traj, kin: kin, plant: pl}

	output := func(states []kinematics.ModuleState) {
		if cfg.Limits.MaxWheelSpeed > 0 {
			kinematics.Desaturate(states, cfg.Limits.MaxWheelSpeed)
		}
		sess.lastWheels = states
		pl.Apply(states)
	}

	trackCmd, err := follower.New(traj, pl.Pose, kin, controller, output, follower.Config{
		Tolerances: follower.Tolerances{
			X:        cfg.Tolerances.X,
			Y:        cfg.Tolerances.Y,
			Rotation: cfg.RotationTolerance(),
		},
		GracePeriod:         cfg.GracePeriod,
		KeepControllerState: cfg.Keep,
		Clock:               clk,
	}, follower.Resource("drivetrain"))
	if err != nil {
		return nil, err
	}

	sess.cmd = trackCmd
	return sess, nil
}

func (s *session) probe(elapsed float64) runner.Sample {
	return runner.Sample{
		T:       elapsed,
		Desired: s.traj.Sample(elapsed).Pose,
		Actual:  s.plant.TruePose(),
		Wheels:  s.lastWheels,
	}
}

func runTracking(cmd *cobra.Command, args []string) error {
	cfg, label, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger := buildLogger()
	defer logger.Sync()

	r := runner.New(logger)
	sess, err := buildSession(cfg, r.Clock())
	if err != nil {
		return err
	}

	r.AddMetric(metrics.NewCrossTrack())
	r.AddMetric(metrics.NewHeadingError())
	r.AddMetric(metrics.NewControlEffort())
	r.AddMetric(metrics.NewSettleTime(cfg.Tolerances.X))

	maxTicks := int((sess.traj.Duration()+cfg.GracePeriod)/cfg.Period) + 2

	fmt.Printf("tracking %s (%.2fs trajectory, %.0f Hz)...\n", label, sess.traj.Duration(), 1/cfg.Period)
	start := time.Now()

	result, err := r.Run(context.Background(), sess.cmd, sess.probe,
		func(dt float64) { sess.plant.Step(dt) },
		runner.Config{Period: cfg.Period, MaxTicks: maxTicks})
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(label, cfg.Period, sess.traj.Duration(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d (finished: %v)\n", result.Ticks, result.Finished)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, label, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	clk := clock.NewMock()
	sess, err := buildSession(cfg, clk)
	if err != nil {
		return err
	}

	path := make([]geom.Pose, 0, len(sess.traj.States()))
	for _, s := range sess.traj.States() {
		path = append(path, s.Pose)
	}

	timeout := sess.traj.Duration() + cfg.GracePeriod
	initialized := false
	tick := 0

	step := func() (runner.Sample, viz.Status) {
		if !initialized {
			sess.cmd.Initialize()
			initialized = true
		}

		sess.cmd.Execute()
		elapsed := float64(tick) * cfg.Period
		sample := sess.probe(elapsed)

		if sess.cmd.IsFinished() {
			sess.cmd.End(false)
			if elapsed >= timeout {
				return sample, viz.StatusTimedOut
			}
			return sample, viz.StatusArrived
		}

		sess.plant.Step(cfg.Period)
		clk.Add(time.Duration(cfg.Period * float64(time.Second)))
		tick++
		return sample, viz.StatusRunning
	}

	m := viz.NewModel(label, path, sess.traj.Duration(), cfg.Period, step)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tTIME\tDURATION\tTICKS\tFINISHED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%v\n",
			run.ID,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Ticks,
			run.Finished,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadTrack(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("label: %s\n", meta.Label)
	fmt.Printf("samples: %d\n\n", len(rows))

	posErr := make([]float64, len(rows))
	headErr := make([]float64, len(rows))
	actX := make([]float64, len(rows))
	actY := make([]float64, len(rows))
	for i, row := range rows {
		dx := row.Desired[0] - row.Actual[0]
		dy := row.Desired[1] - row.Actual[1]
		posErr[i] = math.Hypot(dx, dy)
		headErr[i] = geom.WrapAngle(row.Desired[2] - row.Actual[2])
		actX[i] = row.Actual[0]
		actY[i] = row.Actual[1]
	}

	for _, plot := range []struct {
		data    []float64
		caption string
	}{
		{posErr, "position error (m)"},
		{headErr, "heading error (rad)"},
		{actX, "actual x (m)"},
		{actY, "actual y (m)"},
	} {
		graph := asciigraph.Plot(plot.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(plot.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadTrack(args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time", "des_x", "des_y", "des_heading", "act_x", "act_y", "act_heading"}
	for i := range rows[0].Speeds {
		header = append(header, fmt.Sprintf("speed%d", i), fmt.Sprintf("angle%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			formatFloat(row.T),
			formatFloat(row.Desired[0]), formatFloat(row.Desired[1]), formatFloat(row.Desired[2]),
			formatFloat(row.Actual[0]), formatFloat(row.Actual[1]), formatFloat(row.Actual[2]),
		}
		for i := range row.Speeds {
			record = append(record, formatFloat(row.Speeds[i]), formatFloat(row.Angles[i]))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadTrack(runID)
	if err != nil {
		return err
	}

	result := &runner.Result{
		Ticks:       meta.Ticks,
		Finished:    meta.Finished,
		Interrupted: meta.Interrupted,
		Metrics:     meta.Metrics,
	}
	for _, row := range rows {
		sample := runner.Sample{
			T:       row.T,
			Desired: geom.NewPose(row.Desired[0], row.Desired[1], row.Desired[2]),
			Actual:  geom.NewPose(row.Actual[0], row.Actual[1], row.Actual[2]),
		}
		for i := range row.Speeds {
			sample.Wheels = append(sample.Wheels, kinematics.ModuleState{
				Speed: row.Speeds[i],
				Angle: geom.NewRotation(row.Angles[i]),
			})
		}
		result.Samples = append(result.Samples, sample)
	}

	return storage.ExportJSONStdout(meta.Label, meta.Period, meta.Duration, result)
}
