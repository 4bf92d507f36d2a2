package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/omnidrive/holotrack/internal/geom"
	"github.com/omnidrive/holotrack/internal/pid"
	"github.com/omnidrive/holotrack/internal/trajectory"
)

const (
	DefaultPeriod       = 0.02
	DefaultGracePeriod  = 3.0
	DefaultToleranceXY  = 0.05
	DefaultToleranceDeg = 2.0
	DefaultMaxVelocity  = 2.0
	DefaultMaxAccel     = 1.5
	DefaultWheelbase    = 0.6
)

type Config struct {
	Period      float64          `yaml:"period"`
	Gains       GainsConfig      `yaml:"gains"`
	Tolerances  ToleranceConfig  `yaml:"tolerances"`
	GracePeriod float64          `yaml:"grace_period"`
	Keep        bool             `yaml:"keep_controller_state"`
	Geometry    []ModuleConfig   `yaml:"geometry"`
	Limits      LimitsConfig     `yaml:"limits"`
	Plant       PlantConfig      `yaml:"plant"`
	Waypoints   []WaypointConfig `yaml:"waypoints"`
}

type GainsConfig struct {
	X     PIDConfig     `yaml:"x"`
	Y     PIDConfig     `yaml:"y"`
	Theta ProfiledGains `yaml:"theta"`
}

type PIDConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type ProfiledGains struct {
	Kp              float64 `yaml:"kp"`
	Ki              float64 `yaml:"ki"`
	Kd              float64 `yaml:"kd"`
	MaxVelocity     float64 `yaml:"max_velocity"`     // rad/s
	MaxAcceleration float64 `yaml:"max_acceleration"` // rad/s^2
}

type ToleranceConfig struct {
	X           float64 `yaml:"x"`            // meters
	Y           float64 `yaml:"y"`            // meters
	RotationDeg float64 `yaml:"rotation_deg"` // degrees
}

type ModuleConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type LimitsConfig struct {
	MaxVelocity     float64 `yaml:"max_velocity"`     // m/s
	MaxAcceleration float64 `yaml:"max_acceleration"` // m/s^2
	MaxWheelSpeed   float64 `yaml:"max_wheel_speed"`  // m/s, 0 disables desaturation
}

type PlantConfig struct {
	Integrator   string  `yaml:"integrator"` // euler or rk4
	Lag          float64 `yaml:"lag"`        // seconds
	PoseNoiseStd float64 `yaml:"pose_noise_std"`
	Seed         int64   `yaml:"seed"`
}

type WaypointConfig struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	HeadingDeg float64 `yaml:"heading_deg"`
}

func Default() *Config {
	half := DefaultWheelbase / 2
	return &Config{
		Period: DefaultPeriod,
		Gains: GainsConfig{
			X:     PIDConfig{Kp: 4.0},
			Y:     PIDConfig{Kp: 4.0},
			Theta: ProfiledGains{Kp: 5.0, MaxVelocity: 6.0, MaxAcceleration: 12.0},
		},
		Tolerances: ToleranceConfig{
			X:           DefaultToleranceXY,
			Y:           DefaultToleranceXY,
			RotationDeg: DefaultToleranceDeg,
		},
		GracePeriod: DefaultGracePeriod,
		Geometry: []ModuleConfig{
			{X: half, Y: half},
			{X: half, Y: -half},
			{X: -half, Y: half},
			{X: -half, Y: -half},
		},
		Limits: LimitsConfig{
			MaxVelocity:     DefaultMaxVelocity,
			MaxAcceleration: DefaultMaxAccel,
		},
		Plant: PlantConfig{Integrator: "rk4"},
		Waypoints: []WaypointConfig{
			{X: 0, Y: 0, HeadingDeg: 0},
			{X: 3, Y: 0, HeadingDeg: 0},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("period must be positive, got %f", c.Period)
	}
	if c.Tolerances.X <= 0 || c.Tolerances.Y <= 0 || c.Tolerances.RotationDeg <= 0 {
		return fmt.Errorf("tolerances must be positive, got %+v", c.Tolerances)
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("grace period must not be negative, got %f", c.GracePeriod)
	}
	if len(c.Geometry) < 2 {
		return fmt.Errorf("geometry needs at least 2 modules, got %d", len(c.Geometry))
	}
	if c.Limits.MaxVelocity <= 0 || c.Limits.MaxAcceleration <= 0 {
		return fmt.Errorf("limits must be positive, got %+v", c.Limits)
	}
	if len(c.Waypoints) < 2 {
		return fmt.Errorf("need at least 2 waypoints, got %d", len(c.Waypoints))
	}
	return nil
}

// ModulePositions converts the geometry section into kinematics input.
func (c *Config) ModulePositions() []geom.Translation {
	positions := make([]geom.Translation, len(c.Geometry))
	for i, m := range c.Geometry {
		positions[i] = geom.Translation{X: m.X, Y: m.Y}
	}
	return positions
}

// WaypointPoses converts the waypoint section into generator input.
func (c *Config) WaypointPoses() []geom.Pose {
	poses := make([]geom.Pose, len(c.Waypoints))
	for i, w := range c.Waypoints {
		poses[i] = geom.NewPose(w.X, w.Y, w.HeadingDeg*math.Pi/180)
	}
	return poses
}

// TrajectoryLimits converts the limits section into generator input.
func (c *Config) TrajectoryLimits() trajectory.Limits {
	return trajectory.Limits{
		MaxVelocity:     c.Limits.MaxVelocity,
		MaxAcceleration: c.Limits.MaxAcceleration,
	}
}

// RotationTolerance returns the rotation tolerance in radians.
func (c *Config) RotationTolerance() float64 {
	return c.Tolerances.RotationDeg * math.Pi / 180
}

// ThetaConstraints converts the heading gains into profile constraints.
func (c *Config) ThetaConstraints() pid.Constraints {
	return pid.Constraints{
		MaxVelocity:     c.Gains.Theta.MaxVelocity,
		MaxAcceleration: c.Gains.Theta.MaxAcceleration,
	}
}
