package config

// Presets are ready-made run configurations. Each starts from Default so
// presets only spell out what they change.
var Presets = map[string]func() *Config{
	"straight": func() *Config {
		return Default()
	},
	"sprint": func() *Config {
		cfg := Default()
		cfg.Limits.MaxVelocity = 4.0
		cfg.Limits.MaxAcceleration = 3.0
		cfg.Waypoints = []WaypointConfig{
			{X: 0, Y: 0, HeadingDeg: 0},
			{X: 6, Y: 0, HeadingDeg: 0},
		}
		return cfg
	},
	"slalom": func() *Config {
		cfg := Default()
		cfg.Waypoints = []WaypointConfig{
			{X: 0, Y: 0, HeadingDeg: 0},
			{X: 1.5, Y: 1.0, HeadingDeg: 0},
			{X: 3.0, Y: -1.0, HeadingDeg: 0},
			{X: 4.5, Y: 0, HeadingDeg: 0},
		}
		return cfg
	},
	"spin": func() *Config {
		cfg := Default()
		cfg.Waypoints = []WaypointConfig{
			{X: 0, Y: 0, HeadingDeg: 0},
			{X: 2, Y: 0, HeadingDeg: 90},
			{X: 4, Y: 0, HeadingDeg: 180},
		}
		return cfg
	},
	"noisy": func() *Config {
		cfg := Default()
		cfg.Plant.Lag = 0.1
		cfg.Plant.PoseNoiseStd = 0.01
		cfg.Plant.Seed = 42
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
