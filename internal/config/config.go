// Package config handles m3dlayout configuration loading and management.
package config

// Config holds all m3dlayout settings.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Target  TargetConfig  `yaml:"target"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig controls where and how assertions are written.
type OutputConfig struct {
	Path    string `yaml:"path"`    // Assertion file path
	Package string `yaml:"package"` // Odin package clause
	Atomic  bool   `yaml:"atomic"`  // Write via temp file + rename
}

// TargetConfig selects the layout rules sizes are computed for.
type TargetConfig struct {
	Arch      string `yaml:"arch"`       // GOARCH; empty measures the host
	ModuleDir string `yaml:"module_dir"` // Directory inside the module, used for cross-arch loads
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Path:    "assertions.odin",
			Package: "m3d",
			Atomic:  true,
		},
		Target: TargetConfig{
			Arch:      "",
			ModuleDir: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
