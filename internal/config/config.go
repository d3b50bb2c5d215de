package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the timber release version.
const Version = "0.3.0"

// Config holds all timber configuration.
type Config struct {
	Engine          EngineConfig   `yaml:"engine"`
	Classify        ClassifyConfig `yaml:"classify"`
	Pipeline        PipelineConfig `yaml:"pipeline"`
	Output          OutputConfig   `yaml:"output"`
	Log             LogConfig      `yaml:"log"`
	Metrics         MetricsConfig  `yaml:"metrics"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
}

// EngineConfig holds the base experiment settings.
type EngineConfig struct {
	Options   string `yaml:"options"`    // engine option string, e.g. "-k 3 -w 2"
	Name      string `yaml:"name"`       // optional experiment name
	TrainPath string `yaml:"train_path"` // labeled instances to train from
}

// ClassifyConfig holds per-call classification parameters.
type ClassifyConfig struct {
	Normalize     bool    `yaml:"normalize"`
	Threshold     float64 `yaml:"threshold"`      // drop classes below this share, 0 keeps all
	RequiredDepth int     `yaml:"required_depth"` // 0 disables the depth check
	Safe          bool    `yaml:"safe"`           // recreate the worker experiment after engine errors
}

// PipelineConfig holds batch pipeline settings.
type PipelineConfig struct {
	Workers   int    `yaml:"workers"`
	Source    string `yaml:"source"` // "stdin" or "file"
	InputPath string `yaml:"input_path"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Format      string `yaml:"format"` // "stdout", "file" or "tee" (both)
	Path        string `yaml:"path"`
	Pretty      bool   `yaml:"pretty"`
	Verbosity   string `yaml:"verbosity"`    // "minimal", "standard", "full"
	AsyncBuffer int    `yaml:"async_buffer"` // 0 writes synchronously
	MaxSize     int    `yaml:"max_size"`     // segment size in bytes for file and tee; 0 keeps one file
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Addr      string `yaml:"addr"` // empty disables the /metrics listener
	Namespace string `yaml:"namespace"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Options: "-k 1 -w 2",
		},
		Classify: ClassifyConfig{
			Normalize: true,
			Safe:      true,
		},
		Pipeline: PipelineConfig{
			Workers: runtime.NumCPU(),
			Source:  "stdin",
		},
		Output: OutputConfig{
			Format:    "stdout",
			Verbosity: "standard",
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Namespace: "timber",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads configuration from environment variables over the defaults.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads a YAML file over the defaults, then applies environment
// variable overrides. Environment variables always win.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides cfg with every TIMBER_* variable that is set.
func applyEnv(cfg *Config) {
	cfg.Engine.Options = getenv("TIMBER_OPTIONS", cfg.Engine.Options)
	cfg.Engine.Name = getenv("TIMBER_NAME", cfg.Engine.Name)
	cfg.Engine.TrainPath = getenv("TIMBER_TRAIN_PATH", cfg.Engine.TrainPath)

	cfg.Classify.Normalize = getenvBool("TIMBER_NORMALIZE", cfg.Classify.Normalize)
	cfg.Classify.Threshold = getenvFloat("TIMBER_THRESHOLD", cfg.Classify.Threshold)
	cfg.Classify.RequiredDepth = getenvInt("TIMBER_REQUIRED_DEPTH", cfg.Classify.RequiredDepth)
	cfg.Classify.Safe = getenvBool("TIMBER_SAFE", cfg.Classify.Safe)

	cfg.Pipeline.Workers = getenvInt("TIMBER_WORKERS", cfg.Pipeline.Workers)
	cfg.Pipeline.Source = getenv("TIMBER_SOURCE", cfg.Pipeline.Source)
	cfg.Pipeline.InputPath = getenv("TIMBER_INPUT_PATH", cfg.Pipeline.InputPath)

	cfg.Output.Format = getenv("TIMBER_OUTPUT", cfg.Output.Format)
	cfg.Output.Path = getenv("TIMBER_OUTPUT_PATH", cfg.Output.Path)
	cfg.Output.Pretty = getenvBool("TIMBER_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.Verbosity = getenv("TIMBER_VERBOSITY", cfg.Output.Verbosity)
	cfg.Output.AsyncBuffer = getenvInt("TIMBER_ASYNC_BUFFER", cfg.Output.AsyncBuffer)
	cfg.Output.MaxSize = getenvInt("TIMBER_OUTPUT_MAX_SIZE", cfg.Output.MaxSize)

	cfg.Log.Level = getenv("TIMBER_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.JSON = getenvBool("TIMBER_LOG_JSON", cfg.Log.JSON)

	cfg.Metrics.Addr = getenv("TIMBER_METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Metrics.Namespace = getenv("TIMBER_METRICS_NAMESPACE", cfg.Metrics.Namespace)

	cfg.ShutdownTimeout = getenvDuration("TIMBER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error

	if c.Engine.TrainPath != "" {
		if _, err := os.Stat(c.Engine.TrainPath); err != nil {
			errs = append(errs, fmt.Errorf("engine train_path %q: %w", c.Engine.TrainPath, err))
		}
	}

	if c.Classify.Threshold < 0 || c.Classify.Threshold > 1 {
		errs = append(errs, fmt.Errorf("classify threshold must be in [0, 1], got %v", c.Classify.Threshold))
	}
	if c.Classify.RequiredDepth < 0 {
		errs = append(errs, fmt.Errorf("classify required_depth must be >= 0, got %d", c.Classify.RequiredDepth))
	}

	if c.Pipeline.Workers < 1 {
		errs = append(errs, fmt.Errorf("pipeline workers must be >= 1, got %d", c.Pipeline.Workers))
	}
	switch c.Pipeline.Source {
	case "stdin":
	case "file":
		if c.Pipeline.InputPath == "" {
			errs = append(errs, errors.New("pipeline source \"file\" requires input_path (TIMBER_INPUT_PATH)"))
		}
	default:
		errs = append(errs, fmt.Errorf("pipeline source must be stdin or file, got %q", c.Pipeline.Source))
	}

	switch c.Output.Format {
	case "stdout":
	case "file", "tee":
		if c.Output.Path == "" {
			errs = append(errs, fmt.Errorf("output %q requires path (TIMBER_OUTPUT_PATH)", c.Output.Format))
		}
	default:
		errs = append(errs, fmt.Errorf("output format must be stdout, file or tee, got %q", c.Output.Format))
	}
	switch c.Output.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("output verbosity must be minimal, standard or full, got %q", c.Output.Verbosity))
	}
	if c.Output.AsyncBuffer < 0 {
		errs = append(errs, fmt.Errorf("output async_buffer must be >= 0, got %d", c.Output.AsyncBuffer))
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output max_size must be >= 0, got %d", c.Output.MaxSize))
	}

	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be >= 0, got %v", c.ShutdownTimeout))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
