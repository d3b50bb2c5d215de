package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allEnv = []string{
	"TIMBER_OPTIONS", "TIMBER_NAME", "TIMBER_TRAIN_PATH",
	"TIMBER_NORMALIZE", "TIMBER_THRESHOLD", "TIMBER_REQUIRED_DEPTH", "TIMBER_SAFE",
	"TIMBER_WORKERS", "TIMBER_SOURCE", "TIMBER_INPUT_PATH",
	"TIMBER_OUTPUT", "TIMBER_OUTPUT_PATH", "TIMBER_OUTPUT_PRETTY",
	"TIMBER_VERBOSITY", "TIMBER_ASYNC_BUFFER",
	"TIMBER_LOG_LEVEL", "TIMBER_LOG_JSON",
	"TIMBER_METRICS_ADDR", "TIMBER_METRICS_NAMESPACE",
	"TIMBER_SHUTDOWN_TIMEOUT",
}

func clearEnv() {
	for _, key := range allEnv {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Engine.Options != "-k 1 -w 2" {
		t.Fatalf("expected default options '-k 1 -w 2', got %q", cfg.Engine.Options)
	}
	if !cfg.Classify.Normalize || !cfg.Classify.Safe {
		t.Fatal("expected Normalize and Safe to default to true")
	}
	if cfg.Pipeline.Workers < 1 {
		t.Fatalf("expected at least one worker, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.Source != "stdin" || cfg.Output.Format != "stdout" {
		t.Fatalf("expected stdin -> stdout, got %s -> %s", cfg.Pipeline.Source, cfg.Output.Format)
	}
	if cfg.Output.Pretty {
		t.Fatal("expected default Pretty=false")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected default ShutdownTimeout=10s, got %v", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv()
	os.Setenv("TIMBER_OPTIONS", "-k 5")
	os.Setenv("TIMBER_THRESHOLD", "0.25")
	os.Setenv("TIMBER_REQUIRED_DEPTH", "2")
	os.Setenv("TIMBER_SAFE", "false")
	os.Setenv("TIMBER_WORKERS", "3")
	os.Setenv("TIMBER_OUTPUT_PRETTY", "true")
	os.Setenv("TIMBER_SHUTDOWN_TIMEOUT", "5s")
	defer clearEnv()

	cfg := Load()

	if cfg.Engine.Options != "-k 5" {
		t.Errorf("Options = %q, want '-k 5'", cfg.Engine.Options)
	}
	if cfg.Classify.Threshold != 0.25 {
		t.Errorf("Threshold = %v, want 0.25", cfg.Classify.Threshold)
	}
	if cfg.Classify.RequiredDepth != 2 {
		t.Errorf("RequiredDepth = %d, want 2", cfg.Classify.RequiredDepth)
	}
	if cfg.Classify.Safe {
		t.Error("Safe = true, want false")
	}
	if cfg.Pipeline.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Pipeline.Workers)
	}
	if !cfg.Output.Pretty {
		t.Error("Pretty = false, want true")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	clearEnv()
	os.Setenv("TIMBER_WORKERS", "many")
	os.Setenv("TIMBER_NORMALIZE", "perhaps")
	os.Setenv("TIMBER_SHUTDOWN_TIMEOUT", "soon")
	defer clearEnv()

	cfg := Load()
	def := Defaults()

	if cfg.Pipeline.Workers != def.Pipeline.Workers {
		t.Errorf("Workers = %d, want default %d", cfg.Pipeline.Workers, def.Pipeline.Workers)
	}
	if !cfg.Classify.Normalize {
		t.Error("Normalize should keep its default on an unparsable value")
	}
	if cfg.ShutdownTimeout != def.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want default", cfg.ShutdownTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv()
	dir := t.TempDir()
	path := filepath.Join(dir, "timber.yaml")
	data := `
engine:
  options: "-k 3 -d ID"
  name: weather
classify:
  normalize: false
  threshold: 0.1
pipeline:
  workers: 4
output:
  format: file
  path: /tmp/out.ndjson
  verbosity: minimal
shutdown_timeout: 2s
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Engine.Options != "-k 3 -d ID" || cfg.Engine.Name != "weather" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Classify.Normalize {
		t.Error("Normalize = true, want false from file")
	}
	if !cfg.Classify.Safe {
		t.Error("Safe should keep its default when absent from the file")
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Pipeline.Workers)
	}
	if cfg.Output.Format != "file" || cfg.Output.Verbosity != "minimal" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 2s", cfg.ShutdownTimeout)
	}
}

func TestLoadFile_EnvWins(t *testing.T) {
	clearEnv()
	path := filepath.Join(t.TempDir(), "timber.yaml")
	if err := os.WriteFile(path, []byte("pipeline:\n  workers: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("TIMBER_WORKERS", "9")
	defer clearEnv()

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Pipeline.Workers != 9 {
		t.Fatalf("Workers = %d, want env value 9", cfg.Pipeline.Workers)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile("/nonexistent/timber.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("pipeline: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

// --- Validation tests ---

func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	train := filepath.Join(dir, "weather.train")
	if err := os.WriteFile(train, []byte("sunny hot high weak no\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	cfg.Engine.TrainPath = train
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error for valid config, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing train file", func(c *Config) { c.Engine.TrainPath = "/nonexistent/train" }, "train_path"},
		{"threshold too high", func(c *Config) { c.Classify.Threshold = 1.5 }, "threshold"},
		{"negative threshold", func(c *Config) { c.Classify.Threshold = -0.1 }, "threshold"},
		{"negative depth", func(c *Config) { c.Classify.RequiredDepth = -1 }, "required_depth"},
		{"no workers", func(c *Config) { c.Pipeline.Workers = 0 }, "workers"},
		{"bad source", func(c *Config) { c.Pipeline.Source = "kafka" }, "source"},
		{"file source without path", func(c *Config) { c.Pipeline.Source = "file" }, "TIMBER_INPUT_PATH"},
		{"bad output", func(c *Config) { c.Output.Format = "webhook" }, "output format"},
		{"file output without path", func(c *Config) { c.Output.Format = "file" }, "TIMBER_OUTPUT_PATH"},
		{"bad verbosity", func(c *Config) { c.Output.Verbosity = "verbose" }, "verbosity"},
		{"negative buffer", func(c *Config) { c.Output.AsyncBuffer = -1 }, "async_buffer"},
		{"negative max size", func(c *Config) { c.Output.MaxSize = -1 }, "max_size"},
		{"negative shutdown", func(c *Config) { c.ShutdownTimeout = -time.Second }, "shutdown_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Classify.Threshold = 2
	cfg.Pipeline.Workers = -1
	cfg.Output.Verbosity = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple bad fields")
	}
	msg := err.Error()
	for _, want := range []string{"threshold", "workers", "verbosity"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %v", want, msg)
		}
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		set      bool
		fallback int
		want     int
	}{
		{"empty uses fallback", "", false, 1000, 1000},
		{"valid int", "500", true, 1000, 500},
		{"zero", "0", true, 1000, 0},
		{"invalid falls back", "abc", true, 1000, 1000},
		{"negative", "-1", true, 1000, -1},
	}

	const key = "TIMBER_TEST_GETENVINT"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}
			got := getenvInt(key, tt.fallback)
			if got != tt.want {
				t.Errorf("getenvInt(%q, %d) = %d, want %d", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestVersion_IsSet(t *testing.T) {
	if Version == "" {
		t.Fatal("expected non-empty Version constant")
	}
}
