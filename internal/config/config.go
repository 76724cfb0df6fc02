package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/observability/tracing"
)

// Config captures the cipherbreak configuration resolved from defaults,
// optional files, and environment overrides.
type Config struct {
	Solver  SolverConfig   `yaml:"solver"`
	Server  ServerConfig   `yaml:"server"`
	Log     LogConfig      `yaml:"log"`
	Recipes RecipesConfig  `yaml:"recipes"`
	Tracing tracing.Config `yaml:"tracing"`
}

// SolverConfig tunes the search-based decoders.
type SolverConfig struct {
	Restarts   int      `yaml:"restarts"`
	Iterations int      `yaml:"iterations"`
	MinRails   int      `yaml:"min_rails"`
	MaxRails   int      `yaml:"max_rails"`
	Parallel   int      `yaml:"parallel"`
	ExtraWords []string `yaml:"extra_words"`
}

// ServerConfig controls the cipherd listeners.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the log level, encoding and optional file sink.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// RecipesConfig points at the recipe store.
type RecipesConfig struct {
	Dir string `yaml:"dir"`
}

const envPrefix = "CIPHERBREAK_"

// Default returns the built-in configuration.
func Default() Config {
	solver := cipher.DefaultSolverConfig()
	return Config{
		Solver: SolverConfig{
			Restarts:   solver.Restarts,
			Iterations: solver.Iterations,
			MinRails:   solver.MinRails,
			MaxRails:   solver.MaxRails,
			Parallel:   solver.Parallel,
		},
		Server: ServerConfig{
			HTTPAddr:        "127.0.0.1:8080",
			GRPCAddr:        "127.0.0.1:50051",
			JWTIssuer:       "cipherbreak",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Recipes: RecipesConfig{
			Dir: defaultRecipesDir(),
		},
		Tracing: tracing.Config{
			ServiceName: "cipherbreak",
			Exporter:    "none",
			SampleRatio: 1,
		},
	}
}

func defaultRecipesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cipherbreak/recipes"
	}
	return filepath.Join(home, ".cipherbreak", "recipes")
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. When path is non-empty only that file is read and
// it must exist. Otherwise the lookup order for configuration files is:
//  1. ~/.cipherbreak/config.yml
//  2. ./cipherbreak.yml (overrides the home file)
//
// Environment variables prefixed with CIPHERBREAK_ have the highest precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(&cfg, path, true); err != nil {
			return Config{}, err
		}
	} else {
		if err := loadHomeConfig(&cfg); err != nil {
			return Config{}, err
		}
		if err := loadFile(&cfg, "cipherbreak.yml", false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("determine home directory: %w", err)
	}
	return loadFile(cfg, filepath.Join(home, ".cipherbreak", "config.yml"), false)
}

func loadFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	ints := map[string]*int{
		"SOLVER_RESTARTS":   &cfg.Solver.Restarts,
		"SOLVER_ITERATIONS": &cfg.Solver.Iterations,
		"SOLVER_MIN_RAILS":  &cfg.Solver.MinRails,
		"SOLVER_MAX_RAILS":  &cfg.Solver.MaxRails,
		"SOLVER_PARALLEL":   &cfg.Solver.Parallel,
	}
	for name, dst := range ints {
		val := env(name)
		if val == "" {
			continue
		}
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = parsed
	}

	strs := map[string]*string{
		"HTTP_ADDR":    &cfg.Server.HTTPAddr,
		"GRPC_ADDR":    &cfg.Server.GRPCAddr,
		"METRICS_ADDR": &cfg.Server.MetricsAddr,
		"JWT_SECRET":   &cfg.Server.JWTSecret,
		"JWT_ISSUER":   &cfg.Server.JWTIssuer,
		"LOG_LEVEL":    &cfg.Log.Level,
		"LOG_FORMAT":   &cfg.Log.Format,
		"LOG_FILE":     &cfg.Log.File,
		"RECIPES_DIR":  &cfg.Recipes.Dir,

		"TRACE_EXPORTER": &cfg.Tracing.Exporter,
		"TRACE_ENDPOINT": &cfg.Tracing.Endpoint,
	}
	for name, dst := range strs {
		if val := env(name); val != "" {
			*dst = val
		}
	}

	if val := env("SOLVER_EXTRA_WORDS"); val != "" {
		cfg.Solver.ExtraWords = strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	if val := env("TRACE_INSECURE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%sTRACE_INSECURE: %w", envPrefix, err)
		}
		cfg.Tracing.Insecure = b
	}
	if val := env("TRACE_SAMPLE_RATIO"); val != "" {
		ratio, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%sTRACE_SAMPLE_RATIO: %w", envPrefix, err)
		}
		cfg.Tracing.SampleRatio = ratio
	}
	if val := env("SHUTDOWN_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%sSHUTDOWN_TIMEOUT: %w", envPrefix, err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	errs := []error{c.SolverConfig().Validate()}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// SolverConfig converts the solver section into the engine's settings.
func (c Config) SolverConfig() cipher.SolverConfig {
	return cipher.SolverConfig{
		Restarts:   c.Solver.Restarts,
		Iterations: c.Solver.Iterations,
		MinRails:   c.Solver.MinRails,
		MaxRails:   c.Solver.MaxRails,
		Parallel:   c.Solver.Parallel,
		ExtraWords: c.Solver.ExtraWords,
	}
}
