package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures a logger built by New.
type Option func(*config) error

type config struct {
	writers []io.Writer
	closers []io.Closer
	level   zapcore.Level
	format  string
}

func defaultConfig() *config {
	return &config{
		writers: []io.Writer{os.Stdout},
		level:   zapcore.InfoLevel,
		format:  "json",
	}
}

// WithWriter adds w as an additional sink.
func WithWriter(w io.Writer) Option {
	return func(cfg *config) error {
		if w == nil {
			return errors.New("writer cannot be nil")
		}
		cfg.writers = append(cfg.writers, w)
		return nil
	}
}

// WithFile appends log lines to the file at path.
func WithFile(path string) Option {
	return func(cfg *config) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("file path cannot be empty")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		cfg.writers = append(cfg.writers, f)
		cfg.closers = append(cfg.closers, f)
		return nil
	}
}

// WithoutStdout drops the default stdout sink.
func WithoutStdout() Option {
	return func(cfg *config) error {
		filtered := cfg.writers[:0]
		for _, w := range cfg.writers {
			if w == os.Stdout {
				continue
			}
			filtered = append(filtered, w)
		}
		cfg.writers = filtered
		return nil
	}
}

// WithLevel sets the minimum level: debug, info, warn or error.
func WithLevel(level string) Option {
	return func(cfg *config) error {
		if strings.TrimSpace(level) == "" {
			return nil
		}
		parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.level = parsed
		return nil
	}
}

// WithFormat selects json or console encoding.
func WithFormat(format string) Option {
	return func(cfg *config) error {
		switch f := strings.ToLower(strings.TrimSpace(format)); f {
		case "":
		case "json", "console":
			cfg.format = f
		default:
			return fmt.Errorf("invalid log format %q", format)
		}
		return nil
	}
}

// Logger is a zap logger that owns the files opened for it.
type Logger struct {
	*zap.Logger
	// base carries the sinks without the component field.
	base    *zap.Logger
	closers []io.Closer
}

// New builds a logger whose every line carries the component field.
func New(component string, opts ...Option) (*Logger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			for _, closer := range cfg.closers {
				_ = closer.Close()
			}
			return nil, err
		}
	}
	if len(cfg.writers) == 0 {
		return nil, errors.New("no writers configured for logger")
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(cfg.writers))
	for _, w := range cfg.writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}
	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(syncers...), cfg.level)

	base := zap.New(core, zap.AddCaller())
	return &Logger{
		Logger:  base.With(zap.String("component", component)),
		base:    base,
		closers: cfg.closers,
	}, nil
}

// MustNew is New that panics on error.
func MustNew(component string, opts ...Option) *Logger {
	logger, err := New(component, opts...)
	if err != nil {
		panic(err)
	}
	return logger
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	nop := zap.NewNop()
	return &Logger{Logger: nop, base: nop}
}

// WithComponent returns a logger sharing the same sinks under another
// component name. The returned logger does not own the sinks.
func (l *Logger) WithComponent(component string) *Logger {
	if l == nil || l.base == nil {
		return Nop()
	}
	return &Logger{Logger: l.base.With(zap.String("component", component)), base: l.base}
}

// Close flushes buffered output and closes any files opened by WithFile.
func (l *Logger) Close() error {
	if l == nil || l.Logger == nil {
		return nil
	}
	_ = l.Logger.Sync()
	var firstErr error
	for _, closer := range l.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}
