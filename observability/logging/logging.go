package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options tunes where and how verbosely Setup writes.
type Options struct {
	Level      slog.Level
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Output     io.Writer
}

// Option mutates Options.
type Option func(*Options)

// WithLevel sets the minimum level emitted.
func WithLevel(level slog.Level) Option {
	return func(o *Options) { o.Level = level }
}

// WithFile mirrors log lines into a size-rotated file.
func WithFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *Options) {
		o.File = strings.TrimSpace(path)
		o.MaxSizeMB = maxSizeMB
		o.MaxBackups = maxBackups
		o.MaxAgeDays = maxAgeDays
	}
}

// WithOutput replaces stdout as the primary sink. Tests use it to capture lines.
func WithOutput(w io.Writer) Option {
	return func(o *Options) { o.Output = w }
}

// Setup configures the standard library logger to emit structured JSON and returns
// the underlying slog.Logger for richer logging within the service. All log lines
// include the service name and environment when provided.
func Setup(service, env string, opts ...Option) *slog.Logger {
	options := Options{Level: slog.LevelInfo, Output: os.Stdout}
	for _, opt := range opts {
		opt(&options)
	}
	out := options.Output
	if out == nil {
		out = os.Stdout
	}
	if options.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(out, rotator)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: false,
		Level:     options.Level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				level := strings.ToUpper(attr.Value.String())
				return slog.String("severity", level)
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{
		slog.String("service", strings.TrimSpace(service)),
	}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	// Bridge the standard library logger so existing packages continue to work.
	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// ParseLevel maps textual levels ("debug", "warn", ...) onto slog levels,
// defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
