package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

// loggerNameKey is the attribute every logger returned by GetLogger carries.
const loggerNameKey = "logger"

//nolint:gochecknoglobals
var logLevelStrToLevel = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every record
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides the level per logger name ("svc.authsvc:debug,repo:warn")
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to JSON lines
	JSON bool `env:"JSON" default:"false"`

	// Color enables ANSI colors in the console format
	Color bool `env:"COLOR" default:"true"`

	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	config     LoggerConfig
	configLock sync.RWMutex
)

// Configure sets up the global logging configuration.
// Loggers obtained before the call keep their old configuration.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	configure(cfg, appName)

	GetLogger("infra.logging").With(Group("config",
		"app", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	)).DebugContext(ctx, "logging configured")
}

func configure(cfg LoggerConfig, appName string) {
	configLock.Lock()
	defer configLock.Unlock()

	config = cfg
	config.AppName = appName

	if cfg.OutputHandle != nil {
		return
	}

	switch cfg.Output {
	case "", "discard":
		config.OutputHandle = io.Discard
	case "stdout":
		config.OutputHandle = os.Stdout
	case "stderr":
		config.OutputHandle = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			panic(fmt.Errorf("open log file: %w", err))
		}

		config.OutputHandle = file
	}
}

// GetLogLogger adapts a Logger for code that expects a *log.Logger, such as http.Server.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// GetLogger returns a logger named after the calling component, e.g. "svc.mediasvc".
func GetLogger(name string) Logger {
	configLock.RLock()
	cfg := config
	configLock.RUnlock()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := parseLogLevel(cfg.Level, LevelInfo)

	var handler slog.Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     cfg.levelFor(name, level),
		})
	} else {
		//nolint:exhaustruct
		handler = &ConsoleHandler{
			Output: cfg.OutputHandle,
			Level:  cfg.levelFor(name, level),
			Color:  cfg.Color,
			mu:     new(sync.Mutex),
		}
	}

	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With(loggerNameKey, name)
}

// levelFor resolves the level of a logger from the filter, matching the longest
// dotted prefix of its name.
func (cfg LoggerConfig) levelFor(name string, fallback Level) Level {
	overrides := make(map[string]Level)

	for _, entry := range strings.Split(cfg.Filter, ",") {
		pkg, level, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}

		overrides[pkg] = parseLogLevel(level, LevelDebug)
	}

	for key := name; key != ""; {
		if level, ok := overrides[key]; ok {
			return level
		}

		idx := strings.LastIndex(key, ".")
		if idx < 0 {
			break
		}

		key = key[:idx]
	}

	return fallback
}

func parseLogLevel(levelStr string, fallback Level) Level {
	level, ok := logLevelStrToLevel[strings.ToLower(strings.TrimSpace(levelStr))]
	if !ok {
		return fallback
	}

	return level
}
