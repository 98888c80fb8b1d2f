package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"chatfleet/internal/shared/config"
)

var (
	Logger      *slog.Logger
	atomicLevel *slog.LevelVar
)

// Init configures the package logger from config. Called once at startup;
// Get falls back to a console logger when Init never ran.
func Init(cfg *config.LoggerConfig) error {
	level := parseLevel(cfg.Level)
	atomicLevel = new(slog.LevelVar)
	atomicLevel.Set(level)

	writer, err := openOutput(cfg.OutputPath)
	if err != nil {
		return err
	}

	// Source location from warn up; everything when running at debug level.
	sourceFromLevel := slog.LevelWarn
	if level == slog.LevelDebug {
		sourceFromLevel = slog.LevelDebug
	}

	var base slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		base = slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     atomicLevel,
			AddSource: false,
		})
	} else {
		base = newConsoleHandler(writer, atomicLevel)
	}

	Logger = slog.New(newSourceFromLevelHandler(base, sourceFromLevel))
	slog.SetDefault(Logger)
	return nil
}

// Get returns the package logger, initializing a console default if needed.
func Get() *slog.Logger {
	if Logger == nil {
		base := newConsoleHandler(os.Stdout, slog.LevelInfo)
		Logger = slog.New(newSourceFromLevelHandler(base, slog.LevelWarn))
		slog.SetDefault(Logger)
	}
	return Logger
}

// SetLevel adjusts the level at runtime.
func SetLevel(level slog.Level) {
	if atomicLevel != nil {
		atomicLevel.Set(level)
	}
}

// Sync exists for symmetry with buffered logger backends; slog writes
// through, so there is nothing to flush.
func Sync() error {
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func openOutput(path string) (io.Writer, error) {
	switch strings.ToLower(path) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	}
}

func newConsoleHandler(writer io.Writer, level slog.Leveler) slog.Handler {
	return tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		AddSource:  false,
		NoColor:    !isTerminal(writer),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
