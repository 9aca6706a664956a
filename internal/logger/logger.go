package logger

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	globalLogger *slog.Logger
	isTerminal   = term.IsTerminal
	stderr       io.Writer = os.Stderr
)

func init() {
	Init(LevelInfo, nil)
}

// Init replaces the process-wide logger. Console output goes to stderr in
// the pretty format; when logFile is non-nil every record is also written
// there as JSON lines and console colors are disabled.
func Init(level slog.Level, logFile io.Writer) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactAttr,
	}

	useColor := logFile == nil && stderrIsTerminal()
	var handler slog.Handler = NewPrettyHandler(stderr, opts, useColor)
	if logFile != nil {
		handler = newMultiHandler(handler, slog.NewJSONHandler(logFile, opts))
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// ParseLevel maps a --log-level value to a slog level. Unknown names fall
// back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return LevelInfo
	}
	return level
}

func stderrIsTerminal() bool {
	f, ok := stderr.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}

func Debug(msg string, args ...any) { globalLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { globalLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { globalLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { globalLogger.Error(msg, args...) }
