package utils

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

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	DebugMode      bool
	CurrentLevel   LogLevel = LevelWarn
	ShowRaylibInfo bool
	ShowDebugUI    bool
	NoColor        bool
)

var (
	outputMu sync.Mutex
	output   = log.New(os.Stderr, "", log.LstdFlags)
)

const (
	colorReset   = "\033[0m"
	colorCyan    = "\033[36m"
	colorBlue    = "\033[34m"
	colorYellow  = "\033[33m"
	colorRed     = "\033[31m"
	colorMagenta = "\033[35m"
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

func (l LogLevel) color() string {
	switch l {
	case LevelDebug:
		return colorCyan
	case LevelInfo:
		return colorBlue
	case LevelWarn:
		return colorYellow
	case LevelError:
		return colorRed
	}
	return ""
}

// ParseLevel maps a -log-level flag value to a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", name)
}

// SetOutput redirects all log lines, including the raylib and gg bridges.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = log.New(w, "", log.LstdFlags)
}

func logMessage(level LogLevel, format string, v ...interface{}) {
	if level < CurrentLevel {
		return
	}
	emit(level, format, v...)
}

func emit(level LogLevel, format string, v ...interface{}) {
	var prefix string
	if NoColor {
		prefix = fmt.Sprintf("[%s] ", level)
	} else {
		prefix = fmt.Sprintf("%s[%s]%s ", level.color(), level, colorReset)
	}

	outputMu.Lock()
	defer outputMu.Unlock()
	output.Printf(prefix+format, v...)
}

func Info(format string, v ...interface{})  { logMessage(LevelInfo, format, v...) }
func Debug(format string, v ...interface{}) { logMessage(LevelDebug, format, v...) }
func Warn(format string, v ...interface{})  { logMessage(LevelWarn, format, v...) }
func Error(format string, v ...interface{}) { logMessage(LevelError, format, v...) }

func tag(name string) string {
	if NoColor {
		return "[" + name + "] "
	}
	return colorMagenta + "[" + name + "] " + colorReset
}

// Same numbering as raylib's TraceLogLevel. Kept local so packages that
// only log do not link raylib.
const (
	raylibTrace = iota + 1
	raylibDebug
	raylibInfo
	raylibWarning
	raylibError
	raylibFatal
)

// RaylibLogCallback is installed with rl.SetTraceLogCallback.
func RaylibLogCallback(level int, text string) {
	text = tag("RAYLIB") + text
	switch level {
	case raylibTrace, raylibDebug:
		Debug("%s", text)
	case raylibInfo:
		if ShowRaylibInfo || CurrentLevel <= LevelInfo {
			emit(LevelInfo, "%s", text)
		}
	case raylibWarning:
		Warn("%s", text)
	case raylibError, raylibFatal:
		Error("%s", text)
	}
}

// SlogHandler forwards records from libraries that log through log/slog
// (gg) into the leveled logger above.
type SlogHandler struct {
	Source string
	attrs  []slog.Attr
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogLevel(level) >= CurrentLevel
}

func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(tag(h.Source))
	sb.WriteString(record.Message)
	for _, attr := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", attr.Key, attr.Value)
		return true
	})
	logMessage(slogLevel(record.Level), "%s", sb.String())
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SlogHandler{Source: h.Source, attrs: merged}
}

func (h *SlogHandler) WithGroup(string) slog.Handler { return h }

func slogLevel(level slog.Level) LogLevel {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	}
	return LevelDebug
}
