package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fhuszti/skillswap-media-ms/internal/api_context"
)

const serviceName = "skillswap-media"

var std *slog.Logger

// principalHandler appends the authenticated principal (or "system") to every record.
type principalHandler struct{ h slog.Handler }

func (p principalHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return p.h.Enabled(ctx, lvl)
}

func (p principalHandler) Handle(ctx context.Context, r slog.Record) error {
	uid := "system"
	if ctx != nil {
		if id, ok := api_context.AuthUserIDFromContext(ctx); ok {
			uid = id
		}
	}
	r.AddAttrs(slog.String("uid", uid))
	return p.h.Handle(ctx, r)
}

func (p principalHandler) WithAttrs(a []slog.Attr) slog.Handler {
	return principalHandler{h: p.h.WithAttrs(a)}
}

func (p principalHandler) WithGroup(n string) slog.Handler {
	return principalHandler{h: p.h.WithGroup(n)}
}

// Init configures the process-wide logger from the environment.
//
//	LOG_FORMAT    json|text (default: json)
//	LOG_LEVEL     debug|info|warn|error (default: info)
//	LOG_SOURCE    true|false (default: false)
func Init() {
	InitWriter(os.Stdout)
}

// InitWriter is Init with an explicit sink, used by tests.
func InitWriter(out io.Writer) {
	level := parseLevel(getEnv("LOG_LEVEL", "info"))
	addSource := parseBool(getEnv("LOG_SOURCE", "false"))
	format := strings.ToLower(getEnv("LOG_FORMAT", "json"))

	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}

	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}

	std = slog.New(principalHandler{h: base}).With("svc", serviceName)
	slog.SetDefault(std)

	// chi's request logger still goes through the std log package.
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(base, slog.LevelInfo).Writer())
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
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

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func activeLogger() *slog.Logger {
	if std != nil {
		return std
	}
	return slog.Default()
}

func Info(ctx context.Context, msg string, attrs ...any) {
	activeLogger().InfoContext(ctx, msg, attrs...)
}
func Warn(ctx context.Context, msg string, attrs ...any) {
	activeLogger().WarnContext(ctx, msg, attrs...)
}
func Error(ctx context.Context, msg string, attrs ...any) {
	activeLogger().ErrorContext(ctx, msg, attrs...)
}
func Debug(ctx context.Context, msg string, attrs ...any) {
	activeLogger().DebugContext(ctx, msg, attrs...)
}

func Infof(ctx context.Context, format string, a ...any) {
	activeLogger().InfoContext(ctx, fmt.Sprintf(format, a...))
}
func Errorf(ctx context.Context, format string, a ...any) {
	activeLogger().ErrorContext(ctx, fmt.Sprintf(format, a...))
}
func Warnf(ctx context.Context, format string, a ...any) {
	activeLogger().WarnContext(ctx, fmt.Sprintf(format, a...))
}
func Debugf(ctx context.Context, format string, a ...any) {
	activeLogger().DebugContext(ctx, fmt.Sprintf(format, a...))
}
