package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-hclog"
)

// hclog has a Trace level below Debug; it is logged as slog Debug.
var hclogLevels = map[hclog.Level]slog.Level{
	hclog.NoLevel:      slog.LevelInfo,
	hclog.DefaultLevel: slog.LevelInfo,
	hclog.Trace:        slog.LevelDebug,
	hclog.Debug:        slog.LevelDebug,
	hclog.Info:         slog.LevelInfo,
	hclog.Warn:         slog.LevelWarn,
	hclog.Error:        slog.LevelError,
}

func toSlogLevel(l hclog.Level) (slog.Level, bool) {
	lvl, ok := hclogLevels[l]
	return lvl, ok
}

func toHCLogLevel(l slog.Level) hclog.Level {
	switch {
	case l <= slog.LevelDebug:
		return hclog.Debug
	case l <= slog.LevelInfo:
		return hclog.Info
	case l <= slog.LevelWarn:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

// HCLogAdapter is the go-plugin client logger. Provider output ends up in the
// daemon log tagged with the provider name.
type HCLogAdapter struct {
	logger  *ChkLogger
	name    string
	implied []any
}

func NewHCLogAdapter(name string) hclog.Logger {
	return &HCLogAdapter{
		logger: Default().With(slog.String("provider", name)),
		name:   name,
	}
}

// Log drops records of hclog.Off and unknown levels.
func (h *HCLogAdapter) Log(l hclog.Level, msg string, args ...any) {
	lvl, ok := toSlogLevel(l)
	if !ok || !h.logger.Enabled(lvl) {
		return
	}
	h.logger.slogger.Log(context.Background(), lvl, msg, genericPairs(args...)...)
}

func (h *HCLogAdapter) Trace(msg string, args ...any) { h.Log(hclog.Trace, msg, args...) }
func (h *HCLogAdapter) Debug(msg string, args ...any) { h.Log(hclog.Debug, msg, args...) }
func (h *HCLogAdapter) Info(msg string, args ...any)  { h.Log(hclog.Info, msg, args...) }
func (h *HCLogAdapter) Warn(msg string, args ...any)  { h.Log(hclog.Warn, msg, args...) }
func (h *HCLogAdapter) Error(msg string, args ...any) { h.Log(hclog.Error, msg, args...) }

func (h *HCLogAdapter) enabled(l hclog.Level) bool {
	lvl, _ := toSlogLevel(l)
	return h.logger.Enabled(lvl)
}

func (h *HCLogAdapter) IsTrace() bool { return h.enabled(hclog.Trace) }
func (h *HCLogAdapter) IsDebug() bool { return h.enabled(hclog.Debug) }
func (h *HCLogAdapter) IsInfo() bool  { return h.enabled(hclog.Info) }
func (h *HCLogAdapter) IsWarn() bool  { return h.enabled(hclog.Warn) }
func (h *HCLogAdapter) IsError() bool { return h.enabled(hclog.Error) }

func (h *HCLogAdapter) ImpliedArgs() []any { return h.implied }

func (h *HCLogAdapter) With(args ...any) hclog.Logger {
	return &HCLogAdapter{
		logger:  h.logger.With(genericPairs(args...)...),
		name:    h.name,
		implied: append(slices.Clone(h.implied), args...),
	}
}

func (h *HCLogAdapter) Name() string { return h.name }

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	if h.name != "" {
		name = h.name + "." + name
	}
	return h.ResetNamed(name)
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{logger: h.logger, name: name, implied: h.implied}
}

// SetLevel is ignored, the level belongs to SetLogLevel.
func (h *HCLogAdapter) SetLevel(hclog.Level) {}

func (h *HCLogAdapter) GetLevel() hclog.Level { return toHCLogLevel(level.Level()) }

func (h *HCLogAdapter) StandardLogger(*hclog.StandardLoggerOptions) *log.Logger {
	return slog.NewLogLogger(h.logger.slogger.Handler(), slog.LevelInfo)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return h.StandardLogger(opts).Writer()
}
