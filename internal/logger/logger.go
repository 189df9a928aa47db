// Package logger wraps log/slog for the daemon. The same logger also serves
// as the badger logger, the tail logger and, through HCLogAdapter, the
// go-plugin logger.
package logger

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

var chkLogger atomic.Pointer[ChkLogger]

var level = new(slog.LevelVar)

func init() {
	chkLogger.Store(NewChkLogger(slog.Default()))
}

type ChkLogger struct {
	slogger *slog.Logger
}

func NewChkLogger(l *slog.Logger) *ChkLogger {
	return &ChkLogger{slogger: l}
}

func Default() *ChkLogger {
	return chkLogger.Load()
}

// SetDefault replaces the package logger, e.g. with a JSON handler.
func SetDefault(l *ChkLogger) {
	chkLogger.Store(l)
}

func SetLogLevel(l slog.Level) {
	level.Set(l)
	slog.SetLogLoggerLevel(l)
}

// Level returns the level set with SetLogLevel, for handlers created later.
func Level() slog.Leveler {
	return level
}

// With returns a logger that adds args to every record.
func (l *ChkLogger) With(args ...any) *ChkLogger {
	return &ChkLogger{slogger: l.slogger.With(args...)}
}

func (l *ChkLogger) Enabled(lvl slog.Level) bool {
	return level.Level() <= lvl
}

// slog wrapper

func Debug(msg string, args ...any) {
	chkLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	chkLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	chkLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	chkLogger.Load().Error(msg, args...)
}

func (l *ChkLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *ChkLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *ChkLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *ChkLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// badger.Logger

func (l *ChkLogger) Errorf(format string, args ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *ChkLogger) Warningf(format string, args ...interface{}) {
	l.slogger.Warn(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *ChkLogger) Infof(format string, args ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

func (l *ChkLogger) Debugf(format string, args ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, args...), slog.String("component", "badger"))
}

// tail.Logger; the tail package must never take the daemon down, so Fatal and
// Panic only log.

func (l *ChkLogger) Fatal(v ...interface{}) {
	l.slogger.Error("Tail failure", genericPairs(v...)...)
}

func (l *ChkLogger) Fatalf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *ChkLogger) Fatalln(v ...interface{}) {
	l.slogger.Error("Tail failure", genericPairs(v...)...)
}

func (l *ChkLogger) Panic(v ...interface{}) {
	l.slogger.Error("Tail panic", genericPairs(v...)...)
}

func (l *ChkLogger) Panicf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *ChkLogger) Panicln(v ...interface{}) {
	l.slogger.Error("Tail panic", genericPairs(v...)...)
}

func (l *ChkLogger) Print(v ...interface{}) {
	l.slogger.Info(fmt.Sprint(v...))
}

func (l *ChkLogger) Printf(format string, v ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, v...))
}

func (l *ChkLogger) Println(v ...interface{}) {
	l.slogger.Info(fmt.Sprint(v...))
}

// genericPairs turns alternating keys and values into slog attributes. A
// trailing key without value is kept under "extra".
func genericPairs(v ...interface{}) []any {
	pairs := make([]any, 0, len(v)/2+1)
	i := 0
	for ; i < len(v)-1; i += 2 {
		key, ok := v[i].(string)
		if !ok {
			key = fmt.Sprintf("arg_%d", i)
		}
		pairs = append(pairs, slog.Any(key, v[i+1]))
	}
	if i < len(v) {
		pairs = append(pairs, slog.Any("extra", v[i]))
	}
	return pairs
}
