package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestGenericPairs(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want []any
	}{
		{name: "empty", in: nil, want: []any{}},
		{
			name: "pairs",
			in:   []interface{}{"file", "a.ndjson", "offset", 12},
			want: []any{slog.Any("file", "a.ndjson"), slog.Any("offset", 12)},
		},
		{
			name: "non string key",
			in:   []interface{}{1, "x"},
			want: []any{slog.Any("arg_0", "x")},
		},
		{
			name: "trailing value",
			in:   []interface{}{"file", "a", "dangling"},
			want: []any{slog.Any("file", "a"), slog.Any("extra", "dangling")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, genericPairs(tt.in...))
		})
	}
}

func TestBadgerLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewChkLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Warningf("value log %d rotated", 3)
	require.Contains(t, buf.String(), "value log 3 rotated")
	require.Contains(t, buf.String(), "component=badger")
}

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel(slog.LevelInfo)

	SetLogLevel(slog.LevelWarn)
	require.Equal(t, slog.LevelWarn, Level().Level())
	require.False(t, Default().Enabled(slog.LevelInfo))
	require.True(t, Default().Enabled(slog.LevelError))

	a := NewHCLogAdapter("ntp")
	require.False(t, a.IsDebug())
	require.True(t, a.IsWarn())
}

func TestHCLogAdapter(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)
	defer SetLogLevel(slog.LevelInfo)

	var buf bytes.Buffer
	SetDefault(NewChkLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	SetLogLevel(slog.LevelInfo)

	a := NewHCLogAdapter("ntp")
	require.Equal(t, hclog.Info, a.GetLevel())

	a.Debug("handshake")
	a.Log(hclog.Off, "silent")
	require.Empty(t, buf.String())

	rpc := a.Named("rpc").With("pid", 42)
	require.Equal(t, "ntp.rpc", rpc.Name())
	require.Equal(t, []any{"pid", 42}, rpc.ImpliedArgs())

	rpc.Warn("restarted", "attempt", 2)
	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "provider=ntp")
	require.Contains(t, out, "pid=42")
	require.Contains(t, out, "attempt=2")
	require.NotContains(t, out, "handshake")
}
