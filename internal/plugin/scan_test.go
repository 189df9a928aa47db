package plugin

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncludesOf(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name: "check_info and check_includes",
			content: `
check_info:
  if:
    includes: [if.include, network.include]
  if.errors:
    includes: [if.include]
  ps: [check_ps, Process %s, 0, no_discovery_possible]
check_includes:
  df: [size_trend.include, if.include]
`,
			want: []string{"if.include", "network.include", "size_trend.include"},
		},
		{
			name:    "no includes",
			content: "variables:\n  x: 1\n",
		},
		{
			name:    "empty file",
			content: "",
		},
		{
			name:    "includes is a string",
			content: "check_info:\n  if:\n    includes: if.include\n",
			wantErr: true,
		},
		{
			name:    "includes is a mapping",
			content: "check_info:\n  if:\n    includes: {a: b}\n",
			wantErr: true,
		},
		{
			name:    "broken yaml",
			content: "check_info: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "plugin", tt.content)
			got, err := IncludesOf(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIncludesOfMissingFile(t *testing.T) {
	_, err := IncludesOf(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
