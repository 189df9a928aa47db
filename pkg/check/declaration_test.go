package check

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0, false},
		{1, true},
		{int64(0), false},
		{0.0, false},
		{0.5, true},
		{"", false},
		{"no", true},
		{[]any{}, false},
		{[]any{0}, true},
		{map[string]any{}, false},
		{map[string]any{"a": 1}, true},
		{struct{}{}, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Truthy(tt.value), "Truthy(%#v)", tt.value)
	}
}

func TestSectionName(t *testing.T) {
	require.Equal(t, "df", SectionName("df"))
	require.Equal(t, "df", SectionName("df.inodes"))
	require.Equal(t, "ps", SectionName("ps.perf.extra"))
	require.Equal(t, "", SectionName(""))
}

func TestHasItem(t *testing.T) {
	require.True(t, (&Declaration{ServiceDescription: "Filesystem %s"}).HasItem())
	require.False(t, (&Declaration{ServiceDescription: "Memory"}).HasItem())
}

func TestRawDeclarationDefaultLevelsVariable(t *testing.T) {
	lookup := func() string { return "from_side_table" }

	require.Equal(t, "df_levels", FromDeclaration(&Declaration{DefaultLevelsVariable: "df_levels"}).DefaultLevelsVariable(lookup))
	require.Equal(t, "mem_levels", FromDict(map[string]any{KeyDefaultLevelsVar: "mem_levels"}).DefaultLevelsVariable(lookup))
	require.Equal(t, "", FromDict(map[string]any{KeyDefaultLevelsVar: 3}).DefaultLevelsVariable(lookup))
	require.Equal(t, "from_side_table", FromLegacy(LegacyDeclaration{}).DefaultLevelsVariable(lookup))
}

func TestItem(t *testing.T) {
	a, b := Item("/"), Item("/")
	require.Equal(t, "/", *a)
	require.NotSame(t, a, b)
}
