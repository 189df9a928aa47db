package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/pkg/check"
)

func TestServiceDescription(t *testing.T) {
	d := NewDescriber(memDecls())

	tests := []struct {
		name      string
		checkType string
		item      *string
		expected  string
	}{
		{name: "placeholder", checkType: "df", item: check.Item("/var"), expected: "Filesystem /var"},
		{name: "no placeholder appends item", checkType: "mem", item: check.Item("total"), expected: "Memory total"},
		{name: "no item", checkType: "mem", expected: "Memory"},
		{name: "unknown check", checkType: "foo", expected: "Unimplemented check foo"},
		{name: "unknown check with item", checkType: "foo", item: check.Item("bar"), expected: "Unimplemented check foo / bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, d.ServiceDescription("h", tt.checkType, tt.item))
		})
	}
}

func TestDeepCopy(t *testing.T) {
	orig := map[string]any{
		"levels": []any{1.0, map[string]any{"x": []string{"a"}}},
		"name":   "x",
	}
	c := deepCopy(orig).(map[string]any)
	require.Equal(t, orig, c)

	c["levels"].([]any)[1].(map[string]any)["x"].([]string)[0] = "b"
	c["name"] = "y"
	require.Equal(t, "a", orig["levels"].([]any)[1].(map[string]any)["x"].([]string)[0])
	require.Equal(t, "x", orig["name"])
}
