package check

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func okCheck(*string, any, any) Result { return Result{State: OK} }

func TestFunctionTableRegister(t *testing.T) {
	tests := []struct {
		name     string
		register func(*FunctionTable) error
		err      error
	}{
		{
			name:     "check",
			register: func(ft *FunctionTable) error { return ft.RegisterCheck("check_mem", okCheck) },
		},
		{
			name:     "empty name",
			register: func(ft *FunctionTable) error { return ft.RegisterCheck("", okCheck) },
			err:      ErrEmptyFunctionName,
		},
		{
			name:     "nil check",
			register: func(ft *FunctionTable) error { return ft.RegisterCheck("check_mem", nil) },
			err:      ErrNilFunction,
		},
		{
			name:     "nil discovery",
			register: func(ft *FunctionTable) error { return ft.RegisterDiscovery("inventory_mem", nil) },
			err:      ErrNilFunction,
		},
		{
			name:     "duplicate",
			register: func(ft *FunctionTable) error { return ft.RegisterCheck("check_df", okCheck) },
			err:      ErrDuplicateFunction,
		},
		{
			name: "same name different kind",
			register: func(ft *FunctionTable) error {
				return ft.RegisterParse("check_df", func([][]string) any { return nil })
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := NewFunctionTable()
			ft.MustRegisterCheck("check_df", okCheck)

			err := tt.register(ft)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFunctionTableLookup(t *testing.T) {
	ft := NewFunctionTable()
	ft.MustRegisterCheck("check_b", okCheck)
	ft.MustRegisterCheck("check_a", okCheck)
	ft.MustRegisterDiscovery("inventory_a", func(any) []Discovered { return []Discovered{{}} })
	ft.MustRegisterScan("scan_a", func(oid func(string) string) bool { return oid(".1") == "x" })

	require.Equal(t, []string{"check_a", "check_b"}, ft.CheckNames())
	require.Equal(t, []string{"inventory_a"}, ft.DiscoveryNames())

	fn, ok := ft.Check("check_a")
	require.True(t, ok)
	require.Equal(t, OK, fn(nil, nil, nil).State)

	_, ok = ft.Check("check_c")
	require.False(t, ok)

	scan, ok := ft.Scan("scan_a")
	require.True(t, ok)
	require.True(t, scan(func(string) string { return "x" }))

	_, ok = ft.Parse("scan_a")
	require.False(t, ok)
}

func TestFunctionTableRegisterAll(t *testing.T) {
	ft := NewFunctionTable()
	ft.MustRegisterCheck("check_mem", okCheck)

	staged := NewFunctionTable()
	staged.MustRegisterCheck("check_df", okCheck)
	staged.MustRegisterParse("parse_df", func([][]string) any { return nil })
	require.NoError(t, ft.RegisterAll(staged))
	require.Equal(t, []string{"check_df", "check_mem"}, ft.CheckNames())
	_, ok := ft.Parse("parse_df")
	require.True(t, ok)

	clash := NewFunctionTable()
	clash.MustRegisterDiscovery("inventory_cpu", func(any) []Discovered { return nil })
	clash.MustRegisterCheck("check_mem", okCheck)
	require.ErrorIs(t, ft.RegisterAll(clash), ErrDuplicateFunction)
	require.Equal(t, []string{"check_df", "check_mem"}, ft.CheckNames())
	require.Empty(t, ft.DiscoveryNames())

	require.NoError(t, ft.RegisterAll(ft))
}

func TestFunctionTableMustRegisterPanics(t *testing.T) {
	ft := NewFunctionTable()
	ft.MustRegisterCheck("check_df", okCheck)
	require.Panics(t, func() { ft.MustRegisterCheck("check_df", okCheck) })
	require.Panics(t, func() { ft.MustRegisterScan("", func(func(string) string) bool { return false }) })
}

func TestFunctionTableConcurrentAccess(t *testing.T) {
	ft := NewFunctionTable()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = ft.RegisterCheck(string(rune('a'+i)), okCheck)
			ft.Check("a")
			ft.CheckNames()
		}(i)
	}
	wg.Wait()
	require.Len(t, ft.CheckNames(), 20)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "OK", OK.String())
	require.Equal(t, "WARN", WARN.String())
	require.Equal(t, "CRIT", CRIT.String())
	require.Equal(t, "UNKNOWN", UNKNOWN.String())
	require.Equal(t, "UNKNOWN", State(7).String())
}
