package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/pkg/check"
)

type brokenProvider struct {
	specs []check.FunctionSpec
	err   error
}

func (p brokenProvider) Functions() ([]check.FunctionSpec, error) { return p.specs, nil }

func (p brokenProvider) Check(string, *string, any, any) (check.Result, error) {
	return check.Result{}, p.err
}

func (p brokenProvider) Discover(string, any) ([]check.Discovered, error) { return nil, p.err }

func TestRegisterProvider(t *testing.T) {
	remote := check.NewFunctionTable()
	remote.MustRegisterCheck("check_ntp", func(item *string, params any, section any) check.Result {
		return check.Result{State: check.WARN, Summary: "offset " + *item}
	})
	remote.MustRegisterDiscovery("inventory_ntp", func(section any) []check.Discovered {
		return []check.Discovered{{Item: check.Item("pool.ntp.org")}}
	})

	local := check.NewFunctionTable()
	specs, err := RegisterProvider("ntp", check.TableProvider{Table: remote}, local)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, []string{"ntp.check_ntp"}, local.CheckNames())
	require.Equal(t, []string{"ntp.inventory_ntp"}, local.DiscoveryNames())

	fn, ok := local.Check("ntp.check_ntp")
	require.True(t, ok)
	res := fn(check.Item("pool"), nil, nil)
	require.Equal(t, check.WARN, res.State)
	require.Equal(t, "offset pool", res.Summary)

	discover, _ := local.Discovery("ntp.inventory_ntp")
	found := discover(nil)
	require.Len(t, found, 1)
	require.Equal(t, "pool.ntp.org", *found[0].Item)
}

func TestRegisterProviderErrors(t *testing.T) {
	p := brokenProvider{
		specs: []check.FunctionSpec{
			{Kind: check.KindCheck, Name: "check_x"},
			{Kind: check.KindDiscovery, Name: "inventory_x"},
		},
		err: errors.New("connection reset"),
	}
	local := check.NewFunctionTable()
	_, err := RegisterProvider("x", p, local)
	require.NoError(t, err)

	fn, _ := local.Check("x.check_x")
	res := fn(nil, nil, nil)
	require.Equal(t, check.UNKNOWN, res.State)
	require.Contains(t, res.Summary, "connection reset")

	discover, _ := local.Discovery("x.inventory_x")
	require.Nil(t, discover(nil))

	_, err = RegisterProvider("x", p, local)
	require.ErrorIs(t, err, check.ErrDuplicateFunction)

	_, err = RegisterProvider("y", brokenProvider{specs: []check.FunctionSpec{{Kind: "metric", Name: "m"}}}, local)
	require.Error(t, err)
}

func TestRegisterProviderRejectedLeavesTableUnchanged(t *testing.T) {
	local := check.NewFunctionTable()
	local.MustRegisterCheck("ntp.check_peer", func(*string, any, any) check.Result { return check.Result{} })

	tests := []struct {
		name  string
		specs []check.FunctionSpec
		err   error
	}{
		{
			name: "unknown kind",
			specs: []check.FunctionSpec{
				{Kind: check.KindCheck, Name: "check_ntp"},
				{Kind: "bogus", Name: "x"},
			},
		},
		{
			name: "taken name",
			specs: []check.FunctionSpec{
				{Kind: check.KindDiscovery, Name: "inventory_ntp"},
				{Kind: check.KindCheck, Name: "check_peer"},
			},
			err: check.ErrDuplicateFunction,
		},
		{
			name: "announced twice",
			specs: []check.FunctionSpec{
				{Kind: check.KindCheck, Name: "check_ntp"},
				{Kind: check.KindCheck, Name: "check_ntp"},
			},
			err: check.ErrDuplicateFunction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RegisterProvider("ntp", brokenProvider{specs: tt.specs}, local)
			require.Error(t, err)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
			}
			require.Equal(t, []string{"ntp.check_peer"}, local.CheckNames())
			require.Empty(t, local.DiscoveryNames())
		})
	}
}

func TestProviderRegistryEmptyDir(t *testing.T) {
	pr := NewProviderRegistry()
	require.NoError(t, pr.LoadProvidersFromDir(t.TempDir(), check.NewFunctionTable()))
	_, ok := pr.GetProvider("anything")
	require.False(t, ok)
	pr.CleanupAll()
}
