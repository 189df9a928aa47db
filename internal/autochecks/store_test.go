package autochecks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/pkg/check"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGet(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Put("web01", []Service{
		{CheckType: "mem", Params: map[string]any{"levels": []any{80.0, 90.0}}},
		{CheckType: "df", Item: check.Item("/var"), Params: map[string]any{"inodes": true}},
		{CheckType: "df", Item: check.Item("")},
	}))

	services, err := s.Get("web01")
	require.NoError(t, err)
	require.Len(t, services, 3)

	require.Equal(t, "df", services[0].CheckType)
	require.NotNil(t, services[0].Item)
	require.Equal(t, "", *services[0].Item)
	require.Nil(t, services[0].Params)

	require.Equal(t, "/var", *services[1].Item)
	require.Equal(t, map[string]any{"inodes": true}, services[1].Params)

	require.Equal(t, "mem", services[2].CheckType)
	require.Nil(t, services[2].Item)
	require.Equal(t, map[string]any{"levels": []any{80.0, 90.0}}, services[2].Params)

	services, err = s.Get("unknown")
	require.NoError(t, err)
	require.Empty(t, services)
}

func TestStoreMerge(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Put("web01", []Service{
		{CheckType: "df", Item: check.Item("/"), Params: []any{80.0, 90.0}},
		{CheckType: "uptime"},
	}))
	require.NoError(t, s.Merge("web01", []Service{
		{CheckType: "df", Item: check.Item("/"), Params: []any{85.0, 95.0}},
		{CheckType: "df", Item: check.Item("/boot")},
	}))

	services, err := s.Get("web01")
	require.NoError(t, err)
	require.Len(t, services, 3)

	svc, ok, err := s.Lookup("web01", "df", check.Item("/"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []any{85.0, 95.0}, svc.Params)

	_, ok, err = s.Lookup("web01", "df", nil)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.Lookup("web01", "uptime", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStoreHostsAndRemove(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Put("web02", []Service{{CheckType: "mem"}}))
	require.NoError(t, s.Put("db01", []Service{{CheckType: "mem"}}))
	require.NoError(t, s.Put("empty", nil))

	hosts, err := s.Hosts()
	require.NoError(t, err)
	require.Equal(t, []string{"db01", "web02"}, hosts)

	require.NoError(t, s.Remove("db01"))
	hosts, err = s.Hosts()
	require.NoError(t, err)
	require.Equal(t, []string{"web02"}, hosts)
}

func TestStorePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("web01", []Service{{CheckType: "cpu.loads", Params: []any{5.0, 10.0}}}))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	svc, ok, err := s.Lookup("web01", "cpu.loads", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []any{5.0, 10.0}, svc.Params)
}
