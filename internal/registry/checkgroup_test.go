package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chk.szuro.net/pkg/check"
)

func TestVerifyCheckgroupMembers(t *testing.T) {
	tests := []struct {
		name    string
		decls   map[string]*check.Declaration
		wantErr string
	}{
		{
			name: "all with item",
			decls: map[string]*check.Declaration{
				"df":        {ServiceDescription: "Filesystem %s", Group: "filesystem"},
				"hr_fs":     {ServiceDescription: "Filesystem %s", Group: "filesystem"},
				"mem.linux": {ServiceDescription: "Memory", Group: "memory"},
			},
		},
		{
			name: "checks without group are ignored",
			decls: map[string]*check.Declaration{
				"uptime": {ServiceDescription: "Uptime"},
				"df":     {ServiceDescription: "Filesystem %s"},
			},
		},
		{
			name: "mixed group",
			decls: map[string]*check.Declaration{
				"df":          {ServiceDescription: "Filesystem %s", Group: "filesystem"},
				"zfs_pool":    {ServiceDescription: "ZFS pool", Group: "filesystem"},
				"hr_fs":       {ServiceDescription: "Filesystem %s", Group: "filesystem"},
				"mem.linux":   {ServiceDescription: "Memory", Group: "memory"},
				"mem.vmalloc": {ServiceDescription: "Vmalloc", Group: "memory"},
			},
			wantErr: "checkgroup filesystem (with item: df, hr_fs, without item: zfs_pool)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(check.NewFunctionTable())
			for name, d := range tt.decls {
				r.Checks[name] = check.FromDeclaration(d)
			}
			err := VerifyCheckgroupMembers(r)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMixedCheckgroup)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVerifyCheckgroupMembersNeedsNormalizedRegistry(t *testing.T) {
	r := New(check.NewFunctionTable())
	r.Checks["cpu"] = check.FromLegacy(check.LegacyDeclaration{ServiceDescription: "CPU load"})
	require.ErrorIs(t, VerifyCheckgroupMembers(r), ErrNotNormalized)
}

func TestChecksByCheckgroup(t *testing.T) {
	groups := ChecksByCheckgroup(map[string]*check.Declaration{
		"df":     {Group: "filesystem"},
		"hr_fs":  {Group: "filesystem"},
		"uptime": {},
	})
	require.Equal(t, map[string][]string{"filesystem": {"df", "hr_fs"}}, groups)
}
