// Package plugins is the manifest of compiled-in check plugins.
//
// Packages that only provide functions for the shipped plugin files register
// them in check.DefaultFunctions when imported. Packages that declare checks
// themselves are listed in Builtins.
package plugins

import (
	"chk.szuro.net/pkg/check"

	_ "chk.szuro.net/plugins/cpu"
	_ "chk.szuro.net/plugins/df"
	"chk.szuro.net/plugins/mem"
	"chk.szuro.net/plugins/uptime"
)

// Builtins returns the compiled-in plugins in load order.
func Builtins() []check.Plugin {
	return []check.Plugin{
		mem.Plugin{},
		uptime.Plugin{},
	}
}
