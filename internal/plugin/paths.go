package plugin

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IncludeSuffix marks include files. They are loaded on demand only.
const IncludeSuffix = ".include"

// PluginPaths returns the plugin files of the given directories, directory by
// directory, sorted by name. Hidden files, include files and subdirectories
// are left out; missing directories contribute nothing.
func PluginPaths(dirs ...string) []string {
	var paths []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		var names []string
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, IncludeSuffix) {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths
}

// IncludePath resolves an include file name. A file in the local directory
// shadows the shipped one.
func (o Options) IncludePath(name string) string {
	if o.LocalDir != "" {
		local := filepath.Join(o.LocalDir, name)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}
	return filepath.Join(o.ShippedDir, name)
}
