// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package resource

import (
	"os"
	"path/filepath"
	"strings"
)

// SearchPath returns the extension search directories, read from
// JYAFN_PATH (comma or colon separated) the same small-helper way the
// teacher package centralizes its own AWS_* environment parsing in
// aws/env.go, rather than scattering os.Getenv calls. Falls back to
// ~/.jyafn/extensions when JYAFN_PATH is unset.
func SearchPath() []string {
	v := os.Getenv("JYAFN_PATH")
	if v == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{filepath.Join(home, ".jyafn", "extensions")}
	}
	sep := ","
	if strings.Contains(v, ":") && !strings.Contains(v, ",") {
		sep = ":"
	}
	var out []string
	for _, p := range strings.Split(v, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Installed lists the extension names found as shared objects across
// SearchPath(), stripping the "lib" prefix and ".so" suffix
// findExtensionFile's own naming convention uses, deduplicated across
// directories. It backs cmd/jyafn's "ext ls"/"ext rm".
func Installed() ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, dir := range SearchPath() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".so") {
				continue
			}
			name := strings.TrimSuffix(e.Name(), ".so")
			name = strings.TrimPrefix(name, "lib")
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// RemoveInstalled deletes every shared object file on SearchPath() that
// findExtensionFile would resolve name to. It reports the number of
// files removed.
func RemoveInstalled(name string) (int, error) {
	candidates := []string{name + ".so", "lib" + name + ".so"}
	removed := 0
	for _, dir := range SearchPath() {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if err := os.Remove(p); err == nil {
				removed++
			} else if !os.IsNotExist(err) {
				return removed, err
			}
		}
	}
	return removed, nil
}
