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

package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/viodotcom/jyafn/resource"
)

// entry point for 'jyafn ext get <url>'. Downloads a shared object into
// the first directory of resource.SearchPath(), creating it if needed.
func extGet(rawURL string) {
	dirs := resource.SearchPath()
	if len(dirs) == 0 {
		exitf("ext get: no extension search directory configured (set JYAFN_PATH)")
	}
	dir := dirs[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		exitf("ext get: creating %s: %s", dir, err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		exitf("ext get: invalid url %q: %s", rawURL, err)
	}
	name := filepath.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		exitf("ext get: cannot derive a file name from %q", rawURL)
	}

	resp, err := http.Get(rawURL)
	if err != nil {
		exitf("ext get: downloading %s: %s", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		exitf("ext get: downloading %s: %s", rawURL, resp.Status)
	}

	dest := filepath.Join(dir, name)
	f, err := os.Create(dest)
	if err != nil {
		exitf("ext get: creating %s: %s", dest, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		exitf("ext get: writing %s: %s", dest, err)
	}
	fmt.Fprintln(os.Stdout, dest)
}

// entry point for 'jyafn ext ls'.
func extLs() {
	names, err := resource.Installed()
	if err != nil {
		exitf("ext ls: %s", err)
	}
	for _, name := range names {
		manifest, err := resource.Inspect(name)
		if err != nil {
			fmt.Fprintf(os.Stdout, "%s\t<error: %s>\n", name, err)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\n", manifest.Metadata.Name, manifest.Metadata.Version)
	}
}

// entry point for 'jyafn ext rm <name>'.
func extRm(name string) {
	removed, err := resource.RemoveInstalled(name)
	if err != nil {
		exitf("ext rm: %s", err)
	}
	if removed == 0 {
		exitf("ext rm: no installed extension named %q", name)
	}
	fmt.Fprintf(os.Stdout, "removed %d file(s)\n", removed)
}
