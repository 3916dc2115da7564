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

//go:build linux || darwin

package resource

import (
	"encoding/json"
	"fmt"
	"plugin"
)

// open dlopen-equivalent loads the shared object backing extName using
// Go's plugin package, the standard-library trait Design Notes §9
// points at for encapsulating dlopen/LoadLibrary. The Go-idiomatic ABI
// an extension must export is two symbols:
//
//	ExtensionInit func() string                                 // JSON Manifest
//	ExtensionCall func(resource, method string, in []uint64) ([]uint64, error)
//
// This is the same contract as spec.md §6's extension_init/manifest ABI,
// adapted from a C calling convention to a native Go one since plugin
// loading in this module never crosses a cgo boundary.
func open(extName string) (*loadedExtension, error) {
	path, err := findExtensionFile(extName)
	if err != nil {
		return nil, err
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extension unavailable: %w", err)
	}
	initSym, err := p.Lookup("ExtensionInit")
	if err != nil {
		return nil, fmt.Errorf("extension %s missing ExtensionInit: %w", extName, err)
	}
	initFn, ok := initSym.(func() string)
	if !ok {
		return nil, fmt.Errorf("extension %s: ExtensionInit has the wrong signature", extName)
	}
	callSym, err := p.Lookup("ExtensionCall")
	if err != nil {
		return nil, fmt.Errorf("extension %s missing ExtensionCall: %w", extName, err)
	}
	callFn, ok := callSym.(func(string, string, []uint64) ([]uint64, error))
	if !ok {
		return nil, fmt.Errorf("extension %s: ExtensionCall has the wrong signature", extName)
	}

	var manifest Manifest
	if err := json.Unmarshal([]byte(initFn()), &manifest); err != nil {
		return nil, fmt.Errorf("extension %s: malformed manifest: %w", extName, err)
	}
	if err := validateManifest(&manifest); err != nil {
		return nil, fmt.Errorf("extension %s: %w", extName, err)
	}
	return &loadedExtension{
		manifest: manifest,
		dispatch: Dispatch(callFn),
		// Go plugins cannot be unloaded from a running process; close is
		// therefore a no-op, matching the documented limitation that
		// plugin.Open's mapping lives for the lifetime of the process.
		close: func() error { return nil },
	}, nil
}
