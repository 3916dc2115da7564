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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/viodotcom/jyafn/jyafnerr"
	"github.com/viodotcom/jyafn/layout"
)

// Manifest is the JSON shape an extension's init entry point returns,
// per spec.md §6: {"metadata":{"name":"...","version":"..."},
// "resources":{<resource_name>:{<method_name>:{"in":Layout,"out":Layout}}}}.
type Manifest struct {
	Metadata struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"metadata"`
	Resources map[string]map[string]struct {
		In  layout.Layout `json:"in"`
		Out layout.Layout `json:"out"`
	} `json:"resources"`
}

var nameRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
var semverRE = regexp.MustCompile(`^\d+\.\d+\.\d+`)

func validateManifest(m *Manifest) error {
	if !nameRE.MatchString(m.Metadata.Name) {
		return fmt.Errorf("invalid extension name %q", m.Metadata.Name)
	}
	if !semverRE.MatchString(m.Metadata.Version) {
		return fmt.Errorf("invalid extension version %q", m.Metadata.Version)
	}
	for name := range m.Resources {
		if !nameRE.MatchString(name) {
			return fmt.Errorf("invalid resource name %q", name)
		}
	}
	return nil
}

// Dispatch is the function pointer table entry every loaded extension
// exposes: given a resource name, a method name, and already-encoded
// input words, it returns encoded output words.
type Dispatch func(resource, method string, in []uint64) ([]uint64, error)

// extensionResource adapts one resource out of a loaded extension's
// manifest to the Resource interface.
type extensionResource struct {
	extension, name string
	methods         []Method
}

func (e *extensionResource) TypeJSON() (string, error) {
	b, err := json.Marshal(struct {
		Type      string `json:"type"`
		Extension string `json:"extension"`
		Resource  string `json:"resource"`
	}{"extension", e.extension, e.name})
	return string(b), err
}

func (e *extensionResource) Methods() []Method { return e.methods }

// loadedExtension is the reference-counted handle to one dynamically
// loaded extension, per Design Notes §9's guidance to encapsulate
// dlopen/LoadLibrary behind a small trait with clear ownership.
type loadedExtension struct {
	manifest Manifest
	dispatch Dispatch
	close    func() error // no-op where the platform has no unload primitive

	mu     sync.Mutex // guards refcount
	refs   int
	serial bool // manifest declared non-reentrant methods; serialize calls
	callMu sync.Mutex
}

var (
	registryMu sync.Mutex
	registry   = map[string]*loadedExtension{}
)

// Load locates name along SearchPath(), dlopen-equivalent loads it if
// not already resident, and returns the requested resource. Reference
// counts are per-process; the returned release func must be called once
// the caller is done with the returned Resource (an artifact's Close does this
// automatically).
func Load(extName, resName string) (Resource, func(), error) {
	registryMu.Lock()
	ext, ok := registry[extName]
	registryMu.Unlock()
	if !ok {
		var err error
		ext, err = open(extName)
		if err != nil {
			return nil, nil, &jyafnerr.LinkError{Symbol: extName, Msg: err.Error()}
		}
		registryMu.Lock()
		if existing, raced := registry[extName]; raced {
			ext = existing
		} else {
			registry[extName] = ext
		}
		registryMu.Unlock()
	}

	methods, ok := ext.manifest.Resources[resName]
	if !ok {
		return nil, nil, &jyafnerr.LinkError{Symbol: resName, Msg: "no such resource in extension " + extName}
	}
	r := &extensionResource{extension: extName, name: resName}
	for mname, sig := range methods {
		mname, sig := mname, sig
		r.methods = append(r.methods, Method{
			Name: mname,
			In:   sig.In,
			Out:  sig.Out,
			Call: func(in []uint64) ([]uint64, error) {
				if ext.serial {
					ext.callMu.Lock()
					defer ext.callMu.Unlock()
				}
				out, err := safeDispatch(ext.dispatch, resName, mname, in)
				if err != nil {
					return nil, &jyafnerr.ResourceError{Resource: resName, Method: mname, Msg: err.Error()}
				}
				return out, nil
			},
		})
	}

	ext.mu.Lock()
	ext.refs++
	ext.mu.Unlock()
	release := func() {
		ext.mu.Lock()
		ext.refs--
		last := ext.refs == 0
		ext.mu.Unlock()
		if last {
			registryMu.Lock()
			delete(registry, extName)
			registryMu.Unlock()
			ext.close()
		}
	}
	return r, release, nil
}

// safeDispatch converts the "predictable fault classes" spec.md §7 asks
// for (a nil-valued return standing in for "extension method returned a
// null/invalid result", since Go extensions cannot segfault the host
// process the way a raw C ABI could) into a ResourceError rather than
// propagating a confusing nil.
func safeDispatch(d Dispatch, resource, method string, in []uint64) (out []uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extension method panicked: %v", r)
		}
	}()
	return d(resource, method, in)
}

// Inspect loads extName just long enough to read its manifest, then
// unloads it where the platform allows (see loadedExtension.close),
// without touching the shared registry Load and its release func manage. It backs
// cmd/jyafn's "ext ls".
//
// The manifest is cached on disk (keyed by the extension file's mod
// time) alongside the extension itself, since plugin.Open's mapping is
// never released within a process (loader_plugin.go's close is a
// no-op): repeated Inspect calls, as "ext ls" makes across every
// installed name, would otherwise dlopen every extension on every
// invocation.
func Inspect(extName string) (Manifest, error) {
	path, err := findExtensionFile(extName)
	if err != nil {
		return Manifest{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Manifest{}, err
	}
	dir := filepath.Dir(path)

	cache, err := loadManifestCache(dir)
	if err == nil {
		if entry, ok := cache[extName]; ok && entry.ModTime == info.ModTime().Unix() {
			return entry.Manifest, nil
		}
	} else {
		cache = map[string]cacheEntry{}
	}

	ext, err := open(extName)
	if err != nil {
		return Manifest{}, err
	}
	defer ext.close()

	cache[extName] = cacheEntry{ModTime: info.ModTime().Unix(), Manifest: ext.manifest}
	_ = saveManifestCache(dir, cache) // best-effort; a write failure just disables caching

	return ext.manifest, nil
}

// findExtensionFile searches SearchPath() for a shared object file named
// after extName (lib<name>.so / <name>.so).
func findExtensionFile(extName string) (string, error) {
	candidates := []string{extName + ".so", "lib" + extName + ".so"}
	for _, dir := range SearchPath() {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("extension unavailable: %s not found on search path", extName)
}
