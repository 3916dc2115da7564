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

	"sigs.k8s.io/yaml"
)

// cacheEntry pairs a cached Manifest with the modification time of the
// shared object it was read from, so a stale entry (extension file
// replaced by "ext get") is detected without a forced re-dlopen.
type cacheEntry struct {
	ModTime  int64    `json:"mod_time"`
	Manifest Manifest `json:"manifest"`
}

const manifestCacheFile = ".manifest-cache.yaml"

// loadManifestCache reads dir's manifest cache, returning an empty map
// if it does not exist yet.
func loadManifestCache(dir string) (map[string]cacheEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestCacheFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]cacheEntry{}, nil
		}
		return nil, err
	}
	cache := map[string]cacheEntry{}
	if err := yaml.Unmarshal(data, &cache); err != nil {
		// A corrupt cache is not fatal: Inspect falls back to a real load.
		return map[string]cacheEntry{}, nil
	}
	return cache, nil
}

func saveManifestCache(dir string, cache map[string]cacheEntry) error {
	data, err := yaml.Marshal(cache)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestCacheFile), data, 0o644)
}
