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

//go:build !linux && !darwin

package resource

import "fmt"

// open reports "extension unavailable" on platforms where Go's plugin
// package has no support (notably Windows), matching spec.md §4.4's
// "Missing extension at load -> extension unavailable" failure mode.
func open(extName string) (*loadedExtension, error) {
	return nil, fmt.Errorf("extension unavailable: dynamic extension loading is not supported on this platform")
}
