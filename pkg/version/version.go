// Copyright (c) 2025, The Collector Watcher Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrInvalidFormat     = errors.New("version must have exactly 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
	ErrNegativeComponent = errors.New("version component cannot be negative")
)

// SnapshotSuffix marks an in-progress version derived from the main branch.
// Snapshot versions are never stored as permanent releases.
const SnapshotSuffix = "-SNAPSHOT"

// Version represents a semantic version (major.minor.patch) plus a flag
// marking in-progress snapshot versions. A snapshot is logically after the
// release it was derived from, so v0.113.0-SNAPSHOT sorts between v0.112.x
// and the eventual v0.113.0 release.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
	Patch int `json:"patch" yaml:"patch"`

	// Snapshot indicates an in-progress version scanned from the main branch.
	Snapshot bool `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

// New creates a release Version with the specified major, minor, and patch values.
func New(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// String returns the canonical string representation, e.g. "v0.112.0" or
// "v0.113.0-SNAPSHOT". This form is used for tag matching and for version
// directory names in the inventory store.
func (v Version) String() string {
	base := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Snapshot {
		return base + SnapshotSuffix
	}
	return base
}

// Parse parses a version string into a Version.
// Supported formats: "v0.112.0", "0.112.0", "v0.113.0-SNAPSHOT".
// The "v" prefix is optional. Pre-release or build suffixes other than
// -SNAPSHOT are rejected, which also filters out pre-release tags.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	s = strings.TrimPrefix(s, "v")

	var v Version
	if strings.HasSuffix(s, SnapshotSuffix) {
		v.Snapshot = true
		s = strings.TrimSuffix(s, SnapshotSuffix)
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	for i, part := range parts {
		num, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, part)
		}
		if num < 0 {
			return Version{}, fmt.Errorf("%w: %d", ErrNegativeComponent, num)
		}

		switch i {
		case 0:
			v.Major = num
		case 1:
			v.Minor = num
		case 2:
			v.Patch = num
		}
	}

	return v, nil
}

// MustParse parses a version string and panics if parsing fails.
// Only use this for hardcoded strings or in tests. For user input or
// runtime data, always use Parse and handle errors explicitly.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("MustParse: %v", err))
	}
	return v
}

// Compare returns an integer comparing two versions:
// -1 if v < other, 0 if v == other, 1 if v > other.
// A snapshot compares before the release carrying the same numbers, since
// the release finalizes what the snapshot was leading up to.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return cmp(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmp(v.Minor, other.Minor)
	}
	if v.Patch != other.Patch {
		return cmp(v.Patch, other.Patch)
	}
	if v.Snapshot != other.Snapshot {
		if v.Snapshot {
			return -1
		}
		return 1
	}
	return 0
}

func cmp(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// IsNewer returns true if v is strictly newer than other.
func (v Version) IsNewer(other Version) bool {
	return v.Compare(other) > 0
}

// Equals returns true if v exactly equals other.
func (v Version) Equals(other Version) bool {
	return v == other
}

// NextPatch returns the next patch release version.
func (v Version) NextPatch() Version {
	return New(v.Major, v.Minor, v.Patch+1)
}

// NextMinor returns the next minor release version.
func (v Version) NextMinor() Version {
	return New(v.Major, v.Minor+1, 0)
}

// NextMajor returns the next major release version.
func (v Version) NextMajor() Version {
	return New(v.Major+1, 0, 0)
}

// Sort sorts versions in place, newest first.
func Sort(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) > 0
	})
}

// Latest returns the newest version in the slice and true, or the zero
// Version and false when the slice is empty.
func Latest(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if v.IsNewer(latest) {
			latest = v
		}
	}
	return latest, true
}
