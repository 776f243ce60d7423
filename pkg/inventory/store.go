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

package inventory

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	watcherrors "github.com/jaydeluca/collector-watcher/pkg/errors"
	"github.com/jaydeluca/collector-watcher/pkg/version"
)

// DefaultRoot is the conventional inventory directory name.
const DefaultRoot = "collector-metadata"

// Store persists inventories as a diff-friendly file tree:
//
//	{root}/{distribution}/{version}/{component_type}.yaml
//
// Release versions are immutable once written; at most one SNAPSHOT
// version exists per distribution at any time. Both rules are enforced
// against the on-disk directory listing at write time, so they hold across
// separate invocations of the engine.
type Store struct {
	// Root is the base inventory directory.
	Root string
}

// NewStore creates a Store rooted at the given directory. The directory is
// created lazily on first write.
func NewStore(root string) *Store {
	if root == "" {
		root = DefaultRoot
	}
	return &Store{Root: root}
}

func (s *Store) versionDir(distribution string, v version.Version) string {
	return filepath.Join(s.Root, distribution, v.String())
}

// Write publishes an inventory as one version directory. The directory is
// staged in full and atomically renamed into place, so a crash mid-write
// never leaves a half-written version readable.
//
// Releases are immutable: writing identical content again is a no-op
// (returns false), writing different content fails with an
// IMMUTABLE_RELEASE_CONFLICT error. Writing a snapshot version first
// removes every previously stored snapshot for the distribution.
func (s *Store) Write(inv *Inventory) (bool, error) {
	files := make(map[string][]byte, len(component.Types))
	for _, t := range component.Types {
		data, err := inv.marshalType(t)
		if err != nil {
			return false, err
		}
		files[string(t)+".yaml"] = data
	}

	final := s.versionDir(inv.Distribution, inv.Version)

	if !inv.Version.Snapshot {
		identical, exists, err := s.compareExisting(final, files)
		if err != nil {
			return false, err
		}
		if exists {
			if identical {
				slog.Debug("release already stored with identical content",
					"distribution", inv.Distribution, "version", inv.Version)
				return false, nil
			}
			return false, watcherrors.NewWithContext(
				watcherrors.ErrCodeImmutableConflict,
				fmt.Sprintf("release %s already stored with different content", inv.Version),
				map[string]any{"distribution": inv.Distribution, "version": inv.Version.String()},
			)
		}
	}

	if err := os.MkdirAll(filepath.Join(s.Root, inv.Distribution), 0o755); err != nil {
		return false, fmt.Errorf("failed to create distribution directory: %w", err)
	}

	// Stage inside the store root so the final rename stays on one filesystem.
	staging, err := os.MkdirTemp(s.Root, ".staging-")
	if err != nil {
		return false, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	// MkdirTemp creates 0700; the published directory must be readable like
	// its parents.
	if err := os.Chmod(staging, 0o755); err != nil {
		return false, fmt.Errorf("failed to set staging directory mode: %w", err)
	}

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(staging, name), data, 0o644); err != nil {
			return false, fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}

	if inv.Version.Snapshot {
		if _, err := s.CleanupSnapshots(inv.Distribution); err != nil {
			return false, err
		}
	}

	if err := os.Rename(staging, final); err != nil {
		return false, fmt.Errorf("failed to publish %s %s: %w", inv.Distribution, inv.Version, err)
	}

	slog.Info("inventory published",
		"distribution", inv.Distribution,
		"version", inv.Version,
		"components", inv.Total())
	return true, nil
}

// compareExisting reports whether the stored version directory exists and
// whether its content is byte-identical to the staged files.
func (s *Store) compareExisting(dir string, files map[string][]byte) (identical, exists bool, err error) {
	if _, statErr := os.Stat(dir); statErr != nil {
		if os.IsNotExist(statErr) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to stat %s: %w", dir, statErr)
	}

	for name, data := range files {
		existing, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return false, true, nil
			}
			return false, true, fmt.Errorf("failed to read stored %s: %w", name, readErr)
		}
		if !bytes.Equal(existing, data) {
			return false, true, nil
		}
	}
	return true, true, nil
}

// Load reads the inventory for an exact version. A missing version fails
// with a NOT_FOUND error; it never substitutes another version.
func (s *Store) Load(distribution string, v version.Version) (*Inventory, error) {
	dir := s.versionDir(distribution, v)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, watcherrors.NewWithContext(
				watcherrors.ErrCodeNotFound,
				fmt.Sprintf("no stored inventory for %s %s", distribution, v),
				map[string]any{"distribution": distribution, "version": v.String()},
			)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	inv := New(distribution, v, "")
	for _, t := range component.Types {
		data, err := os.ReadFile(filepath.Join(dir, string(t)+".yaml"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s inventory: %w", t, err)
		}

		doc, records, err := unmarshalType(t, data)
		if err != nil {
			return nil, err
		}
		inv.Components[t] = records
		if inv.Repository == "" {
			inv.Repository = doc.Repository
		}
	}

	return inv, nil
}

// LoadBestAvailable loads the target version when stored, or falls back to
// the best available release: the newest stored release not newer than the
// target, or the oldest stored release when every stored release is newer.
// The version actually loaded is returned so callers can surface the
// substitution; fallback never applies to versions that exist.
func (s *Store) LoadBestAvailable(distribution string, target version.Version) (*Inventory, version.Version, error) {
	if s.VersionExists(distribution, target) {
		inv, err := s.Load(distribution, target)
		return inv, target, err
	}

	var releases []version.Version
	for _, v := range s.ListVersions(distribution) {
		if !v.Snapshot {
			releases = append(releases, v)
		}
	}
	if len(releases) == 0 {
		return nil, version.Version{}, watcherrors.NewWithContext(
			watcherrors.ErrCodeNotFound,
			fmt.Sprintf("no stored versions for %s", distribution),
			map[string]any{"distribution": distribution},
		)
	}

	// ListVersions returns newest first.
	best := releases[len(releases)-1]
	for _, v := range releases {
		if !v.IsNewer(target) {
			best = v
			break
		}
	}

	slog.Warn("requested version not stored, falling back",
		"distribution", distribution, "requested", target, "loaded", best)

	inv, err := s.Load(distribution, best)
	return inv, best, err
}

// ListVersions returns every stored version for a distribution, sorted
// newest first. Directories that do not parse as versions are ignored.
func (s *Store) ListVersions(distribution string) []version.Version {
	entries, err := os.ReadDir(filepath.Join(s.Root, distribution))
	if err != nil {
		return nil
	}

	var versions []version.Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.Parse(entry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	version.Sort(versions)
	return versions
}

// VersionExists reports whether a version directory is stored for the distribution.
func (s *Store) VersionExists(distribution string, v version.Version) bool {
	info, err := os.Stat(s.versionDir(distribution, v))
	return err == nil && info.IsDir()
}

// CleanupSnapshots removes every stored snapshot version for a
// distribution and returns how many were removed. Releases are untouched.
func (s *Store) CleanupSnapshots(distribution string) (int, error) {
	removed := 0
	for _, v := range s.ListVersions(distribution) {
		if !v.Snapshot {
			continue
		}
		dir := s.versionDir(distribution, v)
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("failed to remove old snapshot %s: %w", dir, err)
		}
		slog.Debug("removed stale snapshot", "distribution", distribution, "version", v)
		removed++
	}
	return removed, nil
}
