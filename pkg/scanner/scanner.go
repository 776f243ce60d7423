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

package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jaydeluca/collector-watcher/pkg/component"
)

// Scanner discovers component declarations in one distribution checkout.
// A Scanner is bound to whatever version the checkout currently has on
// disk; a fresh Scan is required after the working tree moves.
type Scanner struct {
	// RepoPath is the root of the distribution checkout.
	RepoPath string

	// Distribution is the distribution tag the checkout belongs to,
	// used for logging and metrics.
	Distribution string
}

// Result holds the outcome of one scan: successfully parsed records per
// component type alongside the per-component failures. Partial success is
// the normal case; parse errors never abort the scan of sibling components.
type Result struct {
	// Components maps component type to its parsed records, in directory
	// listing order (sorted by name).
	Components map[component.Type][]component.Record

	// ParseErrors collects declarations that could not be parsed.
	ParseErrors []*component.ParseError

	// Skipped lists component directories without a declaration file.
	Skipped []string
}

// Total returns the number of successfully parsed records across all types.
func (r *Result) Total() int {
	total := 0
	for _, records := range r.Components {
		total += len(records)
	}
	return total
}

// New creates a Scanner for the distribution checkout rooted at repoPath.
// Returns an error if the path does not exist.
func New(distribution, repoPath string) (*Scanner, error) {
	info, err := os.Stat(repoPath)
	if err != nil {
		return nil, fmt.Errorf("repository path does not exist: %s", repoPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path is not a directory: %s", repoPath)
	}
	return &Scanner{RepoPath: repoPath, Distribution: distribution}, nil
}

// Scan walks every type-named directory and parses each component's
// declaration file. Directories missing a declaration file are skipped
// with a warning. The scan itself only fails on filesystem errors.
func (s *Scanner) Scan() (*Result, error) {
	start := time.Now()
	defer func() {
		scanDuration.WithLabelValues(s.Distribution).Observe(time.Since(start).Seconds())
	}()

	result := &Result{
		Components: make(map[component.Type][]component.Record, len(component.Types)),
	}

	for _, componentType := range component.Types {
		if err := s.scanType(componentType, result); err != nil {
			return nil, err
		}
	}

	slog.Debug("scan complete",
		"distribution", s.Distribution,
		"components", result.Total(),
		"parse_errors", len(result.ParseErrors),
		"skipped", len(result.Skipped))

	return result, nil
}

// scanType scans one type-named directory, appending to result.
func (s *Scanner) scanType(componentType component.Type, result *Result) error {
	typeDir := filepath.Join(s.RepoPath, string(componentType))

	entries, err := os.ReadDir(typeDir)
	if err != nil {
		if os.IsNotExist(err) {
			// A distribution may simply not ship this component type.
			result.Components[componentType] = nil
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", typeDir, err)
	}

	var records []component.Record
	for _, entry := range entries {
		if !entry.IsDir() || !s.isComponentDir(filepath.Join(typeDir, entry.Name()), entry.Name()) {
			continue
		}

		relPath := filepath.Join(string(componentType), entry.Name())
		metadataPath := filepath.Join(typeDir, entry.Name(), component.MetadataFile)

		data, err := os.ReadFile(metadataPath)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("component has no declaration file, skipping",
					"distribution", s.Distribution, "component", relPath)
				result.Skipped = append(result.Skipped, relPath)
				continue
			}
			return fmt.Errorf("failed to read %s: %w", metadataPath, err)
		}

		record, perr := component.ParseMetadata(relPath, entry.Name(), componentType, data)
		if perr != nil {
			slog.Warn("failed to parse component metadata",
				"distribution", s.Distribution, "component", relPath, "error", perr.Cause)
			parseErrors.WithLabelValues(s.Distribution, string(componentType)).Inc()
			result.ParseErrors = append(result.ParseErrors, perr)
			continue
		}

		records = append(records, record)
		componentsScanned.WithLabelValues(s.Distribution, string(componentType)).Inc()
	}

	result.Components[componentType] = records
	return nil
}

// isComponentDir reports whether a directory looks like a component: not a
// dot/underscore/internal/testdata entry, and containing a Go module marker
// or at least one Go source file.
func (s *Scanner) isComponentDir(path, name string) bool {
	if name == "" || name[0] == '.' || name[0] == '_' {
		return false
	}
	if name == "internal" || name == "testdata" {
		return false
	}

	if _, err := os.Stat(filepath.Join(path, "go.mod")); err == nil {
		return true
	}
	matches, _ := filepath.Glob(filepath.Join(path, "*.go"))
	return len(matches) > 0
}
