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

package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/merger"
	"github.com/jaydeluca/collector-watcher/pkg/scanner"
	"github.com/jaydeluca/collector-watcher/pkg/version"
)

// Watcher orchestrates the versioned scan workflow: detecting releases,
// scanning distribution checkouts, merging, and publishing inventories.
type Watcher struct {
	// Repos maps distribution name to the path of its checkout.
	Repos map[string]string

	// Store is the inventory store to publish into. If nil, a store at
	// the default root is used.
	Store *inventory.Store

	// Merger resolves cross-distribution overlaps. If nil, the default
	// core-first merger is used.
	Merger *merger.Merger

	// Checkout controls whether the working trees are moved to the
	// requested version before scanning. Disable for checkouts already
	// positioned by the caller.
	Checkout bool
}

// VersionRef identifies one published inventory.
type VersionRef struct {
	Distribution string          `json:"distribution" yaml:"distribution"`
	Version      version.Version `json:"version" yaml:"version"`
}

// Summary reports what one run processed: version directories written or
// left unchanged, plus every warning and per-component failure collected
// along the way. Callers decide whether warnings block downstream
// automation.
type Summary struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string `json:"run_id" yaml:"run_id"`

	// NewReleases lists release versions published by this run.
	NewReleases []VersionRef `json:"new_releases,omitempty" yaml:"new_releases,omitempty"`

	// SnapshotsUpdated lists snapshot versions published by this run.
	SnapshotsUpdated []VersionRef `json:"snapshots_updated,omitempty" yaml:"snapshots_updated,omitempty"`

	// Unchanged lists versions that were already stored with identical content.
	Unchanged []VersionRef `json:"unchanged,omitempty" yaml:"unchanged,omitempty"`

	// Warnings collects non-fatal conditions (per-repository detection
	// failures, merge conflicts).
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// ParseErrors collects component declarations rejected during scans.
	ParseErrors []*component.ParseError `json:"parse_errors,omitempty" yaml:"parse_errors,omitempty"`
}

func (s *Summary) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func (w *Watcher) store() *inventory.Store {
	if w.Store == nil {
		w.Store = inventory.NewStore("")
	}
	return w.Store
}

func (w *Watcher) merger() *merger.Merger {
	if w.Merger == nil {
		w.Merger = merger.NewMerger()
	}
	return w.Merger
}

// distributions returns the configured distribution names in sorted order.
func (w *Watcher) distributions() []string {
	dists := make([]string, 0, len(w.Repos))
	for dist := range w.Repos {
		dists = append(dists, dist)
	}
	sort.Strings(dists)
	return dists
}

// RepositoryName returns the canonical source repository name recorded in
// inventory files for a distribution.
func RepositoryName(distribution string) string {
	switch distribution {
	case "core":
		return "opentelemetry-collector"
	case "contrib":
		return "opentelemetry-collector-contrib"
	default:
		return "opentelemetry-collector-" + distribution
	}
}

// RunNightly performs the full workflow for every configured distribution:
// publish the latest release when not yet tracked, then replace the
// snapshot from the main branch. A version-detection failure for one
// repository is recorded as a warning and does not abort the others.
func (w *Watcher) RunNightly(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}

	slog.Info("nightly scan starting", "run_id", summary.RunID, "distributions", w.distributions())

	for _, dist := range w.distributions() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := w.processLatestRelease(ctx, dist, summary); err != nil {
			runsTotal.WithLabelValues("nightly", "error").Inc()
			return summary, err
		}
		if err := w.updateSnapshot(ctx, dist, summary); err != nil {
			runsTotal.WithLabelValues("nightly", "error").Inc()
			return summary, err
		}
	}

	runsTotal.WithLabelValues("nightly", "success").Inc()
	slog.Info("nightly scan complete",
		"run_id", summary.RunID,
		"new_releases", len(summary.NewReleases),
		"snapshots_updated", len(summary.SnapshotsUpdated),
		"warnings", len(summary.Warnings),
		"duration", time.Since(start).Round(time.Millisecond))
	return summary, nil
}

// ProcessLatestReleases publishes the latest release of every distribution
// not yet tracked in the store.
func (w *Watcher) ProcessLatestReleases(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	for _, dist := range w.distributions() {
		if err := w.processLatestRelease(ctx, dist, summary); err != nil {
			runsTotal.WithLabelValues("release", "error").Inc()
			return summary, err
		}
	}
	runsTotal.WithLabelValues("release", "success").Inc()
	return summary, nil
}

// UpdateSnapshots replaces the live snapshot of every distribution.
func (w *Watcher) UpdateSnapshots(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	for _, dist := range w.distributions() {
		if err := w.updateSnapshot(ctx, dist, summary); err != nil {
			runsTotal.WithLabelValues("snapshot", "error").Inc()
			return summary, err
		}
	}
	runsTotal.WithLabelValues("snapshot", "success").Inc()
	return summary, nil
}

// processLatestRelease scans and publishes the latest release for one
// distribution unless it is already tracked.
func (w *Watcher) processLatestRelease(ctx context.Context, dist string, summary *Summary) error {
	detector, err := version.NewDetector(w.Repos[dist])
	if err != nil {
		return err
	}

	latest, err := detector.LatestRelease(ctx)
	if err != nil {
		// No usable tags is fatal for this repository only.
		summary.warnf("version detection failed for %s: %v", dist, err)
		slog.Warn("version detection failed", "distribution", dist, "error", err)
		return nil
	}

	if w.store().VersionExists(dist, latest) {
		slog.Debug("release already tracked", "distribution", dist, "version", latest)
		summary.Unchanged = append(summary.Unchanged, VersionRef{Distribution: dist, Version: latest})
		return nil
	}

	return w.scanAndPublish(ctx, dist, latest, summary)
}

// updateSnapshot replaces the distribution's live snapshot with a fresh
// scan of the main branch.
func (w *Watcher) updateSnapshot(ctx context.Context, dist string, summary *Summary) error {
	detector, err := version.NewDetector(w.Repos[dist])
	if err != nil {
		return err
	}

	snapshot, err := detector.NextSnapshot(ctx)
	if err != nil {
		summary.warnf("version detection failed for %s: %v", dist, err)
		return nil
	}

	return w.scanAndPublish(ctx, dist, snapshot, summary)
}

// ScanSpecific scans and publishes one explicit version across every
// configured distribution. With force, an existing release is rescanned;
// identical content remains a no-op and different content still fails, so
// force never silently rewrites history.
func (w *Watcher) ScanSpecific(ctx context.Context, v version.Version, force bool) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	for _, dist := range w.distributions() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if !force && w.store().VersionExists(dist, v) {
			slog.Info("version already tracked, skipping", "distribution", dist, "version", v)
			summary.Unchanged = append(summary.Unchanged, VersionRef{Distribution: dist, Version: v})
			continue
		}

		if err := w.scanAndPublish(ctx, dist, v, summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// scanAndPublish scans one distribution at one version and publishes the
// resulting inventory.
func (w *Watcher) scanAndPublish(ctx context.Context, dist string, v version.Version, summary *Summary) error {
	result, err := w.scanVersion(ctx, dist, v)
	if err != nil {
		return err
	}
	summary.ParseErrors = append(summary.ParseErrors, result.ParseErrors...)

	inv := w.buildInventory(dist, v, result)
	written, err := w.store().Write(inv)
	if err != nil {
		return err
	}

	ref := VersionRef{Distribution: dist, Version: v}
	if !written {
		summary.Unchanged = append(summary.Unchanged, ref)
		return nil
	}

	versionsPublished.WithLabelValues(dist).Inc()
	if v.Snapshot {
		summary.SnapshotsUpdated = append(summary.SnapshotsUpdated, ref)
	} else {
		summary.NewReleases = append(summary.NewReleases, ref)
	}
	return nil
}

// scanVersion positions the working tree (when Checkout is set) and scans it.
func (w *Watcher) scanVersion(ctx context.Context, dist string, v version.Version) (*scanner.Result, error) {
	if w.Checkout {
		detector, err := version.NewDetector(w.Repos[dist])
		if err != nil {
			return nil, err
		}
		if v.Snapshot {
			if err := detector.CheckoutMain(ctx); err != nil {
				return nil, err
			}
		} else {
			if err := detector.CheckoutVersion(ctx, v); err != nil {
				return nil, err
			}
		}
	}

	s, err := scanner.New(dist, w.Repos[dist])
	if err != nil {
		return nil, err
	}
	return s.Scan()
}

// buildInventory converts a scan result into a publishable inventory,
// defaulting each record's distributions set to the scanned distribution
// when its metadata declares none.
func (w *Watcher) buildInventory(dist string, v version.Version, result *scanner.Result) *inventory.Inventory {
	inv := inventory.New(dist, v, RepositoryName(dist))
	for _, t := range component.Types {
		records := make([]component.Record, 0, len(result.Components[t]))
		for _, r := range result.Components[t] {
			record := r.Clone()
			if len(record.Distributions) == 0 {
				record.Distributions = []string{dist}
			}
			records = append(records, record)
		}
		inv.Components[t] = records
	}
	return inv
}

// ScanMerged scans every distribution at the same version and merges the
// results into one cross-distribution inventory. Distribution scans are
// independent and run in parallel; the precedence rule is applied only
// after all results are collected, so the merge stays deterministic.
func (w *Watcher) ScanMerged(ctx context.Context, v version.Version) (*inventory.Inventory, []merger.ConflictWarning, error) {
	var mu sync.Mutex
	results := make(map[string]*scanner.Result, len(w.Repos))

	g, gctx := errgroup.WithContext(ctx)
	for _, dist := range w.distributions() {
		dist := dist
		g.Go(func() error {
			result, err := w.scanVersion(gctx, dist, v)
			if err != nil {
				return err
			}
			mu.Lock()
			results[dist] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged, warnings := w.merger().Merge(v, results)
	return merged, warnings, nil
}
