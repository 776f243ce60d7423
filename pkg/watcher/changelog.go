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
	"fmt"

	"github.com/jaydeluca/collector-watcher/pkg/changelog"
	"github.com/jaydeluca/collector-watcher/pkg/component"
	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/version"
)

// ChangelogReport is the outcome of comparing two stored inventories of
// one distribution.
type ChangelogReport struct {
	Distribution string          `json:"distribution" yaml:"distribution"`
	OldVersion   version.Version `json:"old_version" yaml:"old_version"`
	NewVersion   version.Version `json:"new_version" yaml:"new_version"`

	// Notices records fallback substitutions when a requested version was
	// not stored and a nearby one was compared instead.
	Notices []string `json:"notices,omitempty" yaml:"notices,omitempty"`

	Changes map[component.Type]*changelog.ChangeSet `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// IsEmpty reports whether the comparison found no changes.
func (r *ChangelogReport) IsEmpty() bool {
	return len(r.Changes) == 0
}

// Changelog compares two stored versions of a distribution. With fallback
// enabled, a missing version is substituted by the best stored candidate
// and the substitution is reported as a notice; otherwise a missing
// version is an error.
func (w *Watcher) Changelog(distribution string, oldV, newV version.Version, fallback bool) (*ChangelogReport, error) {
	report := &ChangelogReport{
		Distribution: distribution,
		OldVersion:   oldV,
		NewVersion:   newV,
	}

	oldInv, loadedOld, err := w.loadForDiff(distribution, oldV, fallback)
	if err != nil {
		return nil, err
	}
	newInv, loadedNew, err := w.loadForDiff(distribution, newV, fallback)
	if err != nil {
		return nil, err
	}

	if !loadedOld.Equals(oldV) {
		report.OldVersion = loadedOld
		report.Notices = append(report.Notices,
			fmt.Sprintf("%s not stored for %s, comparing %s instead", oldV, distribution, loadedOld))
	}
	if !loadedNew.Equals(newV) {
		report.NewVersion = loadedNew
		report.Notices = append(report.Notices,
			fmt.Sprintf("%s not stored for %s, comparing %s instead", newV, distribution, loadedNew))
	}

	changes, err := changelog.DiffInventories(oldInv, newInv)
	if err != nil {
		return nil, err
	}
	report.Changes = changes
	return report, nil
}

func (w *Watcher) loadForDiff(distribution string, v version.Version, fallback bool) (inv *inventory.Inventory, loaded version.Version, err error) {
	if fallback {
		return w.store().LoadBestAvailable(distribution, v)
	}
	inv, err = w.store().Load(distribution, v)
	return inv, v, err
}
