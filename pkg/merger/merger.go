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

package merger

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	"github.com/jaydeluca/collector-watcher/pkg/inventory"
	"github.com/jaydeluca/collector-watcher/pkg/scanner"
	"github.com/jaydeluca/collector-watcher/pkg/version"
)

// MergedDistribution is the distribution tag of a cross-distribution
// merged inventory.
const MergedDistribution = "merged"

// ConflictWarning records a component whose declared type string differs
// across distributions. Non-fatal; the merged result carries the value of
// the most authoritative distribution.
type ConflictWarning struct {
	// ComponentType and Name identify the conflicting component.
	ComponentType component.Type
	Name          string

	// Chosen is the distribution whose declared type won.
	Chosen string

	// Values maps each declaring distribution to its declared type string.
	Values map[string]string
}

// String formats the warning for logs and reports.
func (w ConflictWarning) String() string {
	return fmt.Sprintf("conflicting type for %s/%s, using %s value %q",
		w.ComponentType, w.Name, w.Chosen, w.Values[w.Chosen])
}

// Merger combines scan results from multiple distributions at the same
// version into one merged inventory.
type Merger struct {
	// Precedence lists distributions from most to least authoritative.
	// The first distribution in this list that declares a component
	// provides its record; its declared type wins conflicts. Upstream
	// treats core as the authoritative schema owner, so core leads by
	// default, but the policy stays configurable.
	Precedence []string
}

// NewMerger creates a Merger. Without arguments the precedence is core
// before contrib.
func NewMerger(precedence ...string) *Merger {
	if len(precedence) == 0 {
		precedence = []string{"core", "contrib"}
	}
	return &Merger{Precedence: precedence}
}

// Merge combines per-distribution scan results for one version. A
// component present in multiple distributions collapses to one record
// whose distributions set is the union; conflicting declared type strings
// resolve by precedence and are reported as warnings. A missing
// distribution degrades gracefully to merging whatever was supplied.
func (m *Merger) Merge(v version.Version, results map[string]*scanner.Result) (*inventory.Inventory, []ConflictWarning) {
	merged := inventory.New(MergedDistribution, v, "")
	var warnings []ConflictWarning

	order := m.distributionOrder(results)

	for _, t := range component.Types {
		byName := make(map[string]component.Record)
		declaredBy := make(map[string][]string)
		declaredTypes := make(map[string]map[string]string)

		// Collect in precedence order so the first sighting is the most
		// authoritative record.
		for _, dist := range order {
			result := results[dist]
			if result == nil {
				continue
			}
			for _, record := range result.Components[t] {
				declaredBy[record.Name] = append(declaredBy[record.Name], dist)
				if declaredTypes[record.Name] == nil {
					declaredTypes[record.Name] = make(map[string]string)
				}
				declaredTypes[record.Name][dist] = record.Type

				if _, seen := byName[record.Name]; !seen {
					byName[record.Name] = record.Clone()
				}
			}
		}

		var records []component.Record
		for name, record := range byName {
			record.Distributions = unionDistributions(record, declaredBy[name])

			if w, conflict := typeConflict(t, name, declaredBy[name], declaredTypes[name]); conflict {
				slog.Warn("distribution type conflict", "component", fmt.Sprintf("%s/%s", t, name),
					"chosen", w.Chosen, "values", w.Values)
				warnings = append(warnings, w)
			}

			records = append(records, record)
		}

		component.SortRecords(records)
		merged.Components[t] = records
	}

	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].ComponentType != warnings[j].ComponentType {
			return warnings[i].ComponentType < warnings[j].ComponentType
		}
		return warnings[i].Name < warnings[j].Name
	})

	return merged, warnings
}

// distributionOrder returns the supplied distributions with precedence
// members first, remaining ones sorted for determinism.
func (m *Merger) distributionOrder(results map[string]*scanner.Result) []string {
	var order []string
	seen := make(map[string]bool)

	for _, dist := range m.Precedence {
		if _, ok := results[dist]; ok {
			order = append(order, dist)
			seen[dist] = true
		}
	}

	var rest []string
	for dist := range results {
		if !seen[dist] {
			rest = append(rest, dist)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// unionDistributions combines the distributions that scanned the
// component with any tags its metadata declares. Tags beyond the scanned
// distributions pass through as opaque labels.
func unionDistributions(record component.Record, scannedBy []string) []string {
	set := make(map[string]bool)
	for _, dist := range scannedBy {
		set[dist] = true
	}
	for _, tag := range record.Distributions {
		set[tag] = true
	}

	union := make([]string, 0, len(set))
	for dist := range set {
		union = append(union, dist)
	}
	sort.Strings(union)
	return union
}

// typeConflict builds a warning when declared type strings disagree.
func typeConflict(t component.Type, name string, declaredBy []string, values map[string]string) (ConflictWarning, bool) {
	if len(declaredBy) < 2 {
		return ConflictWarning{}, false
	}

	first := values[declaredBy[0]]
	conflict := false
	for _, dist := range declaredBy[1:] {
		if values[dist] != first {
			conflict = true
			break
		}
	}
	if !conflict {
		return ConflictWarning{}, false
	}

	valuesCopy := make(map[string]string, len(values))
	for k, v := range values {
		valuesCopy[k] = v
	}

	return ConflictWarning{
		ComponentType: t,
		Name:          name,
		Chosen:        declaredBy[0],
		Values:        valuesCopy,
	}, true
}
