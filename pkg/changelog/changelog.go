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

package changelog

import (
	"fmt"
	"sort"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	"github.com/jaydeluca/collector-watcher/pkg/inventory"
)

// LevelChange records a signal moving from one stability level to another.
type LevelChange struct {
	Old component.StabilityLevel `json:"old" yaml:"old"`
	New component.StabilityLevel `json:"new" yaml:"new"`
}

// DistributionChange records a component's distribution membership change.
type DistributionChange struct {
	Old []string `json:"old" yaml:"old"`
	New []string `json:"new" yaml:"new"`
}

// ChangeSet is the structured difference between two inventories of the
// same component type. It is purely derived and never persisted by the
// engine; reporting collaborators consume it.
type ChangeSet struct {
	ComponentType component.Type `json:"component_type" yaml:"component_type"`

	// Added and Removed are component names present in only one side,
	// sorted.
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`

	// StabilityChanges maps component name to the signals whose stability
	// level changed. Signals that merely appeared or disappeared are not
	// level transitions and are not recorded here.
	StabilityChanges map[string]map[string]LevelChange `json:"stability_changes,omitempty" yaml:"stability_changes,omitempty"`

	// DistributionChanges maps component name to its distribution
	// membership change.
	DistributionChanges map[string]DistributionChange `json:"distribution_changes,omitempty" yaml:"distribution_changes,omitempty"`
}

// IsEmpty reports whether the ChangeSet records no differences.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Added) == 0 &&
		len(cs.Removed) == 0 &&
		len(cs.StabilityChanges) == 0 &&
		len(cs.DistributionChanges) == 0
}

// ChangedNames returns the sorted names of components with stability or
// distribution changes.
func (cs *ChangeSet) ChangedNames() []string {
	seen := make(map[string]bool)
	for name := range cs.StabilityChanges {
		seen[name] = true
	}
	for name := range cs.DistributionChanges {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChangedSignals returns the sorted signal names with level transitions
// for one component.
func (cs *ChangeSet) ChangedSignals(name string) []string {
	signals := make([]string, 0, len(cs.StabilityChanges[name]))
	for signal := range cs.StabilityChanges[name] {
		signals = append(signals, signal)
	}
	sort.Strings(signals)
	return signals
}

// Diff computes the ChangeSet between two record sets of the same
// component type. Name-set difference yields additions and removals; for
// names present in both, per-signal stability levels and distribution
// membership are compared. All output is sorted by component name, then
// signal name, so the same inputs always yield an identical ChangeSet
// regardless of map iteration order.
func Diff(t component.Type, old, new []component.Record) (*ChangeSet, error) {
	oldByName, err := indexRecords(t, old)
	if err != nil {
		return nil, err
	}
	newByName, err := indexRecords(t, new)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{
		ComponentType:       t,
		StabilityChanges:    make(map[string]map[string]LevelChange),
		DistributionChanges: make(map[string]DistributionChange),
	}

	for name := range newByName {
		if _, ok := oldByName[name]; !ok {
			cs.Added = append(cs.Added, name)
		}
	}
	for name := range oldByName {
		if _, ok := newByName[name]; !ok {
			cs.Removed = append(cs.Removed, name)
		}
	}
	sort.Strings(cs.Added)
	sort.Strings(cs.Removed)

	for name, oldRec := range oldByName {
		newRec, ok := newByName[name]
		if !ok {
			continue
		}

		levelChanges := diffStability(oldRec, newRec)
		if len(levelChanges) > 0 {
			cs.StabilityChanges[name] = levelChanges
		}

		if !equalStrings(oldRec.Distributions, newRec.Distributions) {
			cs.DistributionChanges[name] = DistributionChange{
				Old: append([]string(nil), oldRec.Distributions...),
				New: append([]string(nil), newRec.Distributions...),
			}
		}
	}

	return cs, nil
}

// DiffInventories diffs two inventories type by type and returns the
// non-empty change sets, keyed by component type.
func DiffInventories(old, new *inventory.Inventory) (map[component.Type]*ChangeSet, error) {
	changes := make(map[component.Type]*ChangeSet)
	for _, t := range component.Types {
		cs, err := Diff(t, old.Components[t], new.Components[t])
		if err != nil {
			return nil, err
		}
		if !cs.IsEmpty() {
			changes[t] = cs
		}
	}
	return changes, nil
}

// indexRecords builds a name index, rejecting records of the wrong type.
func indexRecords(t component.Type, records []component.Record) (map[string]component.Record, error) {
	byName := make(map[string]component.Record, len(records))
	for _, r := range records {
		if r.Class != t {
			return nil, fmt.Errorf("cannot diff %s records against component type %s", r.Class, t)
		}
		byName[r.Name] = r
	}
	return byName, nil
}

// diffStability returns per-signal level transitions for signals present
// on both sides with different levels.
func diffStability(old, new component.Record) map[string]LevelChange {
	changes := make(map[string]LevelChange)
	for signal, oldLevel := range old.Stability {
		newLevel, ok := new.Stability[signal]
		if !ok || newLevel == oldLevel {
			continue
		}
		changes[signal] = LevelChange{Old: oldLevel, New: newLevel}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
