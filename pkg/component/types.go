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

package component

import "sort"

// Type represents the category of a pluggable component.
type Type string

// String returns the string representation of the component Type.
func (t Type) String() string {
	return string(t)
}

const (
	TypeConnector Type = "connector"
	TypeExporter  Type = "exporter"
	TypeExtension Type = "extension"
	TypeProcessor Type = "processor"
	TypeReceiver  Type = "receiver"
)

// Types is the canonical ordered list of component types. Scans, merges,
// and inventory files all iterate in this order for deterministic output.
var Types = []Type{
	TypeConnector,
	TypeExporter,
	TypeExtension,
	TypeProcessor,
	TypeReceiver,
}

// ParseType parses a string into a component Type.
// Returns the Type and true if parsing succeeds, or empty Type and false otherwise.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// StabilityLevel is the maturity classification of a signal within a
// component, ordered from least to most mature.
type StabilityLevel string

const (
	StabilityUnmaintained StabilityLevel = "unmaintained"
	StabilityDeprecated   StabilityLevel = "deprecated"
	StabilityAlpha        StabilityLevel = "alpha"
	StabilityBeta         StabilityLevel = "beta"
	StabilityStable       StabilityLevel = "stable"
)

// String returns the string representation of the StabilityLevel.
func (l StabilityLevel) String() string {
	return string(l)
}

// stabilityRanks orders levels: unmaintained < deprecated < alpha < beta < stable.
var stabilityRanks = map[StabilityLevel]int{
	StabilityUnmaintained: 0,
	StabilityDeprecated:   1,
	StabilityAlpha:        2,
	StabilityBeta:         3,
	StabilityStable:       4,
}

// Rank returns the ordinal position of the level in the maturity order.
// Unknown levels rank below every valid level.
func (l StabilityLevel) Rank() int {
	if r, ok := stabilityRanks[l]; ok {
		return r
	}
	return -1
}

// ParseStabilityLevel parses a string into a StabilityLevel.
// Returns the level and true if the name is a known level, false otherwise.
func ParseStabilityLevel(s string) (StabilityLevel, bool) {
	l := StabilityLevel(s)
	_, ok := stabilityRanks[l]
	return l, ok
}

// Record is the canonical in-memory representation of one component
// declaration. Identity is (Class, Name), unique within one version's
// inventory.
type Record struct {
	// Name is the component directory name, e.g. "otlpreceiver".
	Name string

	// Type is the declared type string from metadata, e.g. "otlp".
	Type string

	// Class is the component type; metadata must declare it equal to the
	// type-named parent directory the component lives under.
	Class Type

	// Distributions lists which distributions declare this component,
	// sorted. Tags beyond core/contrib are carried through as opaque labels.
	Distributions []string

	// Stability maps signal name (traces, metrics, logs, ...) to its level.
	// A signal absent from the map is simply unsupported.
	Stability map[string]StabilityLevel
}

// Signals returns the component's signal names in sorted order.
func (r Record) Signals() []string {
	signals := make([]string, 0, len(r.Stability))
	for s := range r.Stability {
		signals = append(signals, s)
	}
	sort.Strings(signals)
	return signals
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Distributions = append([]string(nil), r.Distributions...)
	if r.Stability != nil {
		out.Stability = make(map[string]StabilityLevel, len(r.Stability))
		for k, v := range r.Stability {
			out.Stability[k] = v
		}
	}
	return out
}

// SortRecords sorts records in place by name.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}
