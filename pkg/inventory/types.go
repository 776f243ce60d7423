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
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jaydeluca/collector-watcher/pkg/component"
	"github.com/jaydeluca/collector-watcher/pkg/version"
)

// Inventory is one version of one distribution: every component record
// grouped by component type. It is the unit the store persists as a
// version directory.
type Inventory struct {
	// Distribution is the distribution tag (core, contrib, or a merged view).
	Distribution string

	// Version identifies the scanned version.
	Version version.Version

	// Repository is the source repository name recorded in the files.
	Repository string

	// Components maps component type to its records.
	Components map[component.Type][]component.Record
}

// New creates an empty Inventory for the given distribution and version.
func New(distribution string, v version.Version, repository string) *Inventory {
	return &Inventory{
		Distribution: distribution,
		Version:      v,
		Repository:   repository,
		Components:   make(map[component.Type][]component.Record, len(component.Types)),
	}
}

// Records returns the records of one component type, sorted by name.
func (inv *Inventory) Records(t component.Type) []component.Record {
	records := append([]component.Record(nil), inv.Components[t]...)
	component.SortRecords(records)
	return records
}

// Total returns the number of records across all component types.
func (inv *Inventory) Total() int {
	total := 0
	for _, records := range inv.Components {
		total += len(records)
	}
	return total
}

// snapshotDoc is the wire form of one {component_type}.yaml inventory file.
// It deliberately carries no timestamps or commit hashes so that
// structurally identical content is byte-identical.
type snapshotDoc struct {
	Distribution  string          `yaml:"distribution"`
	Version       string          `yaml:"version"`
	Repository    string          `yaml:"repository,omitempty"`
	ComponentType string          `yaml:"component_type"`
	Components    []component.Doc `yaml:"components"`
}

// marshalType serializes one component type of the inventory into its
// canonical byte form: components sorted by name, all nested collections
// sorted, stable key order.
func (inv *Inventory) marshalType(t component.Type) ([]byte, error) {
	records := inv.Records(t)

	docs := make([]component.Doc, 0, len(records))
	for _, r := range records {
		docs = append(docs, r.ToDoc())
	}

	doc := snapshotDoc{
		Distribution:  inv.Distribution,
		Version:       inv.Version.String(),
		Repository:    inv.Repository,
		ComponentType: string(t),
		Components:    docs,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s inventory: %w", t, err)
	}
	return data, nil
}

// unmarshalType parses one {component_type}.yaml file into records,
// revalidating every entry.
func unmarshalType(t component.Type, data []byte) (snapshotDoc, []component.Record, error) {
	var doc snapshotDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, nil, fmt.Errorf("failed to parse %s inventory: %w", t, err)
	}

	records := make([]component.Record, 0, len(doc.Components))
	for _, cd := range doc.Components {
		record, err := cd.ToRecord(t)
		if err != nil {
			return doc, nil, fmt.Errorf("invalid stored record %s/%s: %w", t, cd.Name, err)
		}
		records = append(records, record)
	}
	return doc, records, nil
}
