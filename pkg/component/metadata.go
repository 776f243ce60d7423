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

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// MetadataFile is the declaration file name looked up in every component directory.
const MetadataFile = "metadata.yaml"

// ParseError describes a component declaration that could not be parsed or
// validated. Parse errors are collected per component and never abort the
// scan of sibling components.
type ParseError struct {
	// Path is the component path relative to the repository root,
	// e.g. "receiver/otlpreceiver".
	Path string

	// Cause is the human-readable reason the declaration was rejected.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid metadata for %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// MetadataDoc is the wire form of one component's metadata block. The same
// shape appears at the top level of a metadata.yaml declaration file and
// nested under each component entry in stored inventory files.
type MetadataDoc struct {
	Type   string    `yaml:"type"`
	Status StatusDoc `yaml:"status"`
}

// StatusDoc is the wire form of the status block.
type StatusDoc struct {
	Class         string              `yaml:"class"`
	Distributions []string            `yaml:"distributions,omitempty"`
	Stability     map[string][]string `yaml:"stability,omitempty"`
}

// Doc is the wire form of one component entry in an inventory file.
type Doc struct {
	Name     string      `yaml:"name"`
	Metadata MetadataDoc `yaml:"metadata"`
}

// ParseMetadata parses and validates raw metadata.yaml content for the
// component at path (relative to the repository root, used for error
// reporting). The declared class must equal the component type derived from
// the type-named parent directory. Unknown stability level names are
// rejected rather than silently dropped.
func ParseMetadata(path, name string, class Type, data []byte) (Record, *ParseError) {
	var doc MetadataDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Record{}, &ParseError{Path: path, Cause: err}
	}

	record, err := recordFromMetadata(name, class, doc)
	if err != nil {
		return Record{}, &ParseError{Path: path, Cause: err}
	}
	return record, nil
}

// recordFromMetadata builds a validated Record from its wire form.
func recordFromMetadata(name string, class Type, doc MetadataDoc) (Record, error) {
	if doc.Type == "" {
		return Record{}, fmt.Errorf("missing required field: type")
	}
	if doc.Status.Class == "" {
		return Record{}, fmt.Errorf("missing required field: status.class")
	}
	if doc.Status.Class != string(class) {
		return Record{}, fmt.Errorf("status.class %q does not match component type %q",
			doc.Status.Class, class)
	}

	stability := make(map[string]StabilityLevel)
	for levelName, signals := range doc.Status.Stability {
		level, ok := ParseStabilityLevel(levelName)
		if !ok {
			return Record{}, fmt.Errorf("unknown stability level %q", levelName)
		}
		for _, signal := range signals {
			if existing, dup := stability[signal]; dup {
				return Record{}, fmt.Errorf("signal %q declared under both %q and %q",
					signal, existing, level)
			}
			stability[signal] = level
		}
	}

	distributions := append([]string(nil), doc.Status.Distributions...)
	sort.Strings(distributions)

	return Record{
		Name:          name,
		Type:          doc.Type,
		Class:         class,
		Distributions: distributions,
		Stability:     stability,
	}, nil
}

// ToDoc converts the record into its wire form with fully sorted content,
// so that marshaling the result is deterministic.
func (r Record) ToDoc() Doc {
	stability := make(map[string][]string)
	for signal, level := range r.Stability {
		stability[string(level)] = append(stability[string(level)], signal)
	}
	for _, signals := range stability {
		sort.Strings(signals)
	}
	if len(stability) == 0 {
		stability = nil
	}

	distributions := append([]string(nil), r.Distributions...)
	sort.Strings(distributions)

	return Doc{
		Name: r.Name,
		Metadata: MetadataDoc{
			Type: r.Type,
			Status: StatusDoc{
				Class:         string(r.Class),
				Distributions: distributions,
				Stability:     stability,
			},
		},
	}
}

// ToRecord converts a stored inventory entry back into a Record,
// revalidating it against the component type of the file it came from.
func (d Doc) ToRecord(class Type) (Record, error) {
	return recordFromMetadata(d.Name, class, d.Metadata)
}
