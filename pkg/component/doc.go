// Package component defines the canonical component record model and the
// parser for component declaration files.
//
// A component is a pluggable unit of one type (receiver, processor,
// exporter, connector, extension) identified by name within its type.
// Declaration files are loosely-typed YAML; parsing builds a strictly
// validated Record (unknown stability levels and missing required fields
// are rejected) so that malformed upstream metadata fails fast and locally
// instead of propagating ambiguity into the changelog.
package component
