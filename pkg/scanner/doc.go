// Package scanner discovers component declarations in a distribution
// checkout. Components are identified by type-named parent directories
// (receiver/, processor/, exporter/, connector/, extension/) containing a
// Go module marker and a metadata.yaml declaration file.
//
// Scanning is tolerant of individual failures: a directory without a
// declaration file is skipped with a warning, and a malformed declaration
// is collected as a parse error without blocking sibling components.
package scanner
