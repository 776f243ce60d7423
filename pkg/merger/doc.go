// Package merger combines per-distribution scan results for the same
// version into one unified inventory. Overlapping components collapse to
// a single record whose distributions set is the union of everything that
// declares them; conflicting declared type strings resolve by a
// configurable precedence order (core first by default) and surface as
// warnings rather than errors.
package merger
