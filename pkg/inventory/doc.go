// Package inventory persists versioned component inventories as a
// deterministic, diff-friendly file tree:
//
//	collector-metadata/{distribution}/{version}/{component_type}.yaml
//
// Serialization is canonical (components sorted by name, nested
// collections sorted, no timestamps or commit hashes), so structurally
// identical content is byte-identical regardless of discovery order.
//
// Two lifecycle rules are enforced at write time against the on-disk
// directory listing: a release version is immutable once stored, and at
// most one SNAPSHOT version exists per distribution. Every version
// directory is staged in full and atomically renamed into place.
package inventory
