// Package changelog computes the structured difference between two
// versioned component inventories of the same component type: additions,
// removals, per-signal stability level transitions, and distribution
// membership changes. Output ordering is fully deterministic.
package changelog
