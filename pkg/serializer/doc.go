// Package serializer renders run summaries, inventories, and changelog
// reports to JSON, YAML, or a flattened table, writing to stdout or a file.
package serializer
