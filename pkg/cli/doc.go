// Package cli implements the watcher command line interface: the scan
// command that publishes versioned component inventories and the changelog
// command that compares stored versions.
package cli
