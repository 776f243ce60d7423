// Package watcher ties version detection, scanning, merging, and storage
// into the end-to-end workflows: nightly runs that publish new releases
// and refresh snapshots, targeted scans of specific versions, and
// changelog comparisons between stored inventories.
package watcher
