// Package defaults centralizes timeout constants so operational limits
// are tuned in one place.
package defaults
