// Package weights holds the mutable scheduling weight table. Weights are
// keyed by program identifier, default to 1.0, and every accepted edit bumps
// a monotonic version so concurrent scheduling passes can tell which table
// they scored with. Invalid edits never disturb the stored value.
package weights
