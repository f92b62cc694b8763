// Package exporter publishes compliance snapshots as Prometheus metrics.
package exporter

import (
	"sync/atomic"

	"github.com/yairfalse/leima/compliance"
)

// Registry holds the current compliance snapshot. Publish swaps the whole
// snapshot pointer, so a concurrent reader sees either the fully-prior or
// the fully-new statistics, never a mixture, and neither side blocks.
type Registry struct {
	snapshot atomic.Pointer[compliance.Snapshot]
}

// NewRegistry creates an empty registry. Snapshot returns nil until the
// first publish.
func NewRegistry() *Registry {
	return &Registry{}
}

// Publish replaces the current snapshot. The previous snapshot is dropped
// entirely; nothing merges across cycles.
func (r *Registry) Publish(snap *compliance.Snapshot) {
	r.snapshot.Store(snap)
}

// Snapshot returns the last published snapshot, or nil before the first
// successful scan cycle.
func (r *Registry) Snapshot() *compliance.Snapshot {
	return r.snapshot.Load()
}
