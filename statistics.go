package colakv

import "github.com/coladb/colakv/internal/stats"

// StatsSink is the pluggable counters collaborator. The core increments
// it; exposing the values is the caller's responsibility.
type StatsSink = stats.StatsSink

// NewCounters returns the default atomic-counter StatsSink.
func NewCounters() *stats.Counters { return &stats.Counters{} }

// DiscardStats is a StatsSink that drops every increment.
var DiscardStats = stats.Discard{}
