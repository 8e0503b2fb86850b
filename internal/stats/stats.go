// Package stats implements the stats sink collaborator: a small set of
// counters the core increments as it runs, in a TickerType-style
// atomic-counter interface scoped to this store's own operations rather
// than a general-purpose engine's much larger ticker taxonomy.
package stats

import "sync/atomic"

// StatsSink is the pluggable counters collaborator. Implementations must
// be safe for concurrent use even though COLA itself is single-owner,
// since a caller may read counters from another goroutine while an Add is
// in flight.
type StatsSink interface {
	IncLevelMerges()
	IncFullScanCompactions()
	IncAdds()
	IncGets()
	IncGetHits()
	IncWillfull()
}

// Counters is the default atomic-counter StatsSink.
type Counters struct {
	levelMerges         atomic.Uint64
	fullScanCompactions atomic.Uint64
	adds                atomic.Uint64
	gets                atomic.Uint64
	getHits             atomic.Uint64
	willfullTransitions atomic.Uint64
}

var _ StatsSink = (*Counters)(nil)

func (c *Counters) IncLevelMerges()         { c.levelMerges.Add(1) }
func (c *Counters) IncFullScanCompactions() { c.fullScanCompactions.Add(1) }
func (c *Counters) IncAdds()                { c.adds.Add(1) }
func (c *Counters) IncGets()                { c.gets.Add(1) }
func (c *Counters) IncGetHits()             { c.getHits.Add(1) }
func (c *Counters) IncWillfull()            { c.willfullTransitions.Add(1) }

// LevelMerges returns the count of level->level pushes performed so far.
func (c *Counters) LevelMerges() uint64 { return c.levelMerges.Load() }

// FullScanCompactions returns the count of InOne calls performed so far.
func (c *Counters) FullScanCompactions() uint64 { return c.fullScanCompactions.Load() }

// Adds returns the count of Add calls.
func (c *Counters) Adds() uint64 { return c.adds.Load() }

// Gets returns the count of Get calls.
func (c *Counters) Gets() uint64 { return c.gets.Load() }

// GetHits returns the count of Get calls that found a live value.
func (c *Counters) GetHits() uint64 { return c.getHits.Load() }

// WillfullTransitions returns the count of times Add observed the
// structure become willfull after a merge cascade.
func (c *Counters) WillfullTransitions() uint64 { return c.willfullTransitions.Load() }

// Discard is a StatsSink that drops every increment, for callers that
// don't care about metrics.
type Discard struct{}

var _ StatsSink = Discard{}

func (Discard) IncLevelMerges()         {}
func (Discard) IncFullScanCompactions() {}
func (Discard) IncAdds()                {}
func (Discard) IncGets()                {}
func (Discard) IncGetHits()             {}
func (Discard) IncWillfull()            {}
