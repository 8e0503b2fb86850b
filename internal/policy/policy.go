// Package policy implements the compaction collaborator: the pluggable
// stable merge that two sorted item runs go through on every push between
// levels, and on the full-merge reader's accumulation.
package policy

import "github.com/coladb/colakv/internal/item"

// CompactionPolicy merges two ascending-sorted, duplicate-free runs into
// one ascending-sorted run. newRun is the shallower (younger) input; on a
// key collision the item from newRun wins, since inserts flow top-down
// and shallower always represents a later write. The returned run's
// length is never more than len(newRun)+len(oldRun).
type CompactionPolicy interface {
	Merge(newRun, oldRun []item.Item) []item.Item
}

// LastWriterWins is the default CompactionPolicy: on a key collision the
// item from newRun survives, and if deepest is true a Del tombstone is
// dropped entirely rather than carried forward, since there is no level
// left for a stale Put of the same key to hide behind once a tombstone
// reaches the bottom of the structure.
type LastWriterWins struct {
	Comparator item.Comparator

	// Deepest marks that the destination of this merge is the last level
	// (MaxLevel-1); only then may a Del be elided instead of carried.
	Deepest bool
}

// Merge implements CompactionPolicy.
func (p LastWriterWins) Merge(newRun, oldRun []item.Item) []item.Item {
	cmp := p.Comparator
	out := make([]item.Item, 0, len(newRun)+len(oldRun))

	i, j := 0, 0
	for i < len(newRun) && j < len(oldRun) {
		c := cmp.Compare(newRun[i].Key, oldRun[j].Key)
		switch {
		case c < 0:
			out = append(out, newRun[i])
			i++
		case c > 0:
			out = append(out, oldRun[j])
			j++
		default:
			// Same key in both runs: the newer (shallower) one wins
			// outright, the older duplicate is dropped.
			out = append(out, newRun[i])
			i++
			j++
		}
	}
	out = append(out, newRun[i:]...)
	out = append(out, oldRun[j:]...)

	if !p.Deepest {
		return out
	}

	// At the deepest level there is nothing left below to shadow, so a
	// tombstone has served its purpose and is elided.
	live := out[:0]
	for _, it := range out {
		if it.Opt == item.Del {
			continue
		}
		live = append(live, it)
	}
	return live
}
