// Package merge implements the level-full state machine: for each full
// level from deepest to shallowest, decide how many items to push into
// the next level and perform the push, collapsing duplicate keys via a
// CompactionPolicy and updating the header-backed counts as it goes.
//
// This is the heart of the design: a single deterministic decision table,
// in place of a pluggable compaction-picker's heuristics.
package merge

import (
	"fmt"
	"io"

	"github.com/coladb/colakv/internal/header"
	"github.com/coladb/colakv/internal/item"
	"github.com/coladb/colakv/internal/layout"
	"github.com/coladb/colakv/internal/policy"
	"github.com/coladb/colakv/internal/record"
	"github.com/coladb/colakv/internal/stats"
)

// Gap is the safety margin reserved so a push decision never plans to
// exactly fill a destination level.
const Gap = 3

// rw bundles the random-access handle merge operates against. It is
// satisfied by internal/vfs.File and by test doubles.
type rw interface {
	io.ReaderAt
	io.WriterAt
}

// ReadLevelFunc reads the last n items (of count currently populated) of
// level i, exactly as internal/record.ReadLevel does; it is injected so
// this package doesn't need to know about the comparator L0 sorting needs.
type ReadLevelFunc func(i, count, n int) ([]item.Item, error)

// PolicyFunc returns the CompactionPolicy to use for a push landing on
// destination level dst, so the deepest-level tombstone-eliding behavior
// (internal/policy.LastWriterWins.Deepest) can be selected per push.
type PolicyFunc func(dst int) policy.CompactionPolicy

// Run performs one full merge-check pass: scanning levels from deepest to
// shallowest, pushing from any level at or past its effective capacity
// into the next, until the scan reaches level 0. Each push mutates
// hdr.Count in place and persists hdr before Run continues, so a
// shallower level's "is my destination already full" check in the same
// pass sees the result of any push a deeper level already made into it —
// this keeps the single-pass state machine exact rather than computing
// all decisions against a stale snapshot.
//
// Run returns willfull: true once every level but the shallowest is at or
// past its effective capacity.
func Run(f rw, hdrSize int64, cfg layout.Config, sink stats.StatsSink, hdr *header.Header, policyFor PolicyFunc, readLevel ReadLevelFunc) (willfull bool, err error) {
	full := 0
	for i := cfg.MaxLevel - 1; i >= 0; i-- {
		c := int(hdr.Count[i])
		max := cfg.LevelMax(i, Gap)

		if i == cfg.MaxLevel-1 {
			if c >= max {
				full++
			}
			continue
		}

		nxtC := int(hdr.Count[i+1])
		nxtMax := cfg.LevelMax(i+1, Gap)

		if nxtC >= nxtMax {
			full++
			continue
		}

		if c < max {
			continue
		}

		room := nxtMax - (c + nxtC)
		push := c
		if room < 0 {
			push = nxtMax - nxtC
		}
		if push <= 0 {
			continue
		}

		pol := policyFor(i + 1)
		if err := MergeToNext(f, hdrSize, cfg, pol, sink, hdr, readLevel, i, push); err != nil {
			return false, err
		}
	}

	return full >= cfg.MaxLevel-1, nil
}

// MergeToNext performs one push: read the tail m items of level i, read
// all of level i+1, merge via pol, write the result at level i+1's
// offset, update hdr's counts, and persist hdr. It mutates hdr in place
// and returns an error if any I/O step fails — every failure here is
// fatal, left to the caller (colakv.COLA) to route into its logger and
// fatal-state transition.
//
// The header is written last, after the destination write succeeds: a
// crash between the destination write and this persist leaves the
// pre-merge counts in the header, which is by design the safe recoverable
// state — the stale merged bytes past the old count[i+1] are simply
// ignored by every reader.
func MergeToNext(f rw, hdrSize int64, cfg layout.Config, pol policy.CompactionPolicy, sink stats.StatsSink, hdr *header.Header, readLevel ReadLevelFunc, i int, m int) error {
	if i < 0 || i+1 >= cfg.MaxLevel {
		return fmt.Errorf("merge: level %d has no destination", i)
	}

	srcCount := int(hdr.Count[i])
	if m > srcCount {
		return fmt.Errorf("merge: push count %d exceeds level %d population %d", m, i, srcCount)
	}
	dstCount := int(hdr.Count[i+1])

	tail, err := readLevel(i, srcCount, m)
	if err != nil {
		return fmt.Errorf("merge: read source level %d: %w", i, err)
	}
	dst, err := readLevel(i+1, dstCount, dstCount)
	if err != nil {
		return fmt.Errorf("merge: read destination level %d: %w", i+1, err)
	}

	merged := pol.Merge(tail, dst)
	if len(merged) > cfg.LevelMax(i+1, 0) {
		return fmt.Errorf("merge: merged run of %d items exceeds level %d capacity", len(merged), i+1)
	}

	if err := record.WriteLevel(f, hdrSize, cfg, i+1, merged, len(merged)); err != nil {
		return fmt.Errorf("merge: write destination level %d: %w", i+1, err)
	}

	hdr.Count[i] = uint32(srcCount - m)
	hdr.Count[i+1] = uint32(len(merged))

	if err := header.Persist(f, *hdr, cfg); err != nil {
		return fmt.Errorf("merge: persist header after level %d->%d push: %w", i, i+1, err)
	}

	sink.IncLevelMerges()
	return nil
}
