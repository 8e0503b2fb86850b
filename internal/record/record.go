// Package record implements positional read/write of one level's run of
// fixed-size items. It is deliberately thin: it knows nothing about
// headers, merge policy, or the membership filter — only how to turn a
// level index and item count into bytes at the right file offset.
//
// Stale bytes past a level's count are never zeroed by WriteLevel; the
// authoritative population is always the header's Count field, never the
// file's physical length within a level's region. Every read of a level's
// bytes — ReadLevel here, and colakv's per-probe binary search in Get —
// is bounded by the level's count.
package record

import (
	"fmt"
	"io"
	"sort"

	"github.com/coladb/colakv/internal/item"
	"github.com/coladb/colakv/internal/layout"
)

// ReadLevel reads the last n items of level i (out of count currently
// populated): the merge engine always consumes from a level's tail so it
// can shrink the source by decrementing its count without rewriting
// anything. The returned slice has capacity n+1; the trailing slot is
// left zeroed and reserved for the merge engine's own sentinel use.
//
// hdrSize is the byte offset the levels region starts at — i.e. the size
// of the header currently on disk. Callers (colakv.COLA) pass this in
// because it varies with bitset length, which record has no reason to
// know about.
//
// For level 0, the result is sorted in place by cmp before it is
// returned (L0 is unsorted on disk); for i >= 1 no sort is performed
// since a sorted level's tail is itself sorted.
func ReadLevel(r io.ReaderAt, hdrSize int64, cfg layout.Config, cmp item.Comparator, i int, count int, n int) ([]item.Item, error) {
	if n < 0 || n > count {
		return nil, fmt.Errorf("record: read n=%d exceeds level %d count=%d", n, i, count)
	}
	itemSize := cfg.ItemSize
	base := hdrSize + cfg.LevelOffset(i) + int64(count-n)*int64(itemSize)

	buf := make([]byte, n*itemSize)
	if n > 0 {
		if _, err := r.ReadAt(buf, base); err != nil {
			return nil, fmt.Errorf("record: read level %d: %w", i, err)
		}
	}

	out := make([]item.Item, n, n+1)
	for j := 0; j < n; j++ {
		it, err := item.Decode(buf[j*itemSize:(j+1)*itemSize], cfg.MaxKeySize)
		if err != nil {
			return nil, fmt.Errorf("record: decode level %d item %d: %w", i, j, err)
		}
		out[j] = it
	}

	if i == 0 {
		sort.SliceStable(out, func(a, b int) bool {
			return cmp.Compare(out[a].Key, out[b].Key) < 0
		})
		out = dedupLastWins(out, cmp)
	}

	return out, nil
}

// dedupLastWins collapses runs of equal keys in a stably-sorted slice down
// to their last element. The slice arrived in level-0 physical order (the
// order Add appended items in) before the stable sort above reordered it by
// key, so within any equal-key run the last element is still the most
// recently written one — exactly the entry a level-0 scan is required to
// shadow everything else with. Every level above 0 is written by the merge
// engine with this same property already enforced, so it never calls this.
func dedupLastWins(items []item.Item, cmp item.Comparator) []item.Item {
	if len(items) == 0 {
		return items
	}
	out := items[:1]
	for _, it := range items[1:] {
		if cmp.Compare(it.Key, out[len(out)-1].Key) == 0 {
			out[len(out)-1] = it
			continue
		}
		out = append(out, it)
	}
	return out
}

// WriteLevel positionally writes the first n items of items starting at
// level i's offset, overwriting whatever was previously there. It never
// zeroes beyond the written region.
func WriteLevel(w io.WriterAt, hdrSize int64, cfg layout.Config, i int, items []item.Item, n int) error {
	if n < 0 || n > len(items) {
		return fmt.Errorf("record: write n=%d exceeds provided item count=%d", n, len(items))
	}
	itemSize := cfg.ItemSize
	base := hdrSize + cfg.LevelOffset(i)

	if n == 0 {
		return nil
	}
	buf := make([]byte, n*itemSize)
	for j := 0; j < n; j++ {
		if err := item.Encode(buf[j*itemSize:(j+1)*itemSize], items[j], cfg.MaxKeySize); err != nil {
			return fmt.Errorf("record: encode level %d item %d: %w", i, j, err)
		}
	}
	if _, err := w.WriteAt(buf, base); err != nil {
		return fmt.Errorf("record: write level %d: %w", i, err)
	}
	return nil
}
