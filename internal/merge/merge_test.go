package merge

import (
	"testing"

	"github.com/coladb/colakv/internal/checksum"
	"github.com/coladb/colakv/internal/header"
	"github.com/coladb/colakv/internal/item"
	"github.com/coladb/colakv/internal/layout"
	"github.com/coladb/colakv/internal/policy"
	"github.com/coladb/colakv/internal/record"
	"github.com/coladb/colakv/internal/stats"
	"github.com/coladb/colakv/internal/vfs"
)

// harness wires an in-memory level store so merge can be driven without a
// full colakv.COLA or the header's disk layout.
type harness struct {
	t    *testing.T
	cfg  layout.Config
	f    vfs.File
	hdr  *header.Header
	cmp  item.Comparator
	hsz  int64
	sink *stats.Counters
}

func newHarness(t *testing.T, maxLevel int) *harness {
	t.Helper()
	cfg := layout.Config{ItemSize: item.Size(8), L0Size: 160, MaxLevel: maxLevel, MaxKeySize: 8}
	fs := vfs.NewMemFS()
	f, _, err := fs.OpenOrCreate("merge.cola")
	if err != nil {
		t.Fatalf("OpenOrCreate: %v", err)
	}
	hdr := header.New(cfg, checksum.TypeXXH3, 0)
	hsz := int64(header.Size(cfg, 0))
	if err := header.Persist(f, hdr, cfg); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	return &harness{t: t, cfg: cfg, f: f, hdr: &hdr, cmp: item.DefaultComparator(), hsz: hsz, sink: &stats.Counters{}}
}

func (h *harness) putLevel(i int, keys ...string) {
	items := make([]item.Item, len(keys))
	for idx, k := range keys {
		items[idx] = item.Item{Key: []byte(k), KeyLen: uint16(len(k)), Opt: item.Put}
	}
	if err := record.WriteLevel(h.f, h.hsz, h.cfg, i, items, len(items)); err != nil {
		h.t.Fatalf("WriteLevel(%d): %v", i, err)
	}
	h.hdr.Count[i] = uint32(len(items))
}

func (h *harness) readLevel(i, count, n int) ([]item.Item, error) {
	return record.ReadLevel(h.f, h.hsz, h.cfg, h.cmp, i, count, n)
}

func (h *harness) policyFor(dst int) policy.CompactionPolicy {
	return policy.LastWriterWins{Comparator: h.cmp, Deepest: dst == h.cfg.MaxLevel-1}
}

func TestMergeToNextShrinksSourceGrowsDestination(t *testing.T) {
	h := newHarness(t, 3)
	h.putLevel(0, "b", "a", "c")
	h.putLevel(1, "x")

	if err := MergeToNext(h.f, h.hsz, h.cfg, h.policyFor(1), h.sink, h.hdr, h.readLevel, 0, 3); err != nil {
		t.Fatalf("MergeToNext error: %v", err)
	}
	if h.hdr.Count[0] != 0 {
		t.Errorf("Count[0] = %d, want 0", h.hdr.Count[0])
	}
	if h.hdr.Count[1] != 4 {
		t.Errorf("Count[1] = %d, want 4", h.hdr.Count[1])
	}
	if h.sink.LevelMerges() != 1 {
		t.Errorf("LevelMerges = %d, want 1", h.sink.LevelMerges())
	}
}

func TestRunCascadesThroughMultipleLevels(t *testing.T) {
	h := newHarness(t, 3)
	// Level 1's capacity (gap 3) is 160*2/item - 3; fill level 1 to it, and
	// level 0 to its own gap-3 capacity (160/item - 3 = 3), so one Run
	// drains level 1 into level 2 and then level 0 into level 1.
	cap1 := h.cfg.LevelMax(1, Gap)
	keys1 := make([]string, cap1)
	for i := range keys1 {
		keys1[i] = string(rune('A' + i%26))
	}
	h.putLevel(1, keys1...)
	h.putLevel(0, "x", "y", "z")

	willfull, err := Run(h.f, h.hsz, h.cfg, h.sink, h.hdr, h.policyFor, h.readLevel)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	_ = willfull
	if h.hdr.Count[0] != 0 {
		t.Errorf("Count[0] after cascade = %d, want 0", h.hdr.Count[0])
	}
	if h.hdr.Count[2] == 0 {
		t.Error("Count[2] after cascade = 0, want a pushed-through population")
	}
}

func TestRunReportsWillfullWhenEveryDeeperLevelIsFull(t *testing.T) {
	h := newHarness(t, 3)
	for i := 1; i < h.cfg.MaxLevel; i++ {
		levelCap := h.cfg.LevelMax(i, Gap)
		keys := make([]string, levelCap)
		for j := range keys {
			keys[j] = string(rune('a' + j%26))
		}
		h.putLevel(i, keys...)
	}

	willfull, err := Run(h.f, h.hsz, h.cfg, h.sink, h.hdr, h.policyFor, h.readLevel)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !willfull {
		t.Error("Run() willfull = false, want true when every level but the shallowest is full")
	}
}

func TestMergeToNextFailsWhenNoDestination(t *testing.T) {
	h := newHarness(t, 3)
	if err := MergeToNext(h.f, h.hsz, h.cfg, h.policyFor(3), h.sink, h.hdr, h.readLevel, 2, 0); err == nil {
		t.Error("MergeToNext from the deepest level: want error, got nil")
	}
}

func TestMergeToNextPersistsHeaderAfterDestinationWrite(t *testing.T) {
	h := newHarness(t, 3)
	h.putLevel(0, "a")
	h.putLevel(1)

	if err := MergeToNext(h.f, h.hsz, h.cfg, h.policyFor(1), h.sink, h.hdr, h.readLevel, 0, 1); err != nil {
		t.Fatalf("MergeToNext error: %v", err)
	}

	reloaded, err := header.Load(h.f, h.cfg, 0)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Count[1] != 1 {
		t.Errorf("persisted Count[1] = %d, want 1", reloaded.Count[1])
	}
}
