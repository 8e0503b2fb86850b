package colakv

// cola.go wires internal/layout, internal/item, internal/header,
// internal/record, internal/merge, internal/policy, internal/filter, and
// internal/stats into the Open/Add/Get/InOne/Close/Truncate lifecycle. It is
// a thin orchestration layer over those packages, the same role a full LSM
// engine's top-level handle plays over its own internals, shrunk to one
// handle's worth of state since a COLA has no column families, no
// background threads, and no WAL.

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/coladb/colakv/internal/filter"
	"github.com/coladb/colakv/internal/header"
	"github.com/coladb/colakv/internal/item"
	"github.com/coladb/colakv/internal/layout"
	"github.com/coladb/colakv/internal/logging"
	"github.com/coladb/colakv/internal/merge"
	"github.com/coladb/colakv/internal/policy"
	"github.com/coladb/colakv/internal/record"
	"github.com/coladb/colakv/internal/vfs"
)

// Item is the fixed-width record Add writes and Get/InOne return.
type Item = item.Item

// Opt tags whether an Item is a live value or a tombstone.
type Opt = item.Opt

// Put and Del are the two Opt values.
const (
	Put = item.Put
	Del = item.Del
)

// COLA is one open handle on a single COLA file. It is NOT safe for
// concurrent use; the caller serializes Add, Get, InOne, Truncate, and
// Rebuild calls against each other.
type COLA struct {
	opts *Options
	cfg  layout.Config
	cmp  item.Comparator

	fs   vfs.FS
	path string
	f    vfs.File
	lock io.Closer

	filter MembershipFilter
	stats  StatsSink
	logger Logger

	hdr      header.Header
	hdrSize  int64
	willfull atomic.Bool
	fatal    atomic.Bool

	closed bool
}

// Open opens path, creating it if absent and opts.CreateIfMissing is true
// (the default). If nil, opts defaults to DefaultOptions().
func Open(path string, opts *Options) (*COLA, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	cfg := opts.layoutConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("colakv: %w", err)
	}

	fsys := opts.fs()
	logger := opts.logger()

	lock, err := fsys.Lock(path + ".lock")
	if err != nil {
		return nil, fmt.Errorf("colakv: acquire lock: %w", err)
	}

	f, existed, err := fsys.OpenOrCreate(path)
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("colakv: open: %w", err)
	}
	if !existed && !opts.CreateIfMissing {
		_ = f.Close()
		_ = fsys.Remove(path)
		_ = lock.Close()
		return nil, fmt.Errorf("colakv: %s does not exist and CreateIfMissing is false", path)
	}

	mf := opts.membershipFilter()
	bitsetLen := len(mf.Bitset())
	hdrSize := int64(header.Size(cfg, bitsetLen))

	var hdr header.Header
	if existed {
		hdr, err = header.Load(f, cfg, bitsetLen)
		if err != nil {
			_ = f.Close()
			_ = lock.Close()
			return nil, fmt.Errorf("colakv: %w", err)
		}
		if opts.MembershipFilter == nil {
			mf = filter.Load(hdr.Bitset)
		}
	} else {
		hdr = header.New(cfg, opts.ChecksumType, bitsetLen)
		copy(hdr.Bitset, mf.Bitset())
		if err := header.Persist(f, hdr, cfg); err != nil {
			_ = f.Close()
			_ = lock.Close()
			return nil, fmt.Errorf("colakv: initialize header: %w", err)
		}
	}

	c := &COLA{
		opts:    opts,
		cfg:     cfg,
		cmp:     opts.comparator(),
		fs:      fsys,
		path:    path,
		f:       f,
		lock:    lock,
		filter:  mf,
		stats:   opts.statsSink(),
		logger:  logger,
		hdr:     hdr,
		hdrSize: hdrSize,
	}
	c.logger.Infof("%sopened %s (levels=%d l0Size=%d maxKeySize=%d)", logging.NSOpen, path, cfg.MaxLevel, cfg.L0Size, cfg.MaxKeySize)
	return c, nil
}

// Close releases the file descriptor, the filter, and the advisory lock.
// No final header flush is needed: every mutation already persists it
// inline.
func (c *COLA) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Infof("%sclosing %s", logging.NSOpen, c.path)
	err := c.f.Close()
	if lerr := c.lock.Close(); err == nil {
		err = lerr
	}
	return err
}

// Willfull reports whether every level but the shallowest is at or past
// its effective merge-trigger capacity — the driving layer should perform
// an out-of-band Rebuild soon.
func (c *COLA) Willfull() bool { return c.willfull.Load() }

// LevelCounts returns a snapshot of each level's current population.
func (c *COLA) LevelCounts() []int {
	counts := make([]int, len(c.hdr.Count))
	for i, n := range c.hdr.Count {
		counts[i] = int(n)
	}
	return counts
}

// LevelCapacity returns level i's at-rest item capacity (gap 0).
func (c *COLA) LevelCapacity(i int) int { return c.cfg.LevelMax(i, 0) }

// MaxKey returns the largest key ever inserted (byte-string order).
func (c *COLA) MaxKey() []byte {
	return append([]byte(nil), c.hdr.MaxKey[:c.hdr.MaxKeyLen]...)
}

func (c *COLA) checkOpen() error {
	if c.closed {
		return ErrClosed
	}
	if c.fatal.Load() {
		return ErrFatal
	}
	return nil
}

// fail transitions the handle into its fatal state and logs msg via
// Fatalf: an I/O failure is fatal, and every subsequent Add/Get/InOne call
// returns ErrFatal without touching the file further.
func (c *COLA) fail(format string, args ...any) error {
	c.fatal.Store(true)
	c.logger.Fatalf(format, args...)
	return fmt.Errorf(format, args...)
}

// readLevel adapts record.ReadLevel to internal/merge's ReadLevelFunc
// signature, closing over c's file handle, layout, and comparator.
func (c *COLA) readLevel(i, count, n int) ([]item.Item, error) {
	return record.ReadLevel(c.f, c.hdrSize, c.cfg, c.cmp, i, count, n)
}

// policyFor returns the CompactionPolicy a push landing on level dst
// should use.
func (c *COLA) policyFor(dst int) CompactionPolicy {
	return c.opts.compactionPolicyFor(c.cmp, dst, c.cfg.MaxLevel)
}

// Add appends item to level 0, updates the membership filter and max key,
// persists the header, and cascades merges if level 0 is now at or past
// its trigger capacity.
func (c *COLA) Add(it Item) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if len(it.Key) > c.cfg.MaxKeySize {
		return fmt.Errorf("%w: key length %d exceeds %d", ErrKeyTooLong, len(it.Key), c.cfg.MaxKeySize)
	}
	it.KeyLen = uint16(len(it.Key))

	if it.Opt == Put {
		c.filter.Add(it.Key)
	}

	pos := c.hdrSize + c.cfg.LevelOffset(0) + int64(c.hdr.Count[0])*int64(c.cfg.ItemSize)
	buf := make([]byte, c.cfg.ItemSize)
	if err := item.Encode(buf, it, c.cfg.MaxKeySize); err != nil {
		return fmt.Errorf("colakv: encode item: %w", err)
	}
	if _, err := c.f.WriteAt(buf, pos); err != nil {
		return c.fail("%swrite item at level 0: %v", logging.NSInsert, err)
	}

	if c.cmp.Compare(it.Key, c.hdr.MaxKey[:c.hdr.MaxKeyLen]) > 0 {
		maxKey := make([]byte, c.cfg.MaxKeySize)
		copy(maxKey, it.Key)
		c.hdr.MaxKey = maxKey
		c.hdr.MaxKeyLen = it.KeyLen
	}

	c.hdr.Count[0]++
	copy(c.hdr.Bitset, c.filter.Bitset())
	if err := header.Persist(c.f, c.hdr, c.cfg); err != nil {
		return c.fail("%spersist header after insert: %v", logging.NSInsert, err)
	}
	c.stats.IncAdds()

	if int(c.hdr.Count[0]) >= c.cfg.LevelMax(0, 1) {
		willfull, err := merge.Run(c.f, c.hdrSize, c.cfg, c.stats, &c.hdr, c.policyFor, c.readLevel)
		if err != nil {
			return c.fail("%smerge cascade: %v", logging.NSMerge, err)
		}
		wasWillfull := c.willfull.Swap(willfull)
		if willfull && !wasWillfull {
			c.stats.IncWillfull()
			c.logger.Warnf("%sstructure is willfull, out-of-band rebuild recommended", logging.NSMerge)
		}
	}

	return nil
}

// Get searches level 0 (linear, after an in-memory sort) then each deeper
// level (binary search). A match in level 0 shadows
// every deeper level regardless of its Opt.
func (c *COLA) Get(key []byte) (GetResult, error) {
	if err := c.checkOpen(); err != nil {
		return GetResult{}, err
	}
	c.stats.IncGets()

	l0, err := c.readLevel(0, int(c.hdr.Count[0]), int(c.hdr.Count[0]))
	if err != nil {
		return GetResult{}, c.fail("%sread level 0: %v", logging.NSLookup, err)
	}
	if res, ok := scanSorted(l0, c.cmp, key); ok {
		if res.Status == Found {
			c.stats.IncGetHits()
		}
		return res, nil
	}

	for i := 1; i < c.cfg.MaxLevel; i++ {
		count := int(c.hdr.Count[i])
		if count == 0 {
			continue
		}
		it, found, err := c.binarySearchLevel(i, count, key)
		if err != nil {
			return GetResult{}, c.fail("%sbinary search level %d: %v", logging.NSLookup, i, err)
		}
		if found {
			res := resultFor(it)
			if res.Status == Found {
				c.stats.IncGetHits()
			}
			return res, nil
		}
	}

	return GetResult{Status: Absent}, nil
}

// binarySearchLevel performs one positional read per probe over
// [0, count).
func (c *COLA) binarySearchLevel(i, count int, key []byte) (item.Item, bool, error) {
	lo, hi := 0, count-1
	base := c.hdrSize + c.cfg.LevelOffset(i)
	itemSize := int64(c.cfg.ItemSize)
	buf := make([]byte, c.cfg.ItemSize)

	for lo <= hi {
		mid := lo + (hi-lo)/2
		if _, err := c.f.ReadAt(buf, base+int64(mid)*itemSize); err != nil {
			return item.Item{}, false, err
		}
		it, err := item.Decode(buf, c.cfg.MaxKeySize)
		if err != nil {
			return item.Item{}, false, err
		}
		cmp := c.cmp.Compare(key, it.Key)
		switch {
		case cmp == 0:
			return it, true, nil
		case cmp < 0:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return item.Item{}, false, nil
}

// scanSorted linearly scans a sorted run for key (used for L0, which
// readLevel has already sorted in memory).
func scanSorted(run []item.Item, cmp item.Comparator, key []byte) (GetResult, bool) {
	for _, it := range run {
		if cmp.Compare(it.Key, key) == 0 {
			return resultFor(it), true
		}
	}
	return GetResult{}, false
}

func resultFor(it item.Item) GetResult {
	if it.Opt == Del {
		return GetResult{Status: Tombstoned}
	}
	return GetResult{Status: Found, Offset: it.Offset, VLen: it.VLen}
}

// InOne produces a single sorted, deduplicated run containing every live
// item, walking levels from 0 upward and merging the
// accumulator with each subsequent non-empty level.
func (c *COLA) InOne() ([]Item, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	var acc []item.Item
	for i := 0; i < c.cfg.MaxLevel; i++ {
		count := int(c.hdr.Count[i])
		if count == 0 {
			continue
		}
		cur, err := c.readLevel(i, count, count)
		if err != nil {
			return nil, c.fail("%sread level %d: %v", logging.NSInsert, i, err)
		}
		if acc == nil {
			acc = cur
			continue
		}
		pol := policy.LastWriterWins{Comparator: c.cmp, Deepest: i == c.cfg.MaxLevel-1}
		acc = pol.Merge(acc, cur)
	}

	c.stats.IncFullScanCompactions()
	return acc, nil
}

// Truncate zeroes the in-memory header and clears the willfull signal
// without shrinking the file or persisting the zeroed header: this marks
// the handle's logical dataset empty so the next Add starts overwriting
// level 0 from scratch, it does not prepare the file for removal (see
// DESIGN.md for the reasoning). The zeroed header is NOT persisted by
// Truncate itself; the next Add's header persist makes it durable.
func (c *COLA) Truncate() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	bitsetLen := len(c.hdr.Bitset)
	c.hdr = header.New(c.cfg, c.opts.ChecksumType, bitsetLen)
	c.willfull.Store(false)
	c.logger.Infof("%struncated %s", logging.NSOpen, c.path)
	return nil
}
