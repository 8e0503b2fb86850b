package colakv

// rebuild.go supplies the out-of-band full-merge-and-compact action a
// caller is expected to perform once Willfull reports true: colakv ships
// one reference implementation here rather than leaving it entirely to
// the caller.

import (
	"fmt"
	"os"

	atomicfile "github.com/natefinch/atomic"

	"github.com/coladb/colakv/internal/header"
	"github.com/coladb/colakv/internal/item"
	"github.com/coladb/colakv/internal/logging"
	"github.com/coladb/colakv/internal/record"
)

// Rebuild runs InOne over c, writes the result as a fresh file with every
// live item placed at the deepest level (so the rebuilt file starts
// maximally compact and does not immediately re-trigger a cascade), and
// atomically replaces the original file with it using
// github.com/natefinch/atomic. The handle is reopened in place against
// the replaced file.
//
// Rebuild requires exclusive access to c for its duration, the same as any
// other mutating call. It does not change the core's crash-safety
// contract: it is caller-side convenience, not a crash-safe two-phase
// merge.
func (c *COLA) Rebuild() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.logger.Infof("%sstarting rebuild of %s", logging.NSRebuild, c.path)

	live, err := c.InOne()
	if err != nil {
		return fmt.Errorf("colakv: rebuild: %w", err)
	}

	deepest := c.cfg.MaxLevel - 1
	if len(live) > c.cfg.LevelMax(deepest, 0) {
		return fmt.Errorf("colakv: rebuild: %d live items exceed deepest level capacity %d", len(live), c.cfg.LevelMax(deepest, 0))
	}

	tmp, err := os.CreateTemp("", "colakv-rebuild-*.cola")
	if err != nil {
		return fmt.Errorf("colakv: rebuild: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	bitsetLen := len(c.hdr.Bitset)
	newHdr := header.New(c.cfg, c.opts.ChecksumType, bitsetLen)
	newHdr.Count[deepest] = uint32(len(live))
	newHdr.MaxKeyLen = c.hdr.MaxKeyLen
	newHdr.MaxKey = append([]byte(nil), c.hdr.MaxKey...)
	newHdr.Bitset = append([]byte(nil), c.hdr.Bitset...)

	hdrSize := int64(header.Size(c.cfg, bitsetLen))
	if err := record.WriteLevel(tmp, hdrSize, c.cfg, deepest, live, len(live)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("colakv: rebuild: write deepest level: %w", err)
	}
	if err := header.Persist(tmp, newHdr, c.cfg); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("colakv: rebuild: persist header: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("colakv: rebuild: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("colakv: rebuild: close temp file: %w", err)
	}

	if err := c.f.Close(); err != nil {
		return fmt.Errorf("colakv: rebuild: close current handle: %w", err)
	}

	if err := atomicfile.ReplaceFile(tmpPath, c.path); err != nil {
		return fmt.Errorf("colakv: rebuild: atomic replace: %w", err)
	}

	f, existed, err := c.fs.OpenOrCreate(c.path)
	if err != nil {
		return fmt.Errorf("colakv: rebuild: reopen: %w", err)
	}
	if !existed {
		_ = f.Close()
		return fmt.Errorf("colakv: rebuild: replaced file vanished on reopen")
	}
	hdr, err := header.Load(f, c.cfg, bitsetLen)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("colakv: rebuild: reload header: %w", err)
	}

	c.f = f
	c.hdr = hdr
	c.hdrSize = hdrSize
	c.willfull.Store(false)
	c.logger.Infof("%srebuild of %s complete: %d live items", logging.NSRebuild, c.path, len(live))
	return nil
}

// itemSizeFor reports the encoded width of one item for maxKeySize; it is
// used by the snapshot code to size each fixed-width item slot in the
// payload.
func itemSizeFor(maxKeySize int) int { return item.Size(maxKeySize) }
