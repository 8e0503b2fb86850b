package colakv

// snapshot.go implements exporting the result of InOne to a portable,
// optionally compressed flat file for backup or migration. This never
// participates in Add/Get/InOne's correctness; it is a point-in-time
// external copy built on internal/compress instead of a block-oriented
// format.

import (
	"fmt"
	"os"

	"github.com/coladb/colakv/internal/compress"
	"github.com/coladb/colakv/internal/encoding"
	"github.com/coladb/colakv/internal/item"
)

// snapshotMagic tags a file written by ExportSnapshot.
const snapshotMagic = "COLASNAP1"

// ExportSnapshot writes every live item (via InOne) to path as a single
// frame: a short text magic, one byte naming the compress.Type used, a
// varint64 item count, a varint64 uncompressed payload length, then the
// payload of fixed-width encoded items, (possibly) compressed as a whole
// and written as one varint32-length-prefixed slice.
func (c *COLA) ExportSnapshot(path string, ct compress.Type) error {
	items, err := c.InOne()
	if err != nil {
		return fmt.Errorf("colakv: export snapshot: %w", err)
	}

	var payload []byte
	itemSize := itemSizeFor(c.cfg.MaxKeySize)
	for _, it := range items {
		buf := make([]byte, itemSize)
		if err := item.Encode(buf, it, c.cfg.MaxKeySize); err != nil {
			return fmt.Errorf("colakv: export snapshot: encode item: %w", err)
		}
		payload = append(payload, buf...)
	}

	compressed, err := compress.Compress(ct, payload)
	if err != nil {
		return fmt.Errorf("colakv: export snapshot: compress: %w", err)
	}

	out := []byte(snapshotMagic)
	out = append(out, byte(ct))
	out = encoding.AppendVarint64(out, uint64(len(items)))
	out = encoding.AppendVarint64(out, uint64(len(payload)))
	out = encoding.AppendLengthPrefixedSlice(out, compressed)

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("colakv: export snapshot: write %s: %w", path, err)
	}
	return nil
}

// ImportSnapshot reads a file written by ExportSnapshot and returns its
// items in the order they were exported (already sorted and deduplicated,
// since InOne produced them). maxKeySize must match the Options the
// exporting handle used.
func ImportSnapshot(path string, maxKeySize int) ([]Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("colakv: import snapshot: read %s: %w", path, err)
	}
	if len(raw) < len(snapshotMagic)+1 || string(raw[:len(snapshotMagic)]) != snapshotMagic {
		return nil, fmt.Errorf("colakv: import snapshot: bad magic in %s", path)
	}
	pos := len(snapshotMagic)
	ct := compress.Type(raw[pos])
	pos++

	count, n, err := encoding.DecodeVarint64(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("colakv: import snapshot: decode count: %w", err)
	}
	pos += n

	uncompressedLen, n, err := encoding.DecodeVarint64(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("colakv: import snapshot: decode payload length: %w", err)
	}
	pos += n

	compressed, n, err := encoding.DecodeLengthPrefixedSlice(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("colakv: import snapshot: decode payload: %w", err)
	}
	pos += n

	payload, err := compress.Decompress(ct, compressed, int(uncompressedLen))
	if err != nil {
		return nil, fmt.Errorf("colakv: import snapshot: decompress: %w", err)
	}

	itemSize := itemSizeFor(maxKeySize)
	items := make([]Item, 0, count)
	for off := 0; off+itemSize <= len(payload); off += itemSize {
		it, err := item.Decode(payload[off:off+itemSize], maxKeySize)
		if err != nil {
			return nil, fmt.Errorf("colakv: import snapshot: decode item: %w", err)
		}
		items = append(items, it)
	}
	return items, nil
}
