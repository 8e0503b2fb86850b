// Package header owns the COLA file's fixed-size prefix: per-level
// population counts, the maximum key ever inserted, and the membership
// filter's serialized state. It is the only component that persists this
// record, and it always persists all of it at once: no partial-header
// updates.
//
// A Magic/FormatVersion/ChecksumType prefix and a trailing checksum let
// Open detect a file written by an incompatible layout.Config or
// corrupted by a prior crash, instead of trusting whatever bytes happen
// to be there.
package header

import (
	"errors"
	"fmt"
	"io"

	"github.com/coladb/colakv/internal/checksum"
	"github.com/coladb/colakv/internal/encoding"
	"github.com/coladb/colakv/internal/layout"
)

// Magic identifies a colakv file. It is the first four bytes of every
// header.
const Magic uint32 = 0x434f4c41 // "COLA"

// FormatVersion1 is the only format version colakv currently writes.
const FormatVersion1 uint16 = 1

// ErrCorruptHeader is returned by Load when the header's magic, version,
// or checksum does not match what was written.
var ErrCorruptHeader = errors.New("header: corrupt or incompatible header")

// Header is the COLA file's fixed-width prefix.
type Header struct {
	Magic         uint32
	FormatVersion uint16
	ChecksumType  checksum.Type

	// Count holds the population of each level. Its length is always
	// cfg.MaxLevel.
	Count []uint32

	// MaxKeyLen and MaxKey record the largest key ever inserted
	// (byte-string order); MaxKey is zero-padded to cfg.MaxKeySize.
	MaxKeyLen uint16
	MaxKey    []byte

	// Bitset is the opaque membership-filter state (internal/filter).
	Bitset []byte
}

// New returns a zeroed header sized for cfg: MaxLevel counts all zero, an
// empty max key, and a bitset of bitsetLen zero bytes. This is the header
// state of a freshly created file.
func New(cfg layout.Config, checksumType checksum.Type, bitsetLen int) Header {
	return Header{
		Magic:         Magic,
		FormatVersion: FormatVersion1,
		ChecksumType:  checksumType,
		Count:         make([]uint32, cfg.MaxLevel),
		MaxKeyLen:     0,
		MaxKey:        make([]byte, cfg.MaxKeySize),
		Bitset:        append([]byte(nil), make([]byte, bitsetLen)...),
	}
}

// Size returns the fixed encoded width of a header for the given layout
// and bitset length.
func Size(cfg layout.Config, bitsetLen int) int {
	// Magic(4) + FormatVersion(2) + ChecksumType(1) +
	// Count(4*MaxLevel) + MaxKeyLen(2) + MaxKey(MaxKeySize) +
	// BitsetLen(4) + Bitset(bitsetLen) + Checksum(4)
	return 4 + 2 + 1 + 4*cfg.MaxLevel + 2 + cfg.MaxKeySize + 4 + bitsetLen + 4
}

// Encode serializes h into a freshly allocated buffer of Size(cfg,
// len(h.Bitset)) bytes, computing and appending the trailing checksum.
func Encode(h Header, cfg layout.Config) ([]byte, error) {
	if len(h.Count) != cfg.MaxLevel {
		return nil, fmt.Errorf("header: count slice length %d does not match MaxLevel %d", len(h.Count), cfg.MaxLevel)
	}
	if len(h.MaxKey) != cfg.MaxKeySize {
		return nil, fmt.Errorf("header: max key field length %d does not match MaxKeySize %d", len(h.MaxKey), cfg.MaxKeySize)
	}

	size := Size(cfg, len(h.Bitset))
	buf := make([]byte, size)
	off := 0

	encoding.EncodeFixed32(buf[off:off+4], h.Magic)
	off += 4
	encoding.EncodeFixed16(buf[off:off+2], h.FormatVersion)
	off += 2
	buf[off] = byte(h.ChecksumType)
	off++

	for i, c := range h.Count {
		encoding.EncodeFixed32(buf[off+i*4:off+i*4+4], c)
	}
	off += 4 * cfg.MaxLevel

	encoding.EncodeFixed16(buf[off:off+2], h.MaxKeyLen)
	off += 2
	copy(buf[off:off+cfg.MaxKeySize], h.MaxKey)
	off += cfg.MaxKeySize

	encoding.EncodeFixed32(buf[off:off+4], uint32(len(h.Bitset)))
	off += 4
	copy(buf[off:off+len(h.Bitset)], h.Bitset)
	off += len(h.Bitset)

	lastByte := byte(h.ChecksumType)
	sum := checksum.ComputeChecksum(h.ChecksumType, buf[:off], lastByte)
	encoding.EncodeFixed32(buf[off:off+4], sum)

	return buf, nil
}

// Decode parses a header previously produced by Encode, verifying magic,
// format version, and checksum. cfg must match the Config the file was
// created with, and bitsetLen must match the bitset length the header was
// encoded with (callers learn both from the file's configured layout
// before calling Decode).
func Decode(buf []byte, cfg layout.Config, bitsetLen int) (Header, error) {
	want := Size(cfg, bitsetLen)
	if len(buf) != want {
		return Header{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptHeader, want, len(buf))
	}

	off := 0
	magic := encoding.DecodeFixed32(buf[off : off+4])
	off += 4
	if magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic %#x", ErrCorruptHeader, magic)
	}
	version := encoding.DecodeFixed16(buf[off : off+2])
	off += 2
	if version != FormatVersion1 {
		return Header{}, fmt.Errorf("%w: unsupported format version %d", ErrCorruptHeader, version)
	}
	checksumType := checksum.Type(buf[off])
	off++

	count := make([]uint32, cfg.MaxLevel)
	for i := range count {
		count[i] = encoding.DecodeFixed32(buf[off+i*4 : off+i*4+4])
	}
	off += 4 * cfg.MaxLevel

	maxKeyLen := encoding.DecodeFixed16(buf[off : off+2])
	off += 2
	maxKey := append([]byte(nil), buf[off:off+cfg.MaxKeySize]...)
	off += cfg.MaxKeySize

	storedBitsetLen := encoding.DecodeFixed32(buf[off : off+4])
	off += 4
	if int(storedBitsetLen) != bitsetLen {
		return Header{}, fmt.Errorf("%w: bitset length mismatch: file has %d, expected %d", ErrCorruptHeader, storedBitsetLen, bitsetLen)
	}
	bitset := append([]byte(nil), buf[off:off+bitsetLen]...)
	off += bitsetLen

	gotSum := encoding.DecodeFixed32(buf[off : off+4])
	wantSum := checksum.ComputeChecksum(checksumType, buf[:off], byte(checksumType))
	if checksumType != checksum.TypeNoChecksum && gotSum != wantSum {
		return Header{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptHeader)
	}

	return Header{
		Magic:         magic,
		FormatVersion: version,
		ChecksumType:  checksumType,
		Count:         count,
		MaxKeyLen:     maxKeyLen,
		MaxKey:        maxKey,
		Bitset:        bitset,
	}, nil
}

// Persist writes h to w at offset 0 in a single positional write: the
// whole header is always written at once, never in parts.
func Persist(w io.WriterAt, h Header, cfg layout.Config) error {
	buf, err := Encode(h, cfg)
	if err != nil {
		return fmt.Errorf("header: encode: %w", err)
	}
	if _, err := w.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("header: persist: %w", err)
	}
	return nil
}

// Load reads and decodes the header at offset 0 of r.
func Load(r io.ReaderAt, cfg layout.Config, bitsetLen int) (Header, error) {
	buf := make([]byte, Size(cfg, bitsetLen))
	if _, err := r.ReadAt(buf, 0); err != nil {
		return Header{}, fmt.Errorf("header: load: %w", err)
	}
	return Decode(buf, cfg, bitsetLen)
}
