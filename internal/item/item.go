// Package item defines the fixed-width on-disk record that every level
// holds, its binary encoding, and the key comparator collaborator.
//
// An Item here has no counterpart in an SST-oriented store (there is no
// block, no index, no varint-length key) — it is one fixed-size slot a
// level's byte offset arithmetic (internal/layout) already knows the
// width of.
package item

import (
	"bytes"
	"fmt"

	"github.com/coladb/colakv/internal/encoding"
)

// Opt tags what kind of record an Item carries.
type Opt uint8

const (
	// Del marks a tombstone: the key is logically deleted as of this item.
	Del Opt = 0
	// Put marks a live value: Offset/VLen point at the value log entry.
	Put Opt = 1
)

func (o Opt) String() string {
	if o == Put {
		return "PUT"
	}
	return "DEL"
}

// Item is the fixed-width record copied from level to level by merges.
// Key is zero-padded past KeyLen; comparisons and encoding both respect
// KeyLen rather than scanning for a terminator, so a key may contain any
// byte value including zero — a binary-safe bounded byte string rather
// than a NUL-terminated C string.
type Item struct {
	KeyLen uint16
	Key    []byte // always len(Key) == KeyLen after Decode; callers must not exceed MaxKeySize
	Opt    Opt
	Offset uint64
	VLen   uint32
}

// Size returns the fixed encoded width of an Item for the given
// MaxKeySize, i.e. layout.Config.ItemSize.
func Size(maxKeySize int) int {
	// KeyLen(2) + Key(maxKeySize) + Opt(1) + Offset(8) + VLen(4)
	return 2 + maxKeySize + 1 + 8 + 4
}

// Encode writes it into dst, which must be exactly Size(maxKeySize) bytes.
func Encode(dst []byte, it Item, maxKeySize int) error {
	if len(it.Key) > maxKeySize {
		return fmt.Errorf("item: key length %d exceeds max %d", len(it.Key), maxKeySize)
	}
	if len(dst) != Size(maxKeySize) {
		return fmt.Errorf("item: dst length %d does not match item size %d", len(dst), Size(maxKeySize))
	}
	encoding.EncodeFixed16(dst[0:2], it.KeyLen)
	keyField := dst[2 : 2+maxKeySize]
	for i := range keyField {
		keyField[i] = 0
	}
	copy(keyField, it.Key)
	dst[2+maxKeySize] = byte(it.Opt)
	encoding.EncodeFixed64(dst[3+maxKeySize:11+maxKeySize], it.Offset)
	encoding.EncodeFixed32(dst[11+maxKeySize:15+maxKeySize], it.VLen)
	return nil
}

// Decode reads an Item out of src, which must be exactly Size(maxKeySize)
// bytes. The returned Item's Key is a fresh slice, safe to retain past the
// lifetime of src.
func Decode(src []byte, maxKeySize int) (Item, error) {
	if len(src) != Size(maxKeySize) {
		return Item{}, fmt.Errorf("item: src length %d does not match item size %d", len(src), Size(maxKeySize))
	}
	keyLen := encoding.DecodeFixed16(src[0:2])
	if int(keyLen) > maxKeySize {
		return Item{}, fmt.Errorf("item: decoded key length %d exceeds max %d", keyLen, maxKeySize)
	}
	key := append([]byte(nil), src[2:2+int(keyLen)]...)
	opt := Opt(src[2+maxKeySize])
	offset := encoding.DecodeFixed64(src[3+maxKeySize : 11+maxKeySize])
	vlen := encoding.DecodeFixed32(src[11+maxKeySize : 15+maxKeySize])
	return Item{KeyLen: keyLen, Key: key, Opt: opt, Offset: offset, VLen: vlen}, nil
}

// Comparator defines the total ordering over keys that lookup, the L0
// sort, and every merge use. Only byte-string comparison is needed here —
// there is no block index to shorten separator keys for, so no
// separator-shortening methods are part of this interface.
type Comparator interface {
	// Compare returns <0 if a<b, 0 if a==b, >0 if a>b.
	Compare(a, b []byte) int

	// Name identifies the comparator, stored nowhere on disk today but
	// useful for logging and for a future format-compatibility check.
	Name() string
}

// BytewiseComparator is the default comparator: plain lexicographic byte
// ordering, i.e. keys are compared as byte strings.
type BytewiseComparator struct{}

func (BytewiseComparator) Compare(a, b []byte) int { return bytes.Compare(a, b) }
func (BytewiseComparator) Name() string            { return "colakv.BytewiseComparator" }

// DefaultComparator returns the default bytewise comparator.
func DefaultComparator() Comparator { return BytewiseComparator{} }
