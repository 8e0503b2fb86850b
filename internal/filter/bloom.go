// Package filter implements the membership filter collaborator: an
// approximate-membership structure with no false negatives for live
// PUTs, consulted by callers before Get to skip definite negatives.
//
// Bloom is a cache-local Bloom filter in the FastLocalBloom style
// (RocksDB format_version=5, util/bloom_impl.h): every probe for a key
// stays within one 64-byte cache line. The RocksDB block framing (a
// trailing marker/sub-implementation/num-probes suffix meant to live
// inside a shared filter block) is dropped here — colakv's own header
// already carries the filter's bitset length and format version, so the
// filter only needs to serialize its raw bits plus the probe count.
package filter

import (
	"github.com/coladb/colakv/internal/checksum"
)

const (
	// CacheLineSize is the size of a CPU cache line in bytes (Intel).
	CacheLineSize = 64

	// CacheLineBits is the number of bits in a cache line.
	CacheLineBits = CacheLineSize * 8 // 512 bits
)

// Bloom is a cache-local Bloom filter.
type Bloom struct {
	bitsPerKey int
	numProbes  int
	bits       []byte
}

// Builder accumulates keys before Finish produces an immutable Bloom.
type Builder struct {
	bitsPerKey int
	hashes     []uint64
}

// NewBuilder creates a filter builder targeting bitsPerKey bits of state per
// inserted key (10 gives roughly a 1% false-positive rate).
func NewBuilder(bitsPerKey int) *Builder {
	if bitsPerKey < 1 {
		bitsPerKey = 1
	}
	return &Builder{bitsPerKey: bitsPerKey}
}

// Add records a key's hash for the filter being built.
func (b *Builder) Add(key []byte) {
	b.hashes = append(b.hashes, checksum.XXH3_64bits(key))
}

// NumKeys returns the number of keys added so far.
func (b *Builder) NumKeys() int { return len(b.hashes) }

// Finish builds the filter. The builder may be reused afterward.
func (b *Builder) Finish() *Bloom {
	n := len(b.hashes)
	if n == 0 {
		return &Bloom{bitsPerKey: b.bitsPerKey}
	}

	numBytes := cacheLineBytes(n, b.bitsPerKey)
	numProbes := chooseNumProbes(b.bitsPerKey * 1000)
	bits := make([]byte, numBytes)
	for _, h := range b.hashes {
		addHash(h, uint32(numBytes), numProbes, bits)
	}
	b.hashes = b.hashes[:0]
	return &Bloom{bitsPerKey: b.bitsPerKey, numProbes: numProbes, bits: bits}
}

// EstimatedSize returns the byte length Finish would currently produce.
func (b *Builder) EstimatedSize() int {
	if len(b.hashes) == 0 {
		return 0
	}
	return cacheLineBytes(len(b.hashes), b.bitsPerKey)
}

func cacheLineBytes(numEntries, bitsPerKey int) int {
	totalBits := numEntries * bitsPerKey
	numCacheLines := (totalBits + CacheLineBits - 1) / CacheLineBits
	if numCacheLines == 0 {
		numCacheLines = 1
	}
	return numCacheLines * CacheLineSize
}

// Load reconstructs a filter from a previously serialized bitset, as
// produced by Bitset. An empty or too-short blob yields an always-false
// filter, which is sound.
func Load(blob []byte) *Bloom {
	if len(blob) < 1 {
		return &Bloom{}
	}
	return &Bloom{numProbes: int(blob[0]), bits: append([]byte(nil), blob[1:]...)}
}

// Bitset serializes the filter to the opaque blob the header's bitset
// field stores: one byte of probe count followed by the raw bit array.
func (f *Bloom) Bitset() []byte {
	if f == nil || len(f.bits) == 0 {
		return []byte{0}
	}
	blob := make([]byte, 1+len(f.bits))
	blob[0] = byte(f.numProbes)
	copy(blob[1:], f.bits)
	return blob
}

// NumProbes returns the number of hash probes per key this filter uses.
func (f *Bloom) NumProbes() int {
	if f == nil {
		return 0
	}
	return f.numProbes
}

// Add inserts key into the filter. Add on a filter built with zero capacity
// (an empty Bloom) is a silent no-op — such a filter always returns false
// from MayContain, which is sound (just maximally conservative) here.
func (f *Bloom) Add(key []byte) {
	if f == nil || len(f.bits) == 0 || f.numProbes == 0 {
		return
	}
	addHash(checksum.XXH3_64bits(key), uint32(len(f.bits)), f.numProbes, f.bits)
}

// MayContain returns true if key may be in the set. A false return means
// key is definitely not in the set.
func (f *Bloom) MayContain(key []byte) bool {
	if f == nil || len(f.bits) == 0 || f.numProbes == 0 {
		return false
	}
	return hashMayMatch(checksum.XXH3_64bits(key), uint32(len(f.bits)), f.numProbes, f.bits)
}

// chooseNumProbes determines the optimal number of hash probes.
// millibitsPerKey is bits_per_key * 1000.
// Reference: FastLocalBloomImpl::ChooseNumProbes in bloom_impl.h
func chooseNumProbes(millibitsPerKey int) int {
	switch {
	case millibitsPerKey <= 2080:
		return 1
	case millibitsPerKey <= 3580:
		return 2
	case millibitsPerKey <= 5100:
		return 3
	case millibitsPerKey <= 6640:
		return 4
	case millibitsPerKey <= 8300:
		return 5
	case millibitsPerKey <= 10070:
		return 6
	case millibitsPerKey <= 11720:
		return 7
	case millibitsPerKey <= 14001:
		return 8
	case millibitsPerKey <= 16050:
		return 9
	case millibitsPerKey <= 18300:
		return 10
	case millibitsPerKey <= 22001:
		return 11
	case millibitsPerKey <= 25501:
		return 12
	case millibitsPerKey > 50000:
		return 24
	default:
		return (millibitsPerKey-1)/2000 - 1
	}
}

// fastRange32 computes (h * n) >> 32, a value in [0, n).
func fastRange32(h, n uint32) uint32 {
	return uint32((uint64(h) * uint64(n)) >> 32)
}

// addHash adds a hash value to the filter.
// Reference: FastLocalBloomImpl::AddHash
func addHash(hash uint64, lenBytes uint32, numProbes int, data []byte) {
	h1 := uint32(hash)
	h2 := uint32(hash >> 32)

	numCacheLines := lenBytes >> 6
	cacheLineOffset := fastRange32(h1, numCacheLines) << 6
	addHashPrepared(h2, numProbes, data[cacheLineOffset:cacheLineOffset+CacheLineSize])
}

// addHashPrepared adds probes to a specific cache line.
func addHashPrepared(h2 uint32, numProbes int, cacheLine []byte) {
	h := h2
	for range numProbes {
		bitpos := h >> (32 - 9)
		cacheLine[bitpos>>3] |= 1 << (bitpos & 7)
		h *= 0x9e3779b9
	}
}

// hashMayMatch checks if a hash value may be in the filter.
func hashMayMatch(hash uint64, lenBytes uint32, numProbes int, data []byte) bool {
	h1 := uint32(hash)
	h2 := uint32(hash >> 32)

	numCacheLines := lenBytes >> 6
	cacheLineOffset := fastRange32(h1, numCacheLines) << 6
	return hashMayMatchPrepared(h2, numProbes, data[cacheLineOffset:cacheLineOffset+CacheLineSize])
}

// hashMayMatchPrepared checks probes within a specific cache line.
func hashMayMatchPrepared(h2 uint32, numProbes int, cacheLine []byte) bool {
	h := h2
	for range numProbes {
		bitpos := h >> (32 - 9)
		if (cacheLine[bitpos>>3] & (1 << (bitpos & 7))) == 0 {
			return false
		}
		h *= 0x9e3779b9
	}
	return true
}
