// Package checksum provides the hash and checksum primitives the rest of
// the store uses for header integrity and for the membership filter.
//
// XXH3_64bits is backed by github.com/zeebo/xxh3. Calling the real
// library instead of re-deriving xxHash by hand is both less code and
// bit-compatible with every other XXH3 consumer in the ecosystem.
package checksum

import "github.com/zeebo/xxh3"

// XXH3_64bits computes the 64-bit XXH3 hash of data.
func XXH3_64bits(data []byte) uint64 {
	return xxh3.Hash(data)
}

// XXH3ChecksumWithLastByte computes an XXH3-derived 32-bit checksum with a
// separate trailing byte folded in (used when that byte — here, the
// header's ChecksumType tag — is not itself part of the hashed buffer).
func XXH3ChecksumWithLastByte(data []byte, lastByte byte) uint32 {
	h := xxh3.Hash(data)
	v := uint32(h)
	const kRandomPrime = 0x6b9083d9
	return v ^ (uint32(lastByte) * kRandomPrime)
}
