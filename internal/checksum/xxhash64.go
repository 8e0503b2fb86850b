// Package checksum provides the hash and checksum primitives the rest of
// the store uses for header integrity and for the membership filter.
//
// XXHash64 is backed by github.com/cespare/xxhash/v2. The module graph
// already carries this dependency (pulled in indirectly via
// prometheus/client_golang); calling the real library instead of
// re-deriving xxHash by hand is both less code and bit-compatible with
// every other XXH64 consumer in the ecosystem.
package checksum

import "github.com/cespare/xxhash/v2"

// XXHash64 computes the 64-bit XXHash of data with a zero seed.
func XXHash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// XXHash64ChecksumWithLastByte computes an XXHash64-derived 32-bit checksum
// with a separate trailing byte folded in (used when that byte — here, the
// header's ChecksumType tag — is not itself part of the hashed buffer).
func XXHash64ChecksumWithLastByte(data []byte, lastByte byte) uint32 {
	buf := make([]byte, len(data)+1)
	copy(buf, data)
	buf[len(data)] = lastByte
	return uint32(xxhash.Sum64(buf))
}
