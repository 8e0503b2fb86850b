// Package compress provides the codecs used by colakv's snapshot export.
// A snapshot is the flat, portable output of a full merge (InOne): this
// package compresses or decompresses that blob on its way to or from
// external storage.
//
// Three algorithms are supported: Snappy, LZ4, and Zstandard. Zlib and
// BZip2/Xpress are deliberately not wired in — nothing reachable from a
// snapshot export needs them.
package compress

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type selects the codec a snapshot is written with. The byte value is
// stored in the snapshot file right after its magic so ImportSnapshot
// never has to be told which codec produced it.
type Type uint8

const (
	// NoCompression stores the snapshot bytes as-is.
	NoCompression Type = 0x0

	// SnappyCompression uses Google Snappy.
	SnappyCompression Type = 0x1

	// LZ4Compression uses LZ4 raw block format.
	LZ4Compression Type = 0x2

	// ZstdCompression uses Zstandard.
	ZstdCompression Type = 0x3
)

// String returns the human-readable name of the compression type.
func (t Type) String() string {
	switch t {
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	case LZ4Compression:
		return "LZ4"
	case ZstdCompression:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsSupported returns true if the compression type is one colakv can
// compress and decompress.
func (t Type) IsSupported() bool {
	switch t {
	case NoCompression, SnappyCompression, LZ4Compression, ZstdCompression:
		return true
	default:
		return false
	}
}

// Compress compresses data using the specified compression type.
func Compress(t Type, data []byte) ([]byte, error) {
	switch t {
	case NoCompression:
		return data, nil

	case SnappyCompression:
		return snappy.Encode(nil, data), nil

	case LZ4Compression:
		return compressLZ4(data)

	case ZstdCompression:
		return compressZstd(data)

	default:
		return nil, fmt.Errorf("unsupported compression type: %s", t)
	}
}

// compressLZ4 compresses data using LZ4 raw block format (not the LZ4
// Frame format, which carries its own magic bytes and frame headers).
func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var ht [1 << 16]int
	n, err := lz4.CompressBlock(data, dst, ht[:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compress block: %w", err)
	}
	if n == 0 {
		// Incompressible input: lz4 signals this by writing nothing.
		// Fall back to storing the block uncompressed inside its own frame
		// so Decompress's expectedSize contract still holds.
		return append([]byte{0}, data...), nil
	}
	return append([]byte{1}, dst[:n]...), nil
}

// compressZstd compresses data using Zstandard at the default speed level.
func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses data using the specified compression type.
// expectedSize is the known uncompressed size; it is required for LZ4 and
// ignored by the other codecs.
func Decompress(t Type, data []byte, expectedSize int) ([]byte, error) {
	switch t {
	case NoCompression:
		return data, nil

	case SnappyCompression:
		return snappy.Decode(nil, data)

	case LZ4Compression:
		return decompressLZ4(data, expectedSize)

	case ZstdCompression:
		return decompressZstd(data)

	default:
		return nil, fmt.Errorf("unsupported compression type: %s", t)
	}
}

// decompressLZ4 decompresses a block produced by compressLZ4.
func decompressLZ4(data []byte, expectedSize int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("lz4 decompress: empty block")
	}
	stored, payload := data[0], data[1:]
	if stored == 0 {
		return append([]byte(nil), payload...), nil
	}
	if expectedSize <= 0 {
		return nil, fmt.Errorf("lz4 decompress: expected size required")
	}
	dst := make([]byte, expectedSize)
	n, err := lz4.UncompressBlock(payload, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 uncompress block: %w", err)
	}
	return dst[:n], nil
}

// decompressZstd decompresses Zstandard data.
func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}
