// Package layout holds the single configuration record that governs a
// COLA file's on-disk geometry: item width, level count, and the L0 base
// size that every deeper level's capacity derives from. The same Config
// value must be used by whatever process wrote a file and whatever
// process later opens it. The header (internal/header) stores none of it:
// a MaxLevel or MaxKeySize mismatch changes the header's width, so its
// stored bitset length or checksum no longer matches on open; an L0Size
// mismatch is not detected.
package layout

import "fmt"

// Config is the file format's single configuration record; the same
// record governs both reader and writer.
type Config struct {
	// ItemSize is the fixed width, in bytes, of one encoded item
	// (internal/item.Size depends on MaxKeySize, so this is derived at
	// construction, not chosen independently).
	ItemSize int

	// L0Size is the byte size of level 0. Level i has byte size
	// 2^i * L0Size and item capacity floor(2^i * L0Size / ItemSize).
	L0Size int

	// MaxLevel is the number of levels, 0..MaxLevel-1.
	MaxLevel int

	// MaxKeySize bounds the length of any key. It is also the header's
	// fixed allotment for MaxKey.
	MaxKeySize int
}

// Validate rejects a Config that can't describe a usable file.
func (c Config) Validate() error {
	if c.ItemSize <= 0 {
		return fmt.Errorf("layout: item size must be positive, got %d", c.ItemSize)
	}
	if c.L0Size <= 0 {
		return fmt.Errorf("layout: L0 size must be positive, got %d", c.L0Size)
	}
	if c.MaxLevel < 2 {
		return fmt.Errorf("layout: max level must be at least 2, got %d", c.MaxLevel)
	}
	if c.MaxKeySize <= 0 {
		return fmt.Errorf("layout: max key size must be positive, got %d", c.MaxKeySize)
	}
	if c.L0Size < c.ItemSize {
		return fmt.Errorf("layout: L0 size %d smaller than item size %d", c.L0Size, c.ItemSize)
	}
	return nil
}

// levelByteSize returns 2^i * L0Size.
func (c Config) levelByteSize(i int) int64 {
	return int64(c.L0Size) << uint(i)
}

// LevelOffset returns the byte offset of level i relative to the start of
// the levels region (i.e. not counting the header). Level 0 starts at 0.
func (c Config) LevelOffset(i int) int64 {
	var off int64
	for j := 0; j < i; j++ {
		off += c.levelByteSize(j)
	}
	return off
}

// LevelMax returns the effective item capacity of level i, reserving gap
// items of headroom. A gap of 0 is the hard at-rest capacity; merge
// decisions (internal/merge) use gap 3 to keep a safety margin so a push
// never exactly fills a destination to the byte.
func (c Config) LevelMax(i int, gap int) int {
	cap := int(c.levelByteSize(i) / int64(c.ItemSize))
	cap -= gap
	if cap < 0 {
		cap = 0
	}
	return cap
}

// TotalLevelsSize returns the byte size of the levels region (excluding
// the header), i.e. the file's minimum length once every level exists.
func (c Config) TotalLevelsSize() int64 {
	return c.LevelOffset(c.MaxLevel)
}
