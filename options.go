package colakv

// options.go implements database configuration options: one Options value
// governs both the writer that creates a file and every later reader that
// reopens it.

import (
	"github.com/coladb/colakv/internal/checksum"
	"github.com/coladb/colakv/internal/filter"
	"github.com/coladb/colakv/internal/item"
	"github.com/coladb/colakv/internal/layout"
	"github.com/coladb/colakv/internal/logging"
	"github.com/coladb/colakv/internal/policy"
	"github.com/coladb/colakv/internal/vfs"
)

// Logger is an alias for the logging.Logger interface, letting callers
// pass their own implementation.
type Logger = logging.Logger

// ChecksumType is an alias for the header checksum algorithm.
type ChecksumType = checksum.Type

// Checksum type constants.
const (
	ChecksumTypeNoChecksum = checksum.TypeNoChecksum
	ChecksumTypeCRC32C     = checksum.TypeCRC32C
	ChecksumTypeXXHash64   = checksum.TypeXXHash64
	ChecksumTypeXXH3       = checksum.TypeXXH3
)

// Options configures Open and governs the on-disk layout of the file it
// opens. The same values used when a file is first created MUST be used
// every time it is reopened. Open detects a MaxLevel or MaxKeySize
// mismatch only indirectly: either changes the header's width, so the
// stored bitset length or checksum no longer matches and Open returns
// ErrCorruptHeader. L0Size is not
// stored, and an L0Size mismatch is not detected.
type Options struct {
	// L0Size is the byte size of level 0; level i holds 2^i*L0Size bytes.
	// Default: 4KB.
	L0Size int

	// MaxLevel is the number of levels. Default: 7.
	MaxLevel int

	// MaxKeySize bounds the length of any key, in bytes. Default: 256.
	MaxKeySize int

	// BitsPerKey configures the default Bloom filter's target bits of
	// state per inserted key. Default: 10 (~1% false-positive rate).
	// Ignored if MembershipFilter is set explicitly.
	BitsPerKey int

	// ExpectedKeys seeds the default Bloom filter's bit-array sizing.
	// Default: 1<<20.
	ExpectedKeys int

	// ChecksumType selects the algorithm protecting the header. Default:
	// ChecksumTypeXXH3.
	ChecksumType ChecksumType

	// FS is the filesystem implementation to use. If nil, the OS
	// filesystem is used (internal/vfs.Default).
	FS vfs.FS

	// Comparator defines key ordering. If nil, BytewiseComparator is used.
	Comparator Comparator

	// CompactionPolicy decides how two runs merge. If nil, LastWriterWins
	// is used with Deepest set per destination level automatically.
	CompactionPolicy CompactionPolicy

	// MembershipFilter is the membership filter collaborator. If nil, a
	// Bloom filter sized from BitsPerKey/ExpectedKeys is constructed.
	MembershipFilter MembershipFilter

	// StatsSink receives the core's counters. If nil, a Discard sink is
	// used.
	StatsSink StatsSink

	// Logger receives diagnostic and fatal messages. If nil, a default
	// WARN-level logger writing to stderr is used.
	Logger Logger

	// CreateIfMissing causes Open to create the file if it does not exist.
	// Default: true.
	CreateIfMissing bool
}

// DefaultOptions returns Options with spec-reasonable defaults.
func DefaultOptions() *Options {
	return &Options{
		L0Size:          4 * 1024,
		MaxLevel:        7,
		MaxKeySize:      256,
		BitsPerKey:      10,
		ExpectedKeys:    1 << 20,
		ChecksumType:    ChecksumTypeXXH3,
		FS:              nil,
		Comparator:      nil,
		CreateIfMissing: true,
	}
}

// layoutConfig derives the internal/layout.Config this Options describes,
// filling in ItemSize from MaxKeySize.
func (o *Options) layoutConfig() layout.Config {
	return layout.Config{
		ItemSize:   item.Size(o.MaxKeySize),
		L0Size:     o.L0Size,
		MaxLevel:   o.MaxLevel,
		MaxKeySize: o.MaxKeySize,
	}
}

// comparator returns o.Comparator or the default if unset.
func (o *Options) comparator() Comparator {
	if o.Comparator == nil {
		return DefaultComparator()
	}
	return o.Comparator
}

// statsSink returns o.StatsSink or a Discard sink if unset.
func (o *Options) statsSink() StatsSink {
	if o.StatsSink == nil {
		return DiscardStats
	}
	return o.StatsSink
}

// logger returns o.Logger or a default WARN-level logger if unset.
func (o *Options) logger() Logger {
	return logging.OrDefault(o.Logger)
}

// fs returns o.FS or the OS filesystem if unset.
func (o *Options) fs() vfs.FS {
	if o.FS == nil {
		return vfs.Default()
	}
	return o.FS
}

// membershipFilter builds a fresh MembershipFilter from o's sizing
// parameters, or returns o.MembershipFilter if the caller supplied one.
func (o *Options) membershipFilter() MembershipFilter {
	if o.MembershipFilter != nil {
		return o.MembershipFilter
	}
	return filter.New(o.ExpectedKeys, o.BitsPerKey)
}

// compactionPolicyFor returns a CompactionPolicy for a merge whose
// destination is level dstLevel, defaulting to LastWriterWins.
func (o *Options) compactionPolicyFor(cmp Comparator, dstLevel, maxLevel int) CompactionPolicy {
	if o.CompactionPolicy != nil {
		return o.CompactionPolicy
	}
	return policy.LastWriterWins{Comparator: cmp, Deepest: dstLevel == maxLevel-1}
}
