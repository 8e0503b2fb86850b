package filter

// MembershipFilter is the pluggable membership-filter collaborator from
// spec §6: {new(bitset), add(key), free}. Go has no destructor, so free is
// simply letting the value become unreachable; the constructor and add
// sides are New/Load and Add below. The core only ever writes to the
// filter (Add) — callers that want to short-circuit a negative lookup read
// it themselves via MayContain before calling Get.
type MembershipFilter interface {
	// Add records a PUT key. The filter must not produce a false negative
	// for any key added here (until — per spec §3 — it is tombstoned and
	// that tombstone is compacted away without any later PUT of the key).
	Add(key []byte)

	// MayContain reports whether key might have been added. False means
	// definitely not added.
	MayContain(key []byte) bool

	// Bitset serializes the filter's state for storage in the header.
	Bitset() []byte
}

// New builds a fresh Bloom filter sized for an expected key count, at the
// given bits-per-key target.
func New(expectedKeys, bitsPerKey int) *Bloom {
	// Pre-size the bit array for expectedKeys even though no keys are
	// added yet, so Add calls never need to re-Finish: the array is
	// allocated directly at the target capacity, all bits clear.
	if expectedKeys <= 0 {
		expectedKeys = 1
	}
	numBytes := cacheLineBytes(expectedKeys, bitsPerKey)
	numProbes := chooseNumProbes(bitsPerKey * 1000)
	return &Bloom{bitsPerKey: bitsPerKey, numProbes: numProbes, bits: make([]byte, numBytes)}
}

var _ MembershipFilter = (*Bloom)(nil)
