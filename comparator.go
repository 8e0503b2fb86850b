package colakv

import "github.com/coladb/colakv/internal/item"

// Comparator defines a total ordering over keys. See internal/item for the
// default implementation; callers providing their own must agree with
// whatever comparator originally wrote the file.
type Comparator = item.Comparator

// BytewiseComparator compares keys lexicographically.
type BytewiseComparator = item.BytewiseComparator

// DefaultComparator returns the default bytewise comparator.
func DefaultComparator() Comparator {
	return item.DefaultComparator()
}
