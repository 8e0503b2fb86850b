package colakv

import (
	"github.com/coladb/colakv/internal/filter"
	"github.com/coladb/colakv/internal/policy"
)

// CompactionPolicy is the pluggable compaction collaborator: it merges two
// ascending-sorted runs into one, with the shallower (newer) run winning
// on key collisions. See internal/policy for the default LastWriterWins
// implementation.
type CompactionPolicy = policy.CompactionPolicy

// LastWriterWins is the default CompactionPolicy.
type LastWriterWins = policy.LastWriterWins

// MembershipFilter is the pluggable membership-filter collaborator: an
// approximate-membership structure with no false negatives for live PUTs.
// See internal/filter for the default Bloom implementation.
type MembershipFilter = filter.MembershipFilter
