package mountbreed

import (
	"fmt"

	"mountbreed/crypto"
	"mountbreed/native/metadata"
)

// CreatorSet is the set of approved creator identities.
type CreatorSet map[crypto.Address]struct{}

// NewCreatorSet builds a set from the provided identities. Zero addresses are
// skipped.
func NewCreatorSet(creators ...crypto.Address) CreatorSet {
	set := make(CreatorSet, len(creators))
	for _, c := range creators {
		if c.IsZero() {
			continue
		}
		set[c] = struct{}{}
	}
	return set
}

// Contains reports whether addr is approved.
func (s CreatorSet) Contains(addr crypto.Address) bool {
	_, ok := s[addr]
	return ok
}

// IsEligible reports whether at least one verified creator belongs to the set.
// Unverified entries never count.
func IsEligible(creators []metadata.Creator, set CreatorSet) bool {
	for _, c := range creators {
		if c.Verified && set.Contains(c.Address) {
			return true
		}
	}
	return false
}

// CheckCreators returns ErrCreatorNotWhitelisted unless IsEligible holds.
func CheckCreators(creators []metadata.Creator, set CreatorSet) error {
	if !IsEligible(creators, set) {
		return fmt.Errorf("%w: no verified approved creator", ErrCreatorNotWhitelisted)
	}
	return nil
}
