package crypto

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxSeeds bounds the number of seeds, including the bump, accepted by
	// CreateProgramAddress.
	MaxSeeds = 16
	// MaxSeedLength bounds the length of every individual seed.
	MaxSeedLength = 32
)

var programDerivedMarker = []byte("ProgramDerivedAddress")

var (
	ErrSeedTooLong      = errors.New("crypto: seed exceeds maximum length")
	ErrTooManySeeds     = errors.New("crypto: too many seeds")
	ErrOnCurve          = errors.New("crypto: derived address lies on the ed25519 curve")
	ErrNoViableBump     = errors.New("crypto: no viable bump seed")
	ErrBumpNotCanonical = errors.New("crypto: bump does not match canonical derivation")
)

// IsOnCurve reports whether b decodes to a valid ed25519 point. Addresses on
// the curve may have a private key; derived program addresses never do.
func IsOnCurve(b []byte) bool {
	if len(b) != AddressLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress hashes the seeds together with the program identity.
// The result is rejected when it lies on the curve so no key holder can ever
// sign for it.
func CreateProgramAddress(programID Address, seeds ...[]byte) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrTooManySeeds
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Address{}, ErrSeedTooLong
		}
		parts = append(parts, seed)
	}
	parts = append(parts, programID[:], programDerivedMarker)
	hash := crypto.Keccak256(parts...)
	if IsOnCurve(hash) {
		return Address{}, ErrOnCurve
	}
	var addr Address
	copy(addr[:], hash)
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 downwards and returns the
// first derived address that lies off the curve together with its bump.
func FindProgramAddress(programID Address, seeds ...[]byte) (Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(programID, withBump...)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// VerifyProgramAddress checks that addr is the canonical derivation for the
// seeds and that bump is the canonical bump.
func VerifyProgramAddress(addr Address, bump uint8, programID Address, seeds ...[]byte) error {
	expected, expectedBump, err := FindProgramAddress(programID, seeds...)
	if err != nil {
		return err
	}
	if expected != addr {
		return fmt.Errorf("crypto: address %s does not match derivation %s", addr, expected)
	}
	if expectedBump != bump {
		return ErrBumpNotCanonical
	}
	return nil
}
