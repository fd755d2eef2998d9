package metadata

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"mountbreed/crypto"
)

// ProgramID identifies the canonical metadata registry program.
var ProgramID = crypto.AddressFromLabel("mountbreed/metadata-program")

// Seed is the domain separation prefix for metadata account derivation.
const Seed = "metadata"

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxCreators     = 5
)

// Creator is a single provenance entry. Verified is only ever set by the
// registry when the creator itself signs.
type Creator struct {
	Address  crypto.Address
	Verified bool
	Share    uint8
}

// Metadata is the registry record describing an NFT mint.
type Metadata struct {
	Mint            crypto.Address
	UpdateAuthority crypto.Address
	Name            string
	Symbol          string
	URI             string
	Creators        []Creator
}

// Clone returns a deep copy of the record.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Creators = append([]Creator(nil), m.Creators...)
	return &clone
}

// VerifiedCreators returns the addresses of creators whose entries are
// verified.
func (m *Metadata) VerifiedCreators() []crypto.Address {
	if m == nil {
		return nil
	}
	out := make([]crypto.Address, 0, len(m.Creators))
	for _, c := range m.Creators {
		if c.Verified {
			out = append(out, c.Address)
		}
	}
	return out
}

// Validate checks field limits and creator shares.
func (m *Metadata) Validate() error {
	if m == nil {
		return ErrInvalidMetadata
	}
	if m.Mint.IsZero() {
		return fmt.Errorf("%w: mint required", ErrInvalidMetadata)
	}
	if len(m.Name) > MaxNameLength {
		return fmt.Errorf("%w: name too long", ErrInvalidMetadata)
	}
	if len(m.Symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: symbol too long", ErrInvalidMetadata)
	}
	if len(m.URI) > MaxURILength {
		return fmt.Errorf("%w: uri too long", ErrInvalidMetadata)
	}
	if len(m.Creators) > MaxCreators {
		return fmt.Errorf("%w: too many creators", ErrInvalidMetadata)
	}
	if len(m.Creators) == 0 {
		return nil
	}
	seen := make(map[crypto.Address]struct{}, len(m.Creators))
	total := 0
	for _, c := range m.Creators {
		if _, dup := seen[c.Address]; dup {
			return fmt.Errorf("%w: duplicate creator %s", ErrInvalidMetadata, c.Address)
		}
		seen[c.Address] = struct{}{}
		total += int(c.Share)
	}
	if total != 100 {
		return fmt.Errorf("%w: creator shares sum to %d", ErrInvalidMetadata, total)
	}
	return nil
}

func normalize(m *Metadata) {
	m.Name = strings.TrimSpace(m.Name)
	m.Symbol = strings.TrimSpace(m.Symbol)
	m.URI = strings.TrimSpace(m.URI)
}

// DeriveAddress computes the canonical metadata account address for mint
// under the registry program.
func DeriveAddress(registryID, mint crypto.Address) (crypto.Address, uint8, error) {
	return crypto.FindProgramAddress(registryID, []byte(Seed), registryID[:], mint[:])
}

// Encode serialises the record for storage in a raw account.
func Encode(m *Metadata) ([]byte, error) {
	if m == nil {
		return nil, ErrInvalidMetadata
	}
	return rlp.EncodeToBytes(m)
}

// Decode parses a record previously produced by Encode.
func Decode(data []byte) (*Metadata, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty account data", ErrInvalidMetadata)
	}
	m := new(Metadata)
	if err := rlp.DecodeBytes(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return m, nil
}
