package mountbreed

import (
	"fmt"

	"mountbreed/crypto"
)

// Authority is the keyless signing identity that owns the vault. It exists
// only as a derived address; nothing outside the engine can act as it.
type Authority struct {
	addr crypto.Address
	bump uint8
}

// DeriveAuthority computes the vault authority for programID.
func DeriveAuthority(programID crypto.Address) (Authority, error) {
	addr, bump, err := crypto.FindProgramAddress(programID, []byte(AuthoritySeed))
	if err != nil {
		return Authority{}, fmt.Errorf("mountbreed: derive authority: %w", err)
	}
	return Authority{addr: addr, bump: bump}, nil
}

// Address returns the authority's identity as recorded on the vault.
func (a Authority) Address() crypto.Address { return a.addr }

// Bump returns the canonical bump used during derivation.
func (a Authority) Bump() uint8 { return a.bump }

// Addresses groups the program-derived locations used by the engine.
type Addresses struct {
	Escrow     crypto.Address
	EscrowBump uint8
	Vault      crypto.Address
	VaultBump  uint8
	Authority  Authority
}

// DeriveAddresses computes the escrow, vault and authority addresses for
// programID.
func DeriveAddresses(programID crypto.Address) (Addresses, error) {
	escrow, escrowBump, err := crypto.FindProgramAddress(programID, []byte(EscrowSeed))
	if err != nil {
		return Addresses{}, fmt.Errorf("mountbreed: derive escrow: %w", err)
	}
	vault, vaultBump, err := crypto.FindProgramAddress(programID, []byte(VaultSeed))
	if err != nil {
		return Addresses{}, fmt.Errorf("mountbreed: derive vault: %w", err)
	}
	authority, err := DeriveAuthority(programID)
	if err != nil {
		return Addresses{}, err
	}
	return Addresses{
		Escrow:     escrow,
		EscrowBump: escrowBump,
		Vault:      vault,
		VaultBump:  vaultBump,
		Authority:  authority,
	}, nil
}

// CooldownAddress derives the location of the cooldown record for mint.
func CooldownAddress(programID, mint crypto.Address) (crypto.Address, uint8, error) {
	addr, bump, err := crypto.FindProgramAddress(programID, mint.Bytes())
	if err != nil {
		return crypto.Address{}, 0, fmt.Errorf("mountbreed: derive cooldown: %w", err)
	}
	return addr, bump, nil
}
