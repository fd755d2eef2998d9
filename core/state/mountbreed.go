package state

import (
	"fmt"

	"mountbreed/crypto"
	"mountbreed/native/mountbreed"
)

type storedEscrow struct {
	Depositor      crypto.Address
	DepositAccount crypto.Address
	RewardMint     crypto.Address
	VaultMint      crypto.Address
	CreatorA       crypto.Address
	CreatorB       crypto.Address
	EscrowBump     uint8
	VaultBump      uint8
	AuthorityBump  uint8
	CreatedAt      uint64
}

func newStoredEscrow(r *mountbreed.EscrowRecord) *storedEscrow {
	return &storedEscrow{
		Depositor:      r.Depositor,
		DepositAccount: r.DepositAccount,
		RewardMint:     r.RewardMint,
		VaultMint:      r.VaultMint,
		CreatorA:       r.CreatorA,
		CreatorB:       r.CreatorB,
		EscrowBump:     r.EscrowBump,
		VaultBump:      r.VaultBump,
		AuthorityBump:  r.AuthorityBump,
		CreatedAt:      uint64(r.CreatedAt),
	}
}

func (s *storedEscrow) toRecord() *mountbreed.EscrowRecord {
	return &mountbreed.EscrowRecord{
		Depositor:      s.Depositor,
		DepositAccount: s.DepositAccount,
		RewardMint:     s.RewardMint,
		VaultMint:      s.VaultMint,
		CreatorA:       s.CreatorA,
		CreatorB:       s.CreatorB,
		EscrowBump:     s.EscrowBump,
		VaultBump:      s.VaultBump,
		AuthorityBump:  s.AuthorityBump,
		CreatedAt:      int64(s.CreatedAt),
	}
}

type storedCooldown struct {
	Mint           crypto.Address
	UsageCount     uint32
	LastRedeemedAt uint64
	HasRedeemed    bool
	Bump           uint8
}

// MountBreedEscrowGet returns the escrow record stored at addr.
func (m *Manager) MountBreedEscrowGet(addr crypto.Address) (*mountbreed.EscrowRecord, bool, error) {
	var stored storedEscrow
	ok, err := m.KVGet(prefixedKey(escrowRecordPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return stored.toRecord(), true, nil
}

// MountBreedEscrowPut stores the escrow record at addr.
func (m *Manager) MountBreedEscrowPut(addr crypto.Address, record *mountbreed.EscrowRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil escrow record")
	}
	return m.KVPut(prefixedKey(escrowRecordPrefix, addr.Bytes()), newStoredEscrow(record))
}

// MountBreedEscrowDelete removes the escrow record at addr.
func (m *Manager) MountBreedEscrowDelete(addr crypto.Address) error {
	return m.KVDelete(prefixedKey(escrowRecordPrefix, addr.Bytes()))
}

// MountBreedCooldownGet returns the cooldown record stored at addr.
func (m *Manager) MountBreedCooldownGet(addr crypto.Address) (*mountbreed.CooldownRecord, bool, error) {
	var stored storedCooldown
	ok, err := m.KVGet(prefixedKey(cooldownPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &mountbreed.CooldownRecord{
		Mint:           stored.Mint,
		UsageCount:     stored.UsageCount,
		LastRedeemedAt: int64(stored.LastRedeemedAt),
		HasRedeemed:    stored.HasRedeemed,
		Bump:           stored.Bump,
	}, true, nil
}

// MountBreedCooldownPut stores the cooldown record at addr and indexes its
// mint.
func (m *Manager) MountBreedCooldownPut(addr crypto.Address, record *mountbreed.CooldownRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil cooldown record")
	}
	stored := &storedCooldown{
		Mint:           record.Mint,
		UsageCount:     record.UsageCount,
		LastRedeemedAt: uint64(record.LastRedeemedAt),
		HasRedeemed:    record.HasRedeemed,
		Bump:           record.Bump,
	}
	if err := m.KVPut(prefixedKey(cooldownPrefix, addr.Bytes()), stored); err != nil {
		return err
	}
	return m.KVAppend(cooldownIndexKey, record.Mint.Bytes())
}

// MountBreedCooldownMints lists every mint with a cooldown record in creation
// order.
func (m *Manager) MountBreedCooldownMints() ([]crypto.Address, error) {
	var raw [][]byte
	if err := m.KVGetList(cooldownIndexKey, &raw); err != nil {
		return nil, err
	}
	out := make([]crypto.Address, 0, len(raw))
	for _, b := range raw {
		addr, err := crypto.BytesToAddress(b)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
