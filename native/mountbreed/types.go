package mountbreed

import "mountbreed/crypto"

// EscrowRecord binds a depositor and their deposit account to the vault and
// defines which mounts may redeem against it.
type EscrowRecord struct {
	Depositor      crypto.Address
	DepositAccount crypto.Address
	RewardMint     crypto.Address
	VaultMint      crypto.Address
	CreatorA       crypto.Address
	CreatorB       crypto.Address
	EscrowBump     uint8
	VaultBump      uint8
	AuthorityBump  uint8
	CreatedAt      int64
}

// Clone returns a copy of the record.
func (r *EscrowRecord) Clone() *EscrowRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Creators returns the approved creator set.
func (r *EscrowRecord) Creators() CreatorSet {
	if r == nil {
		return NewCreatorSet()
	}
	return NewCreatorSet(r.CreatorA, r.CreatorB)
}

// CooldownRecord tracks redemption usage for one mount. It is never deleted.
type CooldownRecord struct {
	Mint           crypto.Address
	UsageCount     uint32
	LastRedeemedAt int64
	// HasRedeemed distinguishes "never redeemed" from a redemption at time 0.
	HasRedeemed bool
	Bump        uint8
}

// Clone returns a copy of the record.
func (c *CooldownRecord) Clone() *CooldownRecord {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// LastRedeemed returns the last redemption time and whether one happened.
func (c *CooldownRecord) LastRedeemed() (int64, bool) {
	if c == nil || !c.HasRedeemed {
		return 0, false
	}
	return c.LastRedeemedAt, true
}

// MountRef names one NFT taking part in a redemption.
type MountRef struct {
	Mint     crypto.Address
	Holding  crypto.Address
	Metadata crypto.Address
}

// GenesisRequest funds the vault and creates the escrow record.
type GenesisRequest struct {
	Depositor      crypto.Address
	DepositAccount crypto.Address
	RewardMint     crypto.Address
	CreatorA       crypto.Address
	CreatorB       crypto.Address
}

// RedeemRequest pays out of the vault in exchange for burning reward tokens
// while presenting two distinct eligible mounts.
type RedeemRequest struct {
	Caller        crypto.Address
	MountA        MountRef
	MountB        MountRef
	PayoutAccount crypto.Address
	RewardAccount crypto.Address
	Escrow        crypto.Address
}

// Redemption summarises a successful redemption.
type Redemption struct {
	Payout     uint64
	Burned     uint64
	RedeemedAt int64
	CooldownA  *CooldownRecord
	CooldownB  *CooldownRecord
}
