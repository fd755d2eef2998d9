package mountbreed

import "fmt"

const (
	// EscrowSeed derives the single escrow record address.
	EscrowSeed = "escrow-seed"
	// VaultSeed derives the custodial vault token account address.
	VaultSeed = "token-seed"
	// AuthoritySeed derives the keyless vault authority.
	AuthoritySeed = "authority-seed"
)

// Params holds the protocol parameters. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// DepositAmount is the exact amount moved into the vault at genesis and the
	// minimum balance the deposit account must hold.
	DepositAmount uint64
	// CooldownSeconds is the minimum gap between two redemptions naming the
	// same mount. A redemption is allowed only once strictly more than this
	// many seconds have passed.
	CooldownSeconds int64
	// MaxUses caps the number of redemptions per mount.
	MaxUses uint32
	// RedemptionCost is burned from the caller's reward holding per redemption.
	RedemptionCost uint64
	// PayoutAmount is transferred out of the vault per redemption.
	PayoutAmount uint64
}

// DefaultParams returns the production parameters.
func DefaultParams() Params {
	return Params{
		DepositAmount:   2202,
		CooldownSeconds: 60,
		MaxUses:         5,
		RedemptionCost:  200 * 1_000_000_000,
		PayoutAmount:    1,
	}
}

// Validate ensures every parameter is usable.
func (p Params) Validate() error {
	if p.DepositAmount == 0 {
		return fmt.Errorf("mountbreed: deposit amount must be positive")
	}
	if p.CooldownSeconds < 0 {
		return fmt.Errorf("mountbreed: cooldown must not be negative")
	}
	if p.MaxUses == 0 {
		return fmt.Errorf("mountbreed: max uses must be positive")
	}
	if p.RedemptionCost == 0 {
		return fmt.Errorf("mountbreed: redemption cost must be positive")
	}
	if p.PayoutAmount == 0 {
		return fmt.Errorf("mountbreed: payout amount must be positive")
	}
	if p.PayoutAmount > p.DepositAmount {
		return fmt.Errorf("mountbreed: payout %d exceeds deposit %d", p.PayoutAmount, p.DepositAmount)
	}
	return nil
}
