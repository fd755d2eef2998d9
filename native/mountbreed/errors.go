package mountbreed

import (
	"errors"

	"mountbreed/native/token"
)

var (
	ErrNilState                  = errors.New("mountbreed: state not configured")
	ErrNilLedger                 = errors.New("mountbreed: token ledger not configured")
	ErrInsufficientDeposit       = errors.New("mountbreed: insufficient deposit")
	ErrUnauthorized              = errors.New("mountbreed: unauthorized")
	ErrAccountMismatch           = errors.New("mountbreed: account mismatch")
	ErrInvalidProvenance         = errors.New("mountbreed: invalid provenance")
	ErrCreatorNotWhitelisted     = errors.New("mountbreed: creator not whitelisted")
	ErrCooldownNotElapsed        = errors.New("mountbreed: cooldown not elapsed")
	ErrUsageCapExceeded          = errors.New("mountbreed: usage cap exceeded")
	ErrDuplicateNftReference     = errors.New("mountbreed: duplicate nft reference")
	ErrInsufficientRewardBalance = errors.New("mountbreed: insufficient reward balance")
	ErrEscrowExists              = errors.New("mountbreed: escrow already exists")
	ErrEscrowNotFound            = errors.New("mountbreed: escrow not found")
	ErrCooldownNotInitialized    = errors.New("mountbreed: cooldown not initialized")
	ErrNftNotHeld                = errors.New("mountbreed: nft not held")
	ErrVaultDepleted             = errors.New("mountbreed: vault depleted")
	ErrInvalidCreator            = errors.New("mountbreed: invalid whitelisted creator")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInsufficientDeposit, "insufficient_deposit"},
	{ErrUnauthorized, "unauthorized"},
	{ErrAccountMismatch, "account_mismatch"},
	{ErrInvalidProvenance, "invalid_provenance"},
	{ErrCreatorNotWhitelisted, "creator_not_whitelisted"},
	{ErrCooldownNotElapsed, "cooldown_not_elapsed"},
	{ErrUsageCapExceeded, "usage_cap_exceeded"},
	{ErrDuplicateNftReference, "duplicate_nft_reference"},
	{ErrInsufficientRewardBalance, "insufficient_reward_balance"},
	{token.ErrAuthorizationFailure, "authorization_failure"},
	{token.ErrProgramAddress, "program_address"},
	{ErrEscrowExists, "escrow_exists"},
	{ErrEscrowNotFound, "escrow_not_found"},
	{ErrCooldownNotInitialized, "cooldown_not_initialized"},
	{ErrNftNotHeld, "nft_not_held"},
	{ErrVaultDepleted, "vault_depleted"},
	{ErrInvalidCreator, "invalid_creator"},
}

// ErrorCode maps an error returned by the engine to a stable snake_case code.
// Nil maps to "ok" and unrecognised errors to "internal".
func ErrorCode(err error) string {
	if err == nil {
		return "ok"
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return "internal"
}
