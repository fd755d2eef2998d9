package mountbreed

import (
	"errors"
	"fmt"

	"mountbreed/crypto"
	"mountbreed/native/token"
)

type tokenLedger interface {
	Account(addr crypto.Address) (*token.Account, error)
	Mint(addr crypto.Address) (*token.Mint, error)
	CreateProgramAccount(addr, mint, authority crypto.Address) (*token.Account, error)
	Transfer(from, to crypto.Address, amount uint64, authority crypto.Address) error
	Burn(mint, from crypto.Address, amount uint64, authority crypto.Address) error
	CloseAccount(account, refundTo, authority crypto.Address) error
}

// vault performs every token movement that requires the derived authority.
// It is the only place where the authority identity is presented to the
// ledger.
type vault struct {
	ledger    tokenLedger
	addr      crypto.Address
	authority Authority
}

// open creates the vault holding for mint under the derived authority and
// funds it from the depositor's account.
func (v vault) open(mint, depositor, source crypto.Address, amount uint64) error {
	if _, err := v.ledger.CreateProgramAccount(v.addr, mint, v.authority.Address()); err != nil {
		return fmt.Errorf("mountbreed: create vault: %w", err)
	}
	if err := v.ledger.Transfer(source, v.addr, amount, depositor); err != nil {
		return fmt.Errorf("mountbreed: fund vault: %w", err)
	}
	return nil
}

// refundAndClose returns the full balance to dest and closes the vault. It
// reports the amount refunded.
func (v vault) refundAndClose(dest, refundTo crypto.Address) (uint64, error) {
	acc, err := v.ledger.Account(v.addr)
	if err != nil {
		return 0, fmt.Errorf("mountbreed: load vault: %w", err)
	}
	if acc.Amount > 0 {
		if err := v.ledger.Transfer(v.addr, dest, acc.Amount, v.authority.Address()); err != nil {
			return 0, fmt.Errorf("mountbreed: refund vault: %w", err)
		}
	}
	if err := v.ledger.CloseAccount(v.addr, refundTo, v.authority.Address()); err != nil {
		return 0, fmt.Errorf("mountbreed: close vault: %w", err)
	}
	return acc.Amount, nil
}

// balance returns the current vault balance.
func (v vault) balance() (uint64, error) {
	acc, err := v.ledger.Account(v.addr)
	if err != nil {
		if errors.Is(err, token.ErrAccountNotFound) {
			return 0, fmt.Errorf("%w: vault missing", ErrEscrowNotFound)
		}
		return 0, err
	}
	return acc.Amount, nil
}

// pay moves amount from the vault to dest.
func (v vault) pay(dest crypto.Address, amount uint64) error {
	if err := v.ledger.Transfer(v.addr, dest, amount, v.authority.Address()); err != nil {
		return fmt.Errorf("mountbreed: vault payout: %w", err)
	}
	return nil
}
