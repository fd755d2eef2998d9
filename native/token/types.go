package token

import "mountbreed/crypto"

// ProgramID identifies the token ledger program.
var ProgramID = crypto.AddressFromLabel("mountbreed/token-program")

// Mint describes a fungible or non-fungible token type. Non-fungible mints
// use zero decimals and a supply of one.
type Mint struct {
	Address       crypto.Address
	Decimals      uint8
	Supply        uint64
	MintAuthority crypto.Address
}

// Clone returns a copy of the mint.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Account is a token holding for a single mint. Owner is the only authority
// permitted to move, burn or close the holding.
type Account struct {
	Address crypto.Address
	Mint    crypto.Address
	Owner   crypto.Address
	Amount  uint64
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
