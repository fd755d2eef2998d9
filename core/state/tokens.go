package state

import (
	"fmt"

	"mountbreed/crypto"
	"mountbreed/native/token"
)

// TokenMintGet returns the mint stored at addr.
func (m *Manager) TokenMintGet(addr crypto.Address) (*token.Mint, bool, error) {
	var mint token.Mint
	ok, err := m.KVGet(prefixedKey(tokenMintPrefix, addr.Bytes()), &mint)
	if err != nil || !ok {
		return nil, false, err
	}
	return &mint, true, nil
}

// TokenMintPut stores a mint.
func (m *Manager) TokenMintPut(mint *token.Mint) error {
	if mint == nil {
		return fmt.Errorf("state: nil mint")
	}
	return m.KVPut(prefixedKey(tokenMintPrefix, mint.Address.Bytes()), mint)
}

// TokenAccountGet returns the token account stored at addr.
func (m *Manager) TokenAccountGet(addr crypto.Address) (*token.Account, bool, error) {
	var acc token.Account
	ok, err := m.KVGet(prefixedKey(tokenAccountPrefix, addr.Bytes()), &acc)
	if err != nil || !ok {
		return nil, false, err
	}
	return &acc, true, nil
}

// TokenAccountPut stores a token account.
func (m *Manager) TokenAccountPut(acc *token.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil token account")
	}
	return m.KVPut(prefixedKey(tokenAccountPrefix, acc.Address.Bytes()), acc)
}

// TokenAccountDelete removes the token account stored at addr.
func (m *Manager) TokenAccountDelete(addr crypto.Address) error {
	return m.KVDelete(prefixedKey(tokenAccountPrefix, addr.Bytes()))
}
