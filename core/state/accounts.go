package state

import (
	"fmt"

	"mountbreed/core/types"
	"mountbreed/crypto"
)

// AccountGet returns the raw account stored at addr.
func (m *Manager) AccountGet(addr crypto.Address) (*types.Account, bool, error) {
	var acc types.Account
	ok, err := m.KVGet(prefixedKey(accountPrefix, addr.Bytes()), &acc)
	if err != nil || !ok {
		return nil, false, err
	}
	acc.Address = addr
	return &acc, true, nil
}

// AccountPut stores a raw account.
func (m *Manager) AccountPut(acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.KVPut(prefixedKey(accountPrefix, acc.Address.Bytes()), acc)
}
