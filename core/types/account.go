package types

import "mountbreed/crypto"

// Account is a raw program-owned account. Only the owning program may write
// its data; readers must check Owner before trusting the contents.
type Account struct {
	Address crypto.Address `json:"address"`
	Owner   crypto.Address `json:"owner"`
	Data    []byte         `json:"data"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}
