package mountbreed

import (
	"fmt"

	"mountbreed/core/types"
	"mountbreed/crypto"
	"mountbreed/native/metadata"
)

// VerifyProvenance checks that handle is the authentic metadata record for
// mint as published by the registry identified by registryID, and returns the
// decoded record.
func VerifyProvenance(handle *types.Account, mint, registryID crypto.Address) (*metadata.Metadata, error) {
	if handle == nil {
		return nil, fmt.Errorf("%w: metadata account missing", ErrInvalidProvenance)
	}
	if handle.Owner != registryID {
		return nil, fmt.Errorf("%w: metadata account %s not owned by registry", ErrInvalidProvenance, handle.Address)
	}
	expected, _, err := metadata.DeriveAddress(registryID, mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProvenance, err)
	}
	if handle.Address != expected {
		return nil, fmt.Errorf("%w: metadata account %s is not derived from mint %s", ErrInvalidProvenance, handle.Address, mint)
	}
	record, err := metadata.Decode(handle.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProvenance, err)
	}
	if record.Mint != mint {
		return nil, fmt.Errorf("%w: metadata describes %s", ErrInvalidProvenance, record.Mint)
	}
	return record, nil
}
