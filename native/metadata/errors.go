package metadata

import "errors"

var (
	ErrNilState         = errors.New("metadata: state not configured")
	ErrNilMints         = errors.New("metadata: mint source not configured")
	ErrInvalidMetadata  = errors.New("metadata: invalid metadata")
	ErrMetadataExists   = errors.New("metadata: metadata already exists")
	ErrMetadataNotFound = errors.New("metadata: metadata not found")
	ErrUnauthorized     = errors.New("metadata: unauthorized")
	ErrCreatorNotListed = errors.New("metadata: creator not listed")
	ErrForeignAccount   = errors.New("metadata: account not owned by registry")
	ErrNotNonFungible   = errors.New("metadata: mint is not non-fungible")
)
