package metadata

import (
	"fmt"

	"mountbreed/core/events"
	"mountbreed/core/types"
	"mountbreed/crypto"
	"mountbreed/native/token"
)

type registryState interface {
	AccountGet(addr crypto.Address) (*types.Account, bool, error)
	AccountPut(account *types.Account) error
}

type mintSource interface {
	Mint(addr crypto.Address) (*token.Mint, error)
}

// Registry stores NFT metadata records in raw accounts owned by the registry
// program at deterministically derived addresses.
type Registry struct {
	state     registryState
	mints     mintSource
	emitter   events.Emitter
	programID crypto.Address
}

// NewRegistry creates a registry bound to the canonical ProgramID.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}, programID: ProgramID}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetMints configures the mint lookup used to authorise Create.
func (r *Registry) SetMints(mints mintSource) { r.mints = mints }

// SetProgramID overrides the registry program identity.
func (r *Registry) SetProgramID(id crypto.Address) { r.programID = id }

// ProgramID returns the registry program identity.
func (r *Registry) ProgramID() crypto.Address { return r.programID }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) emit(evt *types.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(metadataEvent{evt: evt})
}

// Create stores a metadata record for an NFT mint. The signer must be the
// mint authority. Creator entries are recorded unverified except the entry
// matching the signer, which is verified immediately.
func (r *Registry) Create(md *Metadata, signer crypto.Address) (crypto.Address, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, ErrNilState
	}
	if r.mints == nil {
		return crypto.Address{}, ErrNilMints
	}
	if md == nil {
		return crypto.Address{}, ErrInvalidMetadata
	}
	record := md.Clone()
	normalize(record)
	if err := record.Validate(); err != nil {
		return crypto.Address{}, err
	}
	mint, err := r.mints.Mint(record.Mint)
	if err != nil {
		return crypto.Address{}, err
	}
	if mint.Decimals != 0 {
		return crypto.Address{}, ErrNotNonFungible
	}
	if mint.MintAuthority != signer {
		return crypto.Address{}, fmt.Errorf("%w: signer is not the mint authority", ErrUnauthorized)
	}
	if record.UpdateAuthority.IsZero() {
		record.UpdateAuthority = signer
	}
	for i := range record.Creators {
		record.Creators[i].Verified = record.Creators[i].Address == signer
	}
	addr, _, err := DeriveAddress(r.programID, record.Mint)
	if err != nil {
		return crypto.Address{}, err
	}
	if _, ok, err := r.state.AccountGet(addr); err != nil {
		return crypto.Address{}, err
	} else if ok {
		return crypto.Address{}, fmt.Errorf("%w: %s", ErrMetadataExists, addr)
	}
	if err := r.write(addr, record); err != nil {
		return crypto.Address{}, err
	}
	r.emit(newCreatedEvent(addr, record))
	return addr, nil
}

// SignCreator marks the creator's entry as verified. Only the creator itself
// may verify its own entry.
func (r *Registry) SignCreator(mint, creator crypto.Address) error {
	addr, record, err := r.load(mint)
	if err != nil {
		return err
	}
	found := false
	for i := range record.Creators {
		if record.Creators[i].Address == creator {
			record.Creators[i].Verified = true
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrCreatorNotListed, creator)
	}
	if err := r.write(addr, record); err != nil {
		return err
	}
	r.emit(newCreatorVerifiedEvent(addr, record.Mint, creator))
	return nil
}

// Get returns the metadata record for mint.
func (r *Registry) Get(mint crypto.Address) (*Metadata, crypto.Address, error) {
	addr, record, err := r.load(mint)
	if err != nil {
		return nil, crypto.Address{}, err
	}
	return record, addr, nil
}

func (r *Registry) load(mint crypto.Address) (crypto.Address, *Metadata, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, nil, ErrNilState
	}
	addr, _, err := DeriveAddress(r.programID, mint)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	acc, ok, err := r.state.AccountGet(addr)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	if !ok {
		return crypto.Address{}, nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, mint)
	}
	if acc.Owner != r.programID {
		return crypto.Address{}, nil, ErrForeignAccount
	}
	record, err := Decode(acc.Data)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	return addr, record, nil
}

func (r *Registry) write(addr crypto.Address, record *Metadata) error {
	data, err := Encode(record)
	if err != nil {
		return err
	}
	return r.state.AccountPut(&types.Account{Address: addr, Owner: r.programID, Data: data})
}
