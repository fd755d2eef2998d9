package core

import (
	"fmt"

	"mountbreed/crypto"
	"mountbreed/native/metadata"
	"mountbreed/native/mountbreed"
	"mountbreed/native/token"
	"mountbreed/storage"
)

// Opener returns a fresh handle on the state database.
type Opener func() (storage.Database, error)

// Snapshots answers queries against a database that another process writes.
// Every query opens the database, reads through a short-lived Runtime and
// closes it again, so the file lock is only held for the duration of a read.
type Snapshots struct {
	open      Opener
	programID crypto.Address
	opts      []RuntimeOption
	addrs     mountbreed.Addresses
	params    mountbreed.Params
}

// NewSnapshots validates programID and opts once against an in-memory store
// and returns a query view that reopens the database through open on every
// call.
func NewSnapshots(open Opener, programID crypto.Address, opts ...RuntimeOption) (*Snapshots, error) {
	if open == nil {
		return nil, fmt.Errorf("core: opener required")
	}
	template, err := NewRuntime(storage.NewMemDB(), programID, opts...)
	if err != nil {
		return nil, err
	}
	defer template.Close()
	return &Snapshots{
		open:      open,
		programID: programID,
		opts:      opts,
		addrs:     template.Addresses(),
		params:    template.Params(),
	}, nil
}

func (s *Snapshots) view(fn func(rt *Runtime) error) error {
	db, err := s.open()
	if err != nil {
		return fmt.Errorf("core: open snapshot: %w", err)
	}
	rt, err := NewRuntime(db, s.programID, s.opts...)
	if err != nil {
		db.Close()
		return err
	}
	defer rt.Close()
	return fn(rt)
}

// Addresses returns the derived program addresses without touching storage.
func (s *Snapshots) Addresses() mountbreed.Addresses { return s.addrs }

// Params returns the configured protocol parameters.
func (s *Snapshots) Params() mountbreed.Params { return s.params }

func (s *Snapshots) Escrow() (out *mountbreed.EscrowRecord, err error) {
	err = s.view(func(rt *Runtime) error {
		out, err = rt.Escrow()
		return err
	})
	return out, err
}

func (s *Snapshots) VaultBalance() (out uint64, err error) {
	err = s.view(func(rt *Runtime) error {
		out, err = rt.VaultBalance()
		return err
	})
	return out, err
}

func (s *Snapshots) Cooldown(mint crypto.Address) (out *mountbreed.CooldownRecord, err error) {
	err = s.view(func(rt *Runtime) error {
		out, err = rt.Cooldown(mint)
		return err
	})
	return out, err
}

func (s *Snapshots) Cooldowns() (out []*mountbreed.CooldownRecord, err error) {
	err = s.view(func(rt *Runtime) error {
		out, err = rt.Cooldowns()
		return err
	})
	return out, err
}

func (s *Snapshots) Account(addr crypto.Address) (out *token.Account, err error) {
	err = s.view(func(rt *Runtime) error {
		out, err = rt.Account(addr)
		return err
	})
	return out, err
}

func (s *Snapshots) Mint(addr crypto.Address) (out *token.Mint, err error) {
	err = s.view(func(rt *Runtime) error {
		out, err = rt.Mint(addr)
		return err
	})
	return out, err
}

func (s *Snapshots) Metadata(mint crypto.Address) (out *metadata.Metadata, addr crypto.Address, err error) {
	err = s.view(func(rt *Runtime) error {
		out, addr, err = rt.Metadata(mint)
		return err
	})
	return out, addr, err
}
