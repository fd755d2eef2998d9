package mountbreed

import (
	"errors"
	"fmt"
	"time"

	"mountbreed/core/events"
	"mountbreed/core/types"
	"mountbreed/crypto"
	"mountbreed/native/metadata"
	"mountbreed/native/token"
)

type engineState interface {
	MountBreedEscrowGet(addr crypto.Address) (*EscrowRecord, bool, error)
	MountBreedEscrowPut(addr crypto.Address, record *EscrowRecord) error
	MountBreedEscrowDelete(addr crypto.Address) error
	MountBreedCooldownGet(addr crypto.Address) (*CooldownRecord, bool, error)
	MountBreedCooldownPut(addr crypto.Address, record *CooldownRecord) error
	AccountGet(addr crypto.Address) (*types.Account, bool, error)
}

// Engine implements the escrow lifecycle and the redemption flow. It relies on
// the host for atomicity: every failing call may leave partial writes in the
// configured state and ledger, which the host must discard.
type Engine struct {
	state           engineState
	ledger          tokenLedger
	emitter         events.Emitter
	nowFn           func() int64
	params          Params
	programID       crypto.Address
	metadataProgram crypto.Address
	addrs           Addresses
	addrErr         error
}

// NewEngine creates an engine for programID using DefaultParams, the
// canonical metadata registry and a no-op emitter.
func NewEngine(programID crypto.Address) *Engine {
	addrs, err := DeriveAddresses(programID)
	return &Engine{
		emitter:         events.NoopEmitter{},
		nowFn:           func() int64 { return time.Now().Unix() },
		params:          DefaultParams(),
		programID:       programID,
		metadataProgram: metadata.ProgramID,
		addrs:           addrs,
		addrErr:         err,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token ledger the vault operates on.
func (e *Engine) SetLedger(ledger tokenLedger) { e.ledger = ledger }

// SetMetadataProgram overrides the registry whose records count as authentic.
func (e *Engine) SetMetadataProgram(id crypto.Address) { e.metadataProgram = id }

// SetParams replaces the protocol parameters.
func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// Params returns the active protocol parameters.
func (e *Engine) Params() Params { return e.params }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests and hosts that pin a timestamp per call.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(mountbreedEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	return e.addrErr
}

func (e *Engine) vault() vault {
	return vault{ledger: e.ledger, addr: e.addrs.Vault, authority: e.addrs.Authority}
}

// Addresses returns the derived escrow, vault and authority locations.
func (e *Engine) Addresses() (Addresses, error) {
	if e.addrErr != nil {
		return Addresses{}, e.addrErr
	}
	return e.addrs, nil
}

// Escrow returns the active escrow record.
func (e *Engine) Escrow() (*EscrowRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadEscrow()
}

// Cooldown returns the cooldown record for mint.
func (e *Engine) Cooldown(mint crypto.Address) (*CooldownRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	_, rec, err := e.loadCooldown(mint)
	return rec, err
}

// VaultBalance returns the amount held by the vault.
func (e *Engine) VaultBalance() (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.vault().balance()
}

func (e *Engine) loadEscrow() (*EscrowRecord, error) {
	rec, ok, err := e.state.MountBreedEscrowGet(e.addrs.Escrow)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEscrowNotFound
	}
	return rec, nil
}

func (e *Engine) loadCooldown(mint crypto.Address) (crypto.Address, *CooldownRecord, error) {
	addr, _, err := CooldownAddress(e.programID, mint)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	rec, ok, err := e.state.MountBreedCooldownGet(addr)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	if !ok {
		return addr, nil, fmt.Errorf("%w: %s", ErrCooldownNotInitialized, mint)
	}
	return addr, rec, nil
}

// Genesis moves exactly DepositAmount from the depositor's account into a
// freshly created vault controlled by the derived authority and records the
// escrow terms.
func (e *Engine) Genesis(req GenesisRequest) (*EscrowRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.CreatorA.IsZero() || req.CreatorB.IsZero() {
		return nil, ErrInvalidCreator
	}
	deposit, err := e.ledger.Account(req.DepositAccount)
	if err != nil {
		if errors.Is(err, token.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: deposit account %s", ErrAccountMismatch, req.DepositAccount)
		}
		return nil, err
	}
	if deposit.Owner != req.Depositor {
		return nil, fmt.Errorf("%w: depositor does not own %s", ErrUnauthorized, req.DepositAccount)
	}
	if deposit.Amount < e.params.DepositAmount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientDeposit, deposit.Amount, e.params.DepositAmount)
	}
	if _, ok, err := e.state.MountBreedEscrowGet(e.addrs.Escrow); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrEscrowExists
	}
	if _, err := e.ledger.Mint(req.RewardMint); err != nil {
		return nil, fmt.Errorf("mountbreed: reward mint: %w", err)
	}
	if err := e.vault().open(deposit.Mint, req.Depositor, req.DepositAccount, e.params.DepositAmount); err != nil {
		return nil, err
	}
	record := &EscrowRecord{
		Depositor:      req.Depositor,
		DepositAccount: req.DepositAccount,
		RewardMint:     req.RewardMint,
		VaultMint:      deposit.Mint,
		CreatorA:       req.CreatorA,
		CreatorB:       req.CreatorB,
		EscrowBump:     e.addrs.EscrowBump,
		VaultBump:      e.addrs.VaultBump,
		AuthorityBump:  e.addrs.Authority.Bump(),
		CreatedAt:      e.now(),
	}
	if err := e.state.MountBreedEscrowPut(e.addrs.Escrow, record); err != nil {
		return nil, err
	}
	e.emit(newGenesisEvent(e.addrs.Escrow, record, e.params.DepositAmount))
	return record.Clone(), nil
}

// Cancel refunds the whole vault balance to the recorded deposit account,
// closes the vault and removes the escrow record. Only the depositor may
// cancel.
func (e *Engine) Cancel(caller, depositAccount crypto.Address) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	record, err := e.loadEscrow()
	if err != nil {
		return 0, err
	}
	if caller != record.Depositor {
		return 0, fmt.Errorf("%w: caller is not the depositor", ErrUnauthorized)
	}
	if depositAccount != record.DepositAccount {
		return 0, fmt.Errorf("%w: deposit account %s", ErrAccountMismatch, depositAccount)
	}
	refunded, err := e.vault().refundAndClose(record.DepositAccount, record.Depositor)
	if err != nil {
		return 0, err
	}
	if err := e.state.MountBreedEscrowDelete(e.addrs.Escrow); err != nil {
		return 0, err
	}
	e.emit(newCancelledEvent(e.addrs.Escrow, record.Depositor, refunded))
	return refunded, nil
}

// InitializeCooldown creates the cooldown record for mint. The caller must
// hold the NFT. Calling it again returns the existing record unchanged.
func (e *Engine) InitializeCooldown(caller, mint, holding crypto.Address) (*CooldownRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if _, err := e.checkHolding(caller, mint, holding); err != nil {
		return nil, err
	}
	addr, bump, err := CooldownAddress(e.programID, mint)
	if err != nil {
		return nil, err
	}
	if existing, ok, err := e.state.MountBreedCooldownGet(addr); err != nil {
		return nil, err
	} else if ok {
		return existing, nil
	}
	record := &CooldownRecord{Mint: mint, Bump: bump}
	if err := e.state.MountBreedCooldownPut(addr, record); err != nil {
		return nil, err
	}
	e.emit(newCooldownInitializedEvent(addr, mint, caller))
	return record.Clone(), nil
}

// Redeem pays PayoutAmount from the vault to the caller and burns
// RedemptionCost reward tokens after checking both mounts.
func (e *Engine) Redeem(req RedeemRequest) (*Redemption, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.MountA.Mint == req.MountB.Mint {
		return nil, fmt.Errorf("%w: both mounts name mint %s", ErrDuplicateNftReference, req.MountA.Mint)
	}
	if req.MountA.Holding == req.MountB.Holding {
		return nil, fmt.Errorf("%w: both mounts name holding %s", ErrDuplicateNftReference, req.MountA.Holding)
	}
	if req.Escrow != e.addrs.Escrow {
		return nil, fmt.Errorf("%w: escrow %s", ErrAccountMismatch, req.Escrow)
	}
	escrow, err := e.loadEscrow()
	if err != nil {
		return nil, err
	}
	for _, m := range []MountRef{req.MountA, req.MountB} {
		if _, err := e.checkHolding(req.Caller, m.Mint, m.Holding); err != nil {
			return nil, err
		}
	}

	now := e.now()
	addrA, cooldownA, err := e.loadCooldown(req.MountA.Mint)
	if err != nil {
		return nil, err
	}
	if err := e.checkCooldown(cooldownA, now); err != nil {
		return nil, err
	}
	addrB, cooldownB, err := e.loadCooldown(req.MountB.Mint)
	if err != nil {
		return nil, err
	}
	if err := e.checkCooldown(cooldownB, now); err != nil {
		return nil, err
	}

	creators := escrow.Creators()
	for _, m := range []MountRef{req.MountA, req.MountB} {
		if err := e.checkMount(m, creators); err != nil {
			return nil, err
		}
	}

	reward, err := e.ownedAccount(req.Caller, req.RewardAccount)
	if err != nil {
		return nil, err
	}
	if reward.Mint != escrow.RewardMint {
		return nil, fmt.Errorf("%w: reward account holds %s", ErrAccountMismatch, reward.Mint)
	}
	if reward.Amount < e.params.RedemptionCost {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRewardBalance, reward.Amount, e.params.RedemptionCost)
	}
	payout, err := e.ownedAccount(req.Caller, req.PayoutAccount)
	if err != nil {
		return nil, err
	}
	if payout.Mint != escrow.VaultMint {
		return nil, fmt.Errorf("%w: payout account holds %s", ErrAccountMismatch, payout.Mint)
	}
	v := e.vault()
	balance, err := v.balance()
	if err != nil {
		return nil, err
	}
	if balance < e.params.PayoutAmount {
		return nil, fmt.Errorf("%w: %d left", ErrVaultDepleted, balance)
	}

	if err := v.pay(req.PayoutAccount, e.params.PayoutAmount); err != nil {
		return nil, err
	}
	if err := e.ledger.Burn(escrow.RewardMint, req.RewardAccount, e.params.RedemptionCost, req.Caller); err != nil {
		return nil, fmt.Errorf("mountbreed: burn reward: %w", err)
	}
	cooldownA = markRedeemed(cooldownA, now)
	cooldownB = markRedeemed(cooldownB, now)
	if err := e.state.MountBreedCooldownPut(addrA, cooldownA); err != nil {
		return nil, err
	}
	if err := e.state.MountBreedCooldownPut(addrB, cooldownB); err != nil {
		return nil, err
	}
	out := &Redemption{
		Payout:     e.params.PayoutAmount,
		Burned:     e.params.RedemptionCost,
		RedeemedAt: now,
		CooldownA:  cooldownA.Clone(),
		CooldownB:  cooldownB.Clone(),
	}
	e.emit(newRedeemedEvent(req, out))
	return out, nil
}

func markRedeemed(rec *CooldownRecord, now int64) *CooldownRecord {
	next := rec.Clone()
	next.UsageCount++
	next.LastRedeemedAt = now
	next.HasRedeemed = true
	return next
}

func (e *Engine) ownedAccount(caller, addr crypto.Address) (*token.Account, error) {
	acc, err := e.ledger.Account(addr)
	if err != nil {
		if errors.Is(err, token.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrAccountMismatch, addr)
		}
		return nil, err
	}
	if acc.Owner != caller {
		return nil, fmt.Errorf("%w: caller does not own %s", ErrUnauthorized, addr)
	}
	return acc, nil
}

func (e *Engine) checkHolding(caller, mint, holding crypto.Address) (*token.Account, error) {
	acc, err := e.ledger.Account(holding)
	if err != nil {
		if errors.Is(err, token.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: holding %s", ErrAccountMismatch, holding)
		}
		return nil, err
	}
	if acc.Mint != mint {
		return nil, fmt.Errorf("%w: holding %s is not for mint %s", ErrAccountMismatch, holding, mint)
	}
	if acc.Owner != caller {
		return nil, fmt.Errorf("%w: caller does not own %s", ErrUnauthorized, holding)
	}
	if acc.Amount != 1 {
		return nil, fmt.Errorf("%w: holding %s has %d", ErrNftNotHeld, holding, acc.Amount)
	}
	return acc, nil
}

func (e *Engine) checkCooldown(rec *CooldownRecord, now int64) error {
	if rec.UsageCount >= e.params.MaxUses {
		return fmt.Errorf("%w: %s used %d times", ErrUsageCapExceeded, rec.Mint, rec.UsageCount)
	}
	if last, ok := rec.LastRedeemed(); ok && now-last <= e.params.CooldownSeconds {
		return fmt.Errorf("%w: %s redeemed %ds ago", ErrCooldownNotElapsed, rec.Mint, now-last)
	}
	return nil
}

func (e *Engine) checkMount(m MountRef, creators CreatorSet) error {
	handle, ok, err := e.state.AccountGet(m.Metadata)
	if err != nil {
		return err
	}
	if !ok {
		handle = nil
	}
	record, err := VerifyProvenance(handle, m.Mint, e.metadataProgram)
	if err != nil {
		return err
	}
	if err := CheckCreators(record.Creators, creators); err != nil {
		return fmt.Errorf("%s: %w", m.Mint, err)
	}
	return nil
}
