package token

import (
	"fmt"
	"math"

	"mountbreed/core/events"
	"mountbreed/core/types"
	"mountbreed/crypto"
)

type ledgerState interface {
	TokenMintGet(addr crypto.Address) (*Mint, bool, error)
	TokenMintPut(mint *Mint) error
	TokenAccountGet(addr crypto.Address) (*Account, bool, error)
	TokenAccountPut(account *Account) error
	TokenAccountDelete(addr crypto.Address) error
}

// Ledger implements the fungible and non-fungible token primitives. Every
// mutating call names the authority presenting the request; the ledger
// rejects it with ErrAuthorizationFailure unless the authority matches the
// recorded owner of the account (or mint authority for MintTo). Authenticating
// the authority itself is the host's responsibility.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
}

// NewLedger creates a ledger with a no-op emitter.
func NewLedger() *Ledger {
	return &Ledger{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetEmitter configures the event emitter used by the ledger. Passing nil resets
// the emitter to a no-op implementation.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(tokenEvent{evt: evt})
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	return nil
}

// Mint returns the mint stored at addr.
func (l *Ledger) Mint(addr crypto.Address) (*Mint, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	mint, ok, err := l.state.TokenMintGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, addr)
	}
	return mint, nil
}

// Account returns the token account stored at addr.
func (l *Ledger) Account(addr crypto.Address) (*Account, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	acc, ok, err := l.state.TokenAccountGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return acc, nil
}

// Balance returns the amount held by the account at addr.
func (l *Ledger) Balance(addr crypto.Address) (uint64, error) {
	acc, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// CreateMint registers a new mint with zero supply.
func (l *Ledger) CreateMint(addr crypto.Address, decimals uint8, mintAuthority crypto.Address) (*Mint, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if addr.IsZero() || mintAuthority.IsZero() {
		return nil, ErrInvalidAddress
	}
	if _, ok, err := l.state.TokenMintGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrMintExists, addr)
	}
	mint := &Mint{Address: addr, Decimals: decimals, MintAuthority: mintAuthority}
	if err := l.state.TokenMintPut(mint); err != nil {
		return nil, err
	}
	l.emit(newEvent(EventTypeMintCreated, map[string]string{
		"mint":          addrAttr(addr),
		"decimals":      amountAttr(uint64(decimals)),
		"mintAuthority": addrAttr(mintAuthority),
	}))
	return mint.Clone(), nil
}

// CreateAccount opens an empty holding for mint owned by owner. The address
// must be a wallet key; derived program addresses are reserved for
// CreateProgramAccount.
func (l *Ledger) CreateAccount(addr, mint, owner crypto.Address) (*Account, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if addr.IsZero() || owner.IsZero() {
		return nil, ErrInvalidAddress
	}
	if !crypto.IsOnCurve(addr[:]) {
		return nil, fmt.Errorf("%w: %s", ErrProgramAddress, addr)
	}
	return l.createAccount(addr, mint, owner)
}

// CreateProgramAccount opens an empty holding at a derived program address.
// The account is owned by authority from the start, which must itself be a
// derived address so that no key holder can ever control it.
func (l *Ledger) CreateProgramAccount(addr, mint, authority crypto.Address) (*Account, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if addr.IsZero() || authority.IsZero() {
		return nil, ErrInvalidAddress
	}
	if crypto.IsOnCurve(addr[:]) || crypto.IsOnCurve(authority[:]) {
		return nil, fmt.Errorf("%w: %s", ErrNotProgramAddress, addr)
	}
	return l.createAccount(addr, mint, authority)
}

func (l *Ledger) createAccount(addr, mint, owner crypto.Address) (*Account, error) {
	if _, err := l.Mint(mint); err != nil {
		return nil, err
	}
	if _, ok, err := l.state.TokenAccountGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, addr)
	}
	acc := &Account{Address: addr, Mint: mint, Owner: owner}
	if err := l.state.TokenAccountPut(acc); err != nil {
		return nil, err
	}
	l.emit(newEvent(EventTypeAccountCreated, map[string]string{
		"account": addrAttr(addr),
		"mint":    addrAttr(mint),
		"owner":   addrAttr(owner),
	}))
	return acc.Clone(), nil
}

// MintTo increases supply and credits the destination account.
func (l *Ledger) MintTo(mintAddr, to crypto.Address, amount uint64, authority crypto.Address) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	mint, err := l.Mint(mintAddr)
	if err != nil {
		return err
	}
	if mint.MintAuthority != authority {
		return fmt.Errorf("%w: mint authority mismatch", ErrAuthorizationFailure)
	}
	dest, err := l.Account(to)
	if err != nil {
		return err
	}
	if dest.Mint != mintAddr {
		return ErrMintMismatch
	}
	if mint.Supply > math.MaxUint64-amount || dest.Amount > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	mint.Supply += amount
	dest.Amount += amount
	if err := l.state.TokenMintPut(mint); err != nil {
		return err
	}
	if err := l.state.TokenAccountPut(dest); err != nil {
		return err
	}
	l.emit(newEvent(EventTypeMinted, map[string]string{
		"mint":   addrAttr(mintAddr),
		"to":     addrAttr(to),
		"amount": amountAttr(amount),
	}))
	return nil
}

// Transfer moves amount between two accounts of the same mint. The authority
// must own the source account.
func (l *Ledger) Transfer(from, to crypto.Address, amount uint64, authority crypto.Address) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	src, err := l.Account(from)
	if err != nil {
		return err
	}
	if src.Owner != authority {
		return fmt.Errorf("%w: %s does not own %s", ErrAuthorizationFailure, authority, from)
	}
	dst, err := l.Account(to)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, src.Amount, amount)
	}
	if from == to {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := l.state.TokenAccountPut(src); err != nil {
		return err
	}
	if err := l.state.TokenAccountPut(dst); err != nil {
		return err
	}
	l.emit(newEvent(EventTypeTransfer, map[string]string{
		"from":   addrAttr(from),
		"to":     addrAttr(to),
		"mint":   addrAttr(src.Mint),
		"amount": amountAttr(amount),
	}))
	return nil
}

// Burn destroys amount from the account and reduces the mint supply. The
// authority must own the account.
func (l *Ledger) Burn(mintAddr, from crypto.Address, amount uint64, authority crypto.Address) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	src, err := l.Account(from)
	if err != nil {
		return err
	}
	if src.Mint != mintAddr {
		return ErrMintMismatch
	}
	if src.Owner != authority {
		return fmt.Errorf("%w: %s does not own %s", ErrAuthorizationFailure, authority, from)
	}
	mint, err := l.Mint(mintAddr)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, src.Amount, amount)
	}
	src.Amount -= amount
	if mint.Supply >= amount {
		mint.Supply -= amount
	} else {
		mint.Supply = 0
	}
	if err := l.state.TokenAccountPut(src); err != nil {
		return err
	}
	if err := l.state.TokenMintPut(mint); err != nil {
		return err
	}
	l.emit(newEvent(EventTypeBurn, map[string]string{
		"from":   addrAttr(from),
		"mint":   addrAttr(mintAddr),
		"amount": amountAttr(amount),
	}))
	return nil
}

// SetAuthority reassigns the owner of the account. The current authority
// must match the recorded owner.
func (l *Ledger) SetAuthority(account, current, next crypto.Address) error {
	if next.IsZero() {
		return ErrInvalidAddress
	}
	acc, err := l.Account(account)
	if err != nil {
		return err
	}
	if acc.Owner != current {
		return fmt.Errorf("%w: %s does not own %s", ErrAuthorizationFailure, current, account)
	}
	previous := acc.Owner
	acc.Owner = next
	if err := l.state.TokenAccountPut(acc); err != nil {
		return err
	}
	l.emit(newEvent(EventTypeAuthorityChanged, map[string]string{
		"account":  addrAttr(account),
		"previous": addrAttr(previous),
		"owner":    addrAttr(next),
	}))
	return nil
}

// CloseAccount removes an empty account. The reclaimed storage deposit is
// attributed to refundTo in the emitted event.
func (l *Ledger) CloseAccount(account, refundTo, authority crypto.Address) error {
	acc, err := l.Account(account)
	if err != nil {
		return err
	}
	if acc.Owner != authority {
		return fmt.Errorf("%w: %s does not own %s", ErrAuthorizationFailure, authority, account)
	}
	if acc.Amount != 0 {
		return fmt.Errorf("%w: %d remaining", ErrNonZeroBalance, acc.Amount)
	}
	if err := l.state.TokenAccountDelete(account); err != nil {
		return err
	}
	l.emit(newEvent(EventTypeAccountClosed, map[string]string{
		"account":  addrAttr(account),
		"refundTo": addrAttr(refundTo),
	}))
	return nil
}
