package mountbreed

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"

	"mountbreed/core/events"
	"mountbreed/core/types"
	"mountbreed/crypto"
	"mountbreed/native/metadata"
	"mountbreed/native/token"
)

type mockState struct {
	mints     map[crypto.Address]*token.Mint
	tokens    map[crypto.Address]*token.Account
	accounts  map[crypto.Address]*types.Account
	escrows   map[crypto.Address]*EscrowRecord
	cooldowns map[crypto.Address]*CooldownRecord
}

func newMockState() *mockState {
	return &mockState{
		mints:     make(map[crypto.Address]*token.Mint),
		tokens:    make(map[crypto.Address]*token.Account),
		accounts:  make(map[crypto.Address]*types.Account),
		escrows:   make(map[crypto.Address]*EscrowRecord),
		cooldowns: make(map[crypto.Address]*CooldownRecord),
	}
}

func (m *mockState) TokenMintGet(addr crypto.Address) (*token.Mint, bool, error) {
	mint, ok := m.mints[addr]
	if !ok {
		return nil, false, nil
	}
	return mint.Clone(), true, nil
}

func (m *mockState) TokenMintPut(mint *token.Mint) error {
	m.mints[mint.Address] = mint.Clone()
	return nil
}

func (m *mockState) TokenAccountGet(addr crypto.Address) (*token.Account, bool, error) {
	acc, ok := m.tokens[addr]
	if !ok {
		return nil, false, nil
	}
	return acc.Clone(), true, nil
}

func (m *mockState) TokenAccountPut(acc *token.Account) error {
	m.tokens[acc.Address] = acc.Clone()
	return nil
}

func (m *mockState) TokenAccountDelete(addr crypto.Address) error {
	delete(m.tokens, addr)
	return nil
}

func (m *mockState) AccountGet(addr crypto.Address) (*types.Account, bool, error) {
	acc, ok := m.accounts[addr]
	if !ok {
		return nil, false, nil
	}
	return acc.Clone(), true, nil
}

func (m *mockState) MountBreedEscrowGet(addr crypto.Address) (*EscrowRecord, bool, error) {
	rec, ok := m.escrows[addr]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (m *mockState) MountBreedEscrowPut(addr crypto.Address, rec *EscrowRecord) error {
	m.escrows[addr] = rec.Clone()
	return nil
}

func (m *mockState) MountBreedEscrowDelete(addr crypto.Address) error {
	delete(m.escrows, addr)
	return nil
}

func (m *mockState) MountBreedCooldownGet(addr crypto.Address) (*CooldownRecord, bool, error) {
	rec, ok := m.cooldowns[addr]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (m *mockState) MountBreedCooldownPut(addr crypto.Address, rec *CooldownRecord) error {
	m.cooldowns[addr] = rec.Clone()
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func (c *captureEmitter) last() *types.Event {
	if len(c.events) == 0 {
		return nil
	}
	if evt, ok := c.events[len(c.events)-1].(interface{ Event() *types.Event }); ok {
		return evt.Event()
	}
	return nil
}

// newTestAddress returns the wallet address of a key seeded with fill.
func newTestAddress(fill byte) crypto.Address {
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{fill}, ed25519.SeedSize))
	var addr crypto.Address
	copy(addr[:], key.Public().(ed25519.PublicKey))
	return addr
}

const testRewardCost = 200 * 1_000_000_000

type fixture struct {
	t       *testing.T
	engine  *Engine
	ledger  *token.Ledger
	state   *mockState
	emitter *captureEmitter
	now     int64

	mintAuthority crypto.Address
	vaultMint     crypto.Address
	rewardMint    crypto.Address
	nftA          crypto.Address
	nftB          crypto.Address
	creatorA      crypto.Address
	creatorB      crypto.Address

	depositor  crypto.Address
	depositAcc crypto.Address

	user      crypto.Address
	holdingA  crypto.Address
	holdingB  crypto.Address
	rewardAcc crypto.Address
	payoutAcc crypto.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:             t,
		ledger:        token.NewLedger(),
		state:         newMockState(),
		emitter:       &captureEmitter{},
		now:           1_700_000_000,
		mintAuthority: newTestAddress(0x01),
		vaultMint:     newTestAddress(0x02),
		rewardMint:    newTestAddress(0x03),
		nftA:          newTestAddress(0x04),
		nftB:          newTestAddress(0x05),
		creatorA:      newTestAddress(0x06),
		creatorB:      newTestAddress(0x07),
		depositor:     newTestAddress(0x10),
		depositAcc:    newTestAddress(0x11),
		user:          newTestAddress(0x20),
		holdingA:      newTestAddress(0x21),
		holdingB:      newTestAddress(0x22),
		rewardAcc:     newTestAddress(0x23),
		payoutAcc:     newTestAddress(0x24),
	}
	f.ledger.SetState(f.state)
	f.engine = NewEngine(crypto.AddressFromLabel("test/mountbreed"))
	f.engine.SetState(f.state)
	f.engine.SetLedger(f.ledger)
	f.engine.SetEmitter(f.emitter)
	f.engine.SetNowFunc(func() int64 { return f.now })

	f.mustMint(f.vaultMint, 0)
	f.mustMint(f.rewardMint, 9)
	f.mustMint(f.nftA, 0)
	f.mustMint(f.nftB, 0)
	f.mustAccount(f.depositAcc, f.vaultMint, f.depositor, 5_000)
	f.mustAccount(f.holdingA, f.nftA, f.user, 1)
	f.mustAccount(f.holdingB, f.nftB, f.user, 1)
	f.mustAccount(f.rewardAcc, f.rewardMint, f.user, 10*testRewardCost)
	f.mustAccount(f.payoutAcc, f.vaultMint, f.user, 0)
	f.putMetadata(f.nftA, metadata.Creator{Address: f.creatorA, Verified: true, Share: 100})
	f.putMetadata(f.nftB, metadata.Creator{Address: f.creatorB, Verified: true, Share: 100})
	return f
}

func (f *fixture) mustMint(addr crypto.Address, decimals uint8) {
	f.t.Helper()
	if _, err := f.ledger.CreateMint(addr, decimals, f.mintAuthority); err != nil {
		f.t.Fatalf("create mint: %v", err)
	}
}

func (f *fixture) mustAccount(addr, mint, owner crypto.Address, amount uint64) {
	f.t.Helper()
	if _, err := f.ledger.CreateAccount(addr, mint, owner); err != nil {
		f.t.Fatalf("create account: %v", err)
	}
	if amount == 0 {
		return
	}
	if err := f.ledger.MintTo(mint, addr, amount, f.mintAuthority); err != nil {
		f.t.Fatalf("mint to: %v", err)
	}
}

func (f *fixture) metadataAddress(mint crypto.Address) crypto.Address {
	f.t.Helper()
	addr, _, err := metadata.DeriveAddress(metadata.ProgramID, mint)
	if err != nil {
		f.t.Fatalf("derive metadata: %v", err)
	}
	return addr
}

func (f *fixture) putMetadata(mint crypto.Address, creators ...metadata.Creator) {
	f.t.Helper()
	data, err := metadata.Encode(&metadata.Metadata{Mint: mint, Name: "Mount", Creators: creators})
	if err != nil {
		f.t.Fatalf("encode metadata: %v", err)
	}
	addr := f.metadataAddress(mint)
	f.state.accounts[addr] = &types.Account{Address: addr, Owner: metadata.ProgramID, Data: data}
}

func (f *fixture) genesis() *EscrowRecord {
	f.t.Helper()
	rec, err := f.engine.Genesis(GenesisRequest{
		Depositor:      f.depositor,
		DepositAccount: f.depositAcc,
		RewardMint:     f.rewardMint,
		CreatorA:       f.creatorA,
		CreatorB:       f.creatorB,
	})
	if err != nil {
		f.t.Fatalf("genesis: %v", err)
	}
	return rec
}

func (f *fixture) initCooldowns() {
	f.t.Helper()
	if _, err := f.engine.InitializeCooldown(f.user, f.nftA, f.holdingA); err != nil {
		f.t.Fatalf("init cooldown A: %v", err)
	}
	if _, err := f.engine.InitializeCooldown(f.user, f.nftB, f.holdingB); err != nil {
		f.t.Fatalf("init cooldown B: %v", err)
	}
}

func (f *fixture) redeemRequest() RedeemRequest {
	addrs, err := f.engine.Addresses()
	if err != nil {
		f.t.Fatalf("addresses: %v", err)
	}
	return RedeemRequest{
		Caller:        f.user,
		MountA:        MountRef{Mint: f.nftA, Holding: f.holdingA, Metadata: f.metadataAddress(f.nftA)},
		MountB:        MountRef{Mint: f.nftB, Holding: f.holdingB, Metadata: f.metadataAddress(f.nftB)},
		PayoutAccount: f.payoutAcc,
		RewardAccount: f.rewardAcc,
		Escrow:        addrs.Escrow,
	}
}

func (f *fixture) balance(addr crypto.Address) uint64 {
	f.t.Helper()
	bal, err := f.ledger.Balance(addr)
	if err != nil {
		f.t.Fatalf("balance: %v", err)
	}
	return bal
}

func TestGenesisRequiresMinimumDeposit(t *testing.T) {
	f := newFixture(t)
	short := newTestAddress(0x12)
	f.mustAccount(short, f.vaultMint, f.depositor, 2_201)

	_, err := f.engine.Genesis(GenesisRequest{
		Depositor:      f.depositor,
		DepositAccount: short,
		RewardMint:     f.rewardMint,
		CreatorA:       f.creatorA,
		CreatorB:       f.creatorB,
	})
	if !errors.Is(err, ErrInsufficientDeposit) {
		t.Fatalf("expected insufficient deposit, got %v", err)
	}
	if _, err := f.engine.Escrow(); !errors.Is(err, ErrEscrowNotFound) {
		t.Fatalf("escrow must not exist after failed genesis, got %v", err)
	}

	rec := f.genesis()
	if rec.VaultMint != f.vaultMint || rec.Depositor != f.depositor {
		t.Fatalf("unexpected escrow record %+v", rec)
	}
	if rec.CreatedAt != f.now {
		t.Fatalf("expected created at %d, got %d", f.now, rec.CreatedAt)
	}
	if bal := f.balance(f.depositAcc); bal != 5_000-2_202 {
		t.Fatalf("expected exactly 2202 moved, depositor left with %d", bal)
	}
	vaultBal, err := f.engine.VaultBalance()
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if vaultBal != 2_202 {
		t.Fatalf("unexpected vault balance %d", vaultBal)
	}
	addrs, _ := f.engine.Addresses()
	vault, err := f.ledger.Account(addrs.Vault)
	if err != nil {
		t.Fatalf("vault account: %v", err)
	}
	if vault.Owner != addrs.Authority.Address() {
		t.Fatalf("vault must be owned by the derived authority")
	}
	if evt := f.emitter.last(); evt == nil || evt.Type != EventTypeGenesis {
		t.Fatalf("expected genesis event, got %+v", evt)
	}
}

func TestGenesisRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Genesis(GenesisRequest{
		Depositor:      f.user,
		DepositAccount: f.depositAcc,
		RewardMint:     f.rewardMint,
		CreatorA:       f.creatorA,
		CreatorB:       f.creatorB,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for foreign deposit account, got %v", err)
	}
	_, err = f.engine.Genesis(GenesisRequest{
		Depositor:      f.depositor,
		DepositAccount: f.depositAcc,
		RewardMint:     f.rewardMint,
		CreatorA:       f.creatorA,
	})
	if !errors.Is(err, ErrInvalidCreator) {
		t.Fatalf("expected invalid creator, got %v", err)
	}

	f.genesis()
	_, err = f.engine.Genesis(GenesisRequest{
		Depositor:      f.depositor,
		DepositAccount: f.depositAcc,
		RewardMint:     f.rewardMint,
		CreatorA:       f.creatorA,
		CreatorB:       f.creatorB,
	})
	if !errors.Is(err, ErrEscrowExists) {
		t.Fatalf("expected escrow exists, got %v", err)
	}
}

func TestGenesisAfterVaultSquatAttempt(t *testing.T) {
	f := newFixture(t)
	addrs, err := f.engine.Addresses()
	if err != nil {
		t.Fatalf("addresses: %v", err)
	}

	if _, err := f.ledger.CreateAccount(addrs.Vault, f.vaultMint, f.user); !errors.Is(err, token.ErrProgramAddress) {
		t.Fatalf("expected program address rejection, got %v", err)
	}
	if _, err := f.ledger.CreateAccount(addrs.Escrow, f.vaultMint, f.user); !errors.Is(err, token.ErrProgramAddress) {
		t.Fatalf("expected program address rejection for escrow, got %v", err)
	}
	if _, err := f.ledger.Account(addrs.Vault); !errors.Is(err, token.ErrAccountNotFound) {
		t.Fatalf("vault must not exist before genesis, got %v", err)
	}

	f.genesis()
	vault, err := f.ledger.Account(addrs.Vault)
	if err != nil {
		t.Fatalf("vault account: %v", err)
	}
	if vault.Owner != addrs.Authority.Address() || vault.Amount != 2_202 {
		t.Fatalf("unexpected vault %+v", vault)
	}
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t)
	f.genesis()

	if _, err := f.engine.Cancel(f.user, f.depositAcc); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.engine.Cancel(f.depositor, f.payoutAcc); !errors.Is(err, ErrAccountMismatch) {
		t.Fatalf("expected account mismatch, got %v", err)
	}
	if bal, _ := f.engine.VaultBalance(); bal != 2_202 {
		t.Fatalf("vault must be untouched, got %d", bal)
	}
	if _, err := f.engine.Escrow(); err != nil {
		t.Fatalf("escrow must survive rejected cancel: %v", err)
	}
}

func TestCancelRefundsEverything(t *testing.T) {
	f := newFixture(t)
	f.genesis()
	f.initCooldowns()
	if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	refunded, err := f.engine.Cancel(f.depositor, f.depositAcc)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if refunded != 2_201 {
		t.Fatalf("expected remaining 2201 refunded, got %d", refunded)
	}
	if bal := f.balance(f.depositAcc); bal != 5_000-1 {
		t.Fatalf("unexpected depositor balance %d", bal)
	}
	addrs, _ := f.engine.Addresses()
	if _, err := f.ledger.Account(addrs.Vault); !errors.Is(err, token.ErrAccountNotFound) {
		t.Fatalf("vault must be closed, got %v", err)
	}
	if _, err := f.engine.Escrow(); !errors.Is(err, ErrEscrowNotFound) {
		t.Fatalf("escrow must be removed, got %v", err)
	}
	if _, err := f.engine.Cancel(f.depositor, f.depositAcc); !errors.Is(err, ErrEscrowNotFound) {
		t.Fatalf("expected escrow not found on second cancel, got %v", err)
	}
	if evt := f.emitter.last(); evt == nil || evt.Type != EventTypeCancelled || evt.Attributes["refunded"] != "2201" {
		t.Fatalf("unexpected cancel event %+v", evt)
	}

	f.genesis()
}

func TestInitializeCooldown(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.InitializeCooldown(newTestAddress(0x30), f.nftA, f.holdingA); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.engine.InitializeCooldown(f.user, f.nftB, f.holdingA); !errors.Is(err, ErrAccountMismatch) {
		t.Fatalf("expected account mismatch, got %v", err)
	}
	empty := newTestAddress(0x25)
	f.mustAccount(empty, f.nftA, f.user, 0)
	if _, err := f.engine.InitializeCooldown(f.user, f.nftA, empty); !errors.Is(err, ErrNftNotHeld) {
		t.Fatalf("expected nft not held, got %v", err)
	}

	rec, err := f.engine.InitializeCooldown(f.user, f.nftA, f.holdingA)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if rec.UsageCount != 0 || rec.HasRedeemed {
		t.Fatalf("fresh cooldown must be unused: %+v", rec)
	}
	emitted := len(f.emitter.events)
	again, err := f.engine.InitializeCooldown(f.user, f.nftA, f.holdingA)
	if err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if *again != *rec {
		t.Fatalf("re-init must return the existing record")
	}
	if len(f.emitter.events) != emitted {
		t.Fatalf("re-init must not emit")
	}
}

func TestRedeemEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.genesis()
	f.initCooldowns()
	rewardBefore := f.balance(f.rewardAcc)

	out, err := f.engine.Redeem(f.redeemRequest())
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if bal, _ := f.engine.VaultBalance(); bal != 2_201 {
		t.Fatalf("vault must lose exactly one unit, has %d", bal)
	}
	if bal := f.balance(f.payoutAcc); bal != 1 {
		t.Fatalf("payout account must receive one unit, has %d", bal)
	}
	if bal := f.balance(f.rewardAcc); bal != rewardBefore-testRewardCost {
		t.Fatalf("reward must be burned, has %d", bal)
	}
	for _, mint := range []crypto.Address{f.nftA, f.nftB} {
		rec, err := f.engine.Cooldown(mint)
		if err != nil {
			t.Fatalf("cooldown: %v", err)
		}
		if last, ok := rec.LastRedeemed(); rec.UsageCount != 1 || !ok || last != f.now {
			t.Fatalf("unexpected cooldown record %+v", rec)
		}
	}
	if out.CooldownA.UsageCount != 1 || out.CooldownB.UsageCount != 1 || out.RedeemedAt != f.now {
		t.Fatalf("unexpected redemption summary %+v", out)
	}
	if evt := f.emitter.last(); evt == nil || evt.Type != EventTypeRedeemed {
		t.Fatalf("expected redeemed event, got %+v", evt)
	}

	if _, err := f.engine.Redeem(f.redeemRequest()); !errors.Is(err, ErrCooldownNotElapsed) {
		t.Fatalf("expected cooldown not elapsed, got %v", err)
	}
}

func TestRedeemCooldownBoundaryAndCap(t *testing.T) {
	f := newFixture(t)
	f.genesis()
	f.initCooldowns()

	if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	f.now += 60
	if _, err := f.engine.Redeem(f.redeemRequest()); !errors.Is(err, ErrCooldownNotElapsed) {
		t.Fatalf("exactly 60s must not be enough, got %v", err)
	}
	f.now++
	if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
		t.Fatalf("redeem after 61s: %v", err)
	}
	for i := 0; i < 3; i++ {
		f.now += 61
		if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
			t.Fatalf("redeem %d: %v", i+3, err)
		}
	}
	rec, err := f.engine.Cooldown(f.nftA)
	if err != nil {
		t.Fatalf("cooldown: %v", err)
	}
	if rec.UsageCount != 5 {
		t.Fatalf("expected 5 uses, got %d", rec.UsageCount)
	}
	f.now += 61
	if _, err := f.engine.Redeem(f.redeemRequest()); !errors.Is(err, ErrUsageCapExceeded) {
		t.Fatalf("expected usage cap exceeded, got %v", err)
	}
}

func TestRedeemAtEpochZeroStillStartsCooldown(t *testing.T) {
	f := newFixture(t)
	f.now = 0
	f.genesis()
	f.initCooldowns()
	if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	f.now = 30
	if _, err := f.engine.Redeem(f.redeemRequest()); !errors.Is(err, ErrCooldownNotElapsed) {
		t.Fatalf("redemption at time zero must count, got %v", err)
	}
}

func TestRedeemRejectsDuplicateReferences(t *testing.T) {
	f := newFixture(t)
	f.genesis()
	f.initCooldowns()

	req := f.redeemRequest()
	req.MountB = req.MountA
	if _, err := f.engine.Redeem(req); !errors.Is(err, ErrDuplicateNftReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}
	req = f.redeemRequest()
	req.MountB.Holding = req.MountA.Holding
	if _, err := f.engine.Redeem(req); !errors.Is(err, ErrDuplicateNftReference) {
		t.Fatalf("expected duplicate holding reference, got %v", err)
	}
}

func TestRedeemPreconditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, req *RedeemRequest)
		want   error
	}{
		{
			name:   "wrong escrow reference",
			mutate: func(f *fixture, req *RedeemRequest) { req.Escrow = newTestAddress(0x77) },
			want:   ErrAccountMismatch,
		},
		{
			name:   "caller does not hold nft",
			mutate: func(f *fixture, req *RedeemRequest) { req.Caller = newTestAddress(0x78) },
			want:   ErrUnauthorized,
		},
		{
			name: "cooldown missing",
			mutate: func(f *fixture, req *RedeemRequest) {
				mint := newTestAddress(0x40)
				holding := newTestAddress(0x41)
				f.mustMint(mint, 0)
				f.mustAccount(holding, mint, f.user, 1)
				req.MountB = MountRef{Mint: mint, Holding: holding, Metadata: f.metadataAddress(mint)}
			},
			want: ErrCooldownNotInitialized,
		},
		{
			name: "unverified creator",
			mutate: func(f *fixture, req *RedeemRequest) {
				f.putMetadata(f.nftB, metadata.Creator{Address: f.creatorB, Share: 100})
			},
			want: ErrCreatorNotWhitelisted,
		},
		{
			name: "verified creator not approved",
			mutate: func(f *fixture, req *RedeemRequest) {
				f.putMetadata(f.nftA, metadata.Creator{Address: newTestAddress(0x66), Verified: true, Share: 100})
			},
			want: ErrCreatorNotWhitelisted,
		},
		{
			name: "metadata from another registry",
			mutate: func(f *fixture, req *RedeemRequest) {
				addr := f.metadataAddress(f.nftA)
				f.state.accounts[addr].Owner = newTestAddress(0x67)
			},
			want: ErrInvalidProvenance,
		},
		{
			name: "metadata at non-derived address",
			mutate: func(f *fixture, req *RedeemRequest) {
				fake := newTestAddress(0x68)
				genuine := f.state.accounts[f.metadataAddress(f.nftA)]
				f.state.accounts[fake] = &types.Account{Address: fake, Owner: metadata.ProgramID, Data: genuine.Data}
				req.MountA.Metadata = fake
			},
			want: ErrInvalidProvenance,
		},
		{
			name: "metadata for another mint",
			mutate: func(f *fixture, req *RedeemRequest) {
				req.MountA.Metadata = f.metadataAddress(f.nftB)
			},
			want: ErrInvalidProvenance,
		},
		{
			name: "reward balance too low",
			mutate: func(f *fixture, req *RedeemRequest) {
				low := newTestAddress(0x50)
				f.mustAccount(low, f.rewardMint, f.user, testRewardCost-1)
				req.RewardAccount = low
			},
			want: ErrInsufficientRewardBalance,
		},
		{
			name:   "reward account wrong mint",
			mutate: func(f *fixture, req *RedeemRequest) { req.RewardAccount = f.payoutAcc },
			want:   ErrAccountMismatch,
		},
		{
			name: "reward account owned by someone else",
			mutate: func(f *fixture, req *RedeemRequest) {
				other := newTestAddress(0x51)
				f.mustAccount(other, f.rewardMint, newTestAddress(0x52), testRewardCost)
				req.RewardAccount = other
			},
			want: ErrUnauthorized,
		},
		{
			name:   "payout account wrong mint",
			mutate: func(f *fixture, req *RedeemRequest) { req.PayoutAccount = f.rewardAcc },
			want:   ErrAccountMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.genesis()
			f.initCooldowns()
			req := f.redeemRequest()
			tc.mutate(f, &req)
			rewardBefore := f.balance(f.rewardAcc)

			if _, err := f.engine.Redeem(req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if bal, _ := f.engine.VaultBalance(); bal != 2_202 {
				t.Fatalf("vault must be untouched, has %d", bal)
			}
			if bal := f.balance(f.rewardAcc); bal != rewardBefore {
				t.Fatalf("reward must not be burned")
			}
			for _, mint := range []crypto.Address{f.nftA, f.nftB} {
				rec, err := f.engine.Cooldown(mint)
				if err != nil {
					t.Fatalf("cooldown %s: %v", mint, err)
				}
				if _, redeemed := rec.LastRedeemed(); redeemed || rec.UsageCount != 0 {
					t.Fatalf("cooldown for %s must be untouched, got %+v", mint, rec)
				}
			}
		})
	}
}

func TestRedeemEitherCreatorSuffices(t *testing.T) {
	f := newFixture(t)
	f.genesis()
	f.initCooldowns()
	f.putMetadata(f.nftA,
		metadata.Creator{Address: newTestAddress(0x69), Share: 50},
		metadata.Creator{Address: f.creatorB, Verified: true, Share: 50},
	)
	if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
		t.Fatalf("redeem with creator B on mount A: %v", err)
	}
}

func TestRedeemVaultDepleted(t *testing.T) {
	f := newFixture(t)
	f.genesis()
	f.initCooldowns()
	if err := f.engine.SetParams(Params{
		DepositAmount:   2_202,
		CooldownSeconds: 60,
		MaxUses:         5,
		RedemptionCost:  testRewardCost,
		PayoutAmount:    2_202,
	}); err != nil {
		t.Fatalf("set params: %v", err)
	}
	if _, err := f.engine.Redeem(f.redeemRequest()); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	f.now += 61
	if _, err := f.engine.Redeem(f.redeemRequest()); !errors.Is(err, ErrVaultDepleted) {
		t.Fatalf("expected vault depleted, got %v", err)
	}
}

func TestEngineWithoutState(t *testing.T) {
	engine := NewEngine(crypto.AddressFromLabel("test/mountbreed"))
	if _, err := engine.Escrow(); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected nil state, got %v", err)
	}
	engine.SetState(newMockState())
	if _, err := engine.Escrow(); !errors.Is(err, ErrNilLedger) {
		t.Fatalf("expected nil ledger, got %v", err)
	}
}
