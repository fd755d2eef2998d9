package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mountbreed/core/events"
	nbstate "mountbreed/core/state"
	"mountbreed/crypto"
	"mountbreed/native/metadata"
	"mountbreed/native/mountbreed"
	"mountbreed/native/token"
	"mountbreed/observability/metrics"
	"mountbreed/storage"
)

// Runtime is the reference host for the token ledger, the metadata registry
// and the mount-breed engine. Each operation runs under a single lock with one
// pinned timestamp inside a state checkpoint. Successful operations are
// committed to the database as one batch before their events are published;
// failed operations leave no trace in state and publish nothing.
type Runtime struct {
	mu sync.Mutex

	db       storage.Database
	state    *nbstate.Manager
	ledger   *token.Ledger
	registry *metadata.Registry
	engine   *mountbreed.Engine
	buffer   *events.Buffer

	emitter events.Emitter
	nowFn   func() int64
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.MountBreedMetrics
}

// RuntimeOption customises a Runtime.
type RuntimeOption func(*Runtime) error

// WithEmitter publishes committed events to emitter.
func WithEmitter(emitter events.Emitter) RuntimeOption {
	return func(r *Runtime) error {
		if emitter != nil {
			r.emitter = emitter
		}
		return nil
	}
}

// WithNowFunc overrides the clock sampled once per operation.
func WithNowFunc(now func() int64) RuntimeOption {
	return func(r *Runtime) error {
		if now != nil {
			r.nowFn = now
		}
		return nil
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// WithTracer overrides the tracer used for per-operation spans.
func WithTracer(tracer trace.Tracer) RuntimeOption {
	return func(r *Runtime) error {
		if tracer != nil {
			r.tracer = tracer
		}
		return nil
	}
}

// WithParams overrides the protocol parameters.
func WithParams(params mountbreed.Params) RuntimeOption {
	return func(r *Runtime) error {
		return r.engine.SetParams(params)
	}
}

// WithMetadataProgram overrides the metadata registry program identity.
func WithMetadataProgram(id crypto.Address) RuntimeOption {
	return func(r *Runtime) error {
		if id.IsZero() {
			return fmt.Errorf("core: metadata program must not be zero")
		}
		r.registry.SetProgramID(id)
		r.engine.SetMetadataProgram(id)
		return nil
	}
}

// NewRuntime wires the native modules on top of db for programID.
func NewRuntime(db storage.Database, programID crypto.Address, opts ...RuntimeOption) (*Runtime, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if programID.IsZero() {
		return nil, fmt.Errorf("core: program id must not be zero")
	}
	manager := nbstate.NewManager(db)
	buffer := &events.Buffer{}

	ledger := token.NewLedger()
	ledger.SetState(manager)
	ledger.SetEmitter(buffer)

	registry := metadata.NewRegistry()
	registry.SetState(manager)
	registry.SetMints(ledger)
	registry.SetEmitter(buffer)

	engine := mountbreed.NewEngine(programID)
	engine.SetState(manager)
	engine.SetLedger(ledger)
	engine.SetEmitter(buffer)
	if _, err := engine.Addresses(); err != nil {
		return nil, err
	}

	r := &Runtime{
		db:       db,
		state:    manager,
		ledger:   ledger,
		registry: registry,
		engine:   engine,
		buffer:   buffer,
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		logger:   slog.Default(),
		tracer:   otel.Tracer("mountbreed/core"),
		metrics:  metrics.MountBreed(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.refreshVaultGauge()
	return r, nil
}

// Close releases the underlying database.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.db.Close()
}

func (r *Runtime) execute(ctx context.Context, op string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execID := uuid.NewString()
	_, span := r.tracer.Start(ctx, "mountbreed."+op, trace.WithAttributes(
		attribute.String("mountbreed.op", op),
		attribute.String("mountbreed.execution_id", execID),
	))
	defer span.End()

	started := time.Now()
	now := r.nowFn()
	r.engine.SetNowFunc(func() int64 { return now })
	r.buffer.Reset()
	r.state.Checkpoint()

	err := fn()
	if err == nil {
		if err = r.state.Merge(); err == nil {
			err = r.state.Commit()
		}
	}
	if err != nil {
		r.state.Discard()
		r.buffer.Reset()
		code := mountbreed.ErrorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		r.metrics.ObserveOperation(op, code, time.Since(started))
		r.logger.Warn("operation rejected",
			slog.String("op", op),
			slog.String("execution_id", execID),
			slog.String("code", code),
			slog.Int64("now", now),
			slog.String("error", err.Error()))
		return err
	}

	published := len(r.buffer.Events())
	r.buffer.Flush(r.emitter)
	r.metrics.ObserveOperation(op, "ok", time.Since(started))
	r.refreshVaultGauge()
	span.SetAttributes(attribute.Int("mountbreed.events", published))
	r.logger.Info("operation committed",
		slog.String("op", op),
		slog.String("execution_id", execID),
		slog.Int64("now", now),
		slog.Int("events", published))
	return nil
}

func (r *Runtime) refreshVaultGauge() {
	balance, err := r.engine.VaultBalance()
	if err != nil {
		balance = 0
	}
	r.metrics.SetVaultBalance(balance)
}

// CreateMint registers a token mint.
func (r *Runtime) CreateMint(ctx context.Context, addr crypto.Address, decimals uint8, authority crypto.Address) (*token.Mint, error) {
	var out *token.Mint
	err := r.execute(ctx, "create_mint", func() error {
		var err error
		out, err = r.ledger.CreateMint(addr, decimals, authority)
		return err
	})
	return out, err
}

// CreateAccount opens a token holding.
func (r *Runtime) CreateAccount(ctx context.Context, addr, mint, owner crypto.Address) (*token.Account, error) {
	var out *token.Account
	err := r.execute(ctx, "create_account", func() error {
		var err error
		out, err = r.ledger.CreateAccount(addr, mint, owner)
		return err
	})
	return out, err
}

// MintTo issues new tokens to an account.
func (r *Runtime) MintTo(ctx context.Context, mint, to crypto.Address, amount uint64, authority crypto.Address) error {
	return r.execute(ctx, "mint_to", func() error {
		return r.ledger.MintTo(mint, to, amount, authority)
	})
}

// Transfer moves tokens between two holdings of the same mint.
func (r *Runtime) Transfer(ctx context.Context, from, to crypto.Address, amount uint64, authority crypto.Address) error {
	return r.execute(ctx, "transfer", func() error {
		return r.ledger.Transfer(from, to, amount, authority)
	})
}

// CreateMetadata publishes an NFT metadata record.
func (r *Runtime) CreateMetadata(ctx context.Context, md *metadata.Metadata, signer crypto.Address) (crypto.Address, error) {
	var out crypto.Address
	err := r.execute(ctx, "create_metadata", func() error {
		var err error
		out, err = r.registry.Create(md, signer)
		return err
	})
	return out, err
}

// SignMetadata verifies the creator's entry on a metadata record.
func (r *Runtime) SignMetadata(ctx context.Context, mint, creator crypto.Address) error {
	return r.execute(ctx, "sign_metadata", func() error {
		return r.registry.SignCreator(mint, creator)
	})
}

// Genesis funds the vault and creates the escrow.
func (r *Runtime) Genesis(ctx context.Context, req mountbreed.GenesisRequest) (*mountbreed.EscrowRecord, error) {
	var out *mountbreed.EscrowRecord
	err := r.execute(ctx, "genesis", func() error {
		var err error
		out, err = r.engine.Genesis(req)
		return err
	})
	return out, err
}

// Cancel refunds the vault to the depositor and closes the escrow.
func (r *Runtime) Cancel(ctx context.Context, caller, depositAccount crypto.Address) (uint64, error) {
	var out uint64
	err := r.execute(ctx, "cancel", func() error {
		var err error
		out, err = r.engine.Cancel(caller, depositAccount)
		return err
	})
	return out, err
}

// InitializeCooldown creates the cooldown record for an NFT.
func (r *Runtime) InitializeCooldown(ctx context.Context, caller, mint, holding crypto.Address) (*mountbreed.CooldownRecord, error) {
	var out *mountbreed.CooldownRecord
	err := r.execute(ctx, "init_cooldown", func() error {
		var err error
		out, err = r.engine.InitializeCooldown(caller, mint, holding)
		return err
	})
	return out, err
}

// Redeem executes a redemption.
func (r *Runtime) Redeem(ctx context.Context, req mountbreed.RedeemRequest) (*mountbreed.Redemption, error) {
	var out *mountbreed.Redemption
	err := r.execute(ctx, "redeem", func() error {
		var err error
		out, err = r.engine.Redeem(req)
		return err
	})
	if err == nil {
		r.metrics.RecordRedemption(out.Burned, out.Payout)
	}
	return out, err
}

// Addresses returns the derived escrow, vault and authority addresses.
func (r *Runtime) Addresses() mountbreed.Addresses {
	addrs, _ := r.engine.Addresses()
	return addrs
}

// Params returns the active protocol parameters.
func (r *Runtime) Params() mountbreed.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Params()
}

// Escrow returns the active escrow record.
func (r *Runtime) Escrow() (*mountbreed.EscrowRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Escrow()
}

// Cooldown returns the cooldown record for mint.
func (r *Runtime) Cooldown(mint crypto.Address) (*mountbreed.CooldownRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Cooldown(mint)
}

// Cooldowns returns every cooldown record in creation order.
func (r *Runtime) Cooldowns() ([]*mountbreed.CooldownRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mints, err := r.state.MountBreedCooldownMints()
	if err != nil {
		return nil, err
	}
	out := make([]*mountbreed.CooldownRecord, 0, len(mints))
	for _, mint := range mints {
		rec, err := r.engine.Cooldown(mint)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// VaultBalance returns the amount held by the vault.
func (r *Runtime) VaultBalance() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.VaultBalance()
}

// Account returns a token holding.
func (r *Runtime) Account(addr crypto.Address) (*token.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Account(addr)
}

// Mint returns a token mint.
func (r *Runtime) Mint(addr crypto.Address) (*token.Mint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Mint(addr)
}

// Metadata returns the metadata record for mint and its address.
func (r *Runtime) Metadata(mint crypto.Address) (*metadata.Metadata, crypto.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Get(mint)
}
