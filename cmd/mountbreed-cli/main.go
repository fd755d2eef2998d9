package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"mountbreed/cmd/internal/passphrase"
	"mountbreed/config"
	"mountbreed/core"
	"mountbreed/core/events"
	"mountbreed/core/types"
	"mountbreed/crypto"
	"mountbreed/native/mountbreed"
	"mountbreed/observability/logging"
	"mountbreed/observability/otel"
	"mountbreed/storage"
)

const (
	configEnvVar     = "MOUNTBREED_CONFIG"
	passphraseEnvVar = "MOUNTBREED_PASSPHRASE"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) int
	// offline commands never open the state database.
	offline bool
	// detached commands load the configuration but open the state database
	// on demand instead of holding it for the whole run.
	detached bool
}

var commands = []command{
	{name: "keygen", usage: "generate an encrypted keystore", run: runKeygen, offline: true},
	{name: "create-mint", usage: "register a token mint", run: runCreateMint},
	{name: "create-account", usage: "open a token holding", run: runCreateAccount},
	{name: "mint-to", usage: "issue tokens to a holding", run: runMintTo},
	{name: "transfer", usage: "move tokens between holdings", run: runTransfer},
	{name: "create-metadata", usage: "publish NFT metadata", run: runCreateMetadata},
	{name: "sign-metadata", usage: "verify your creator entry", run: runSignMetadata},
	{name: "genesis", usage: "fund the vault and create the escrow", run: runGenesis},
	{name: "cancel", usage: "refund the vault and close the escrow", run: runCancel},
	{name: "init-cooldown", usage: "create the cooldown record for an NFT", run: runInitCooldown},
	{name: "redeem", usage: "redeem a payout with two eligible mounts", run: runRedeem},
	{name: "escrow", usage: "show the escrow record", run: runEscrowQuery},
	{name: "cooldown", usage: "show cooldown records", run: runCooldownQuery},
	{name: "account", usage: "show a token holding", run: runAccountQuery},
	{name: "metadata", usage: "show NFT metadata", run: runMetadataQuery},
	{name: "addresses", usage: "show the derived program addresses", run: runAddresses},
	{name: "serve", usage: "run the read-only HTTP query gateway", run: runServe, detached: true},
}

func usage() string {
	var b strings.Builder
	b.WriteString("Usage: mountbreed-cli [--config path] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-16s %s\n", c.name, c.usage)
	}
	return strings.TrimRight(b.String(), "\n")
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("mountbreed-cli", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprintln(stderr, usage()) }
	defaultConfig := os.Getenv(configEnvVar)
	if defaultConfig == "" {
		defaultConfig = "mountbreed.toml"
	}
	configPath := global.String("config", defaultConfig, "path to the TOML or YAML configuration")
	if err := global.Parse(args); err != nil {
		return 1
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == rest[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n", rest[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}

	e := &env{stdout: stdout, stderr: stderr, passphrase: passphrase.NewSource(passphraseEnvVar, stderr)}
	if !cmd.offline {
		err := e.load(*configPath)
		if err == nil && !cmd.detached {
			err = e.openRuntime()
		}
		defer e.close()
		if err != nil {
			return printError(stderr, err)
		}
	}
	return cmd.run(e, rest[1:])
}

// env carries the per-invocation runtime.
type env struct {
	stdout     io.Writer
	stderr     io.Writer
	passphrase *passphrase.Source

	cfg      *config.Config
	rt       *core.Runtime
	logger   *slog.Logger
	shutdown []func()
}

func (e *env) load(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	e.cfg = cfg

	logger, logCloser := logging.Setup("mountbreed-cli", cfg.Env, logging.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Output: e.stderr,
	})
	e.logger = logger
	e.shutdown = append(e.shutdown, func() { logCloser.Close() })

	stopTelemetry, err := otel.Init(context.Background(), otel.Config{
		ServiceName: "mountbreed-cli",
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     otel.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return err
	}
	e.shutdown = append(e.shutdown, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stopTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	})

	if cfg.StorageBackend != "memory" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// runtimeOptions returns the program identity and the options every runtime
// built from the configuration shares.
func (e *env) runtimeOptions() (crypto.Address, []core.RuntimeOption, error) {
	program, err := e.cfg.Program()
	if err != nil {
		return crypto.Address{}, nil, err
	}
	registry, err := e.cfg.MetadataProgram()
	if err != nil {
		return crypto.Address{}, nil, err
	}
	return program, []core.RuntimeOption{
		core.WithLogger(e.logger),
		core.WithParams(e.cfg.Params()),
		core.WithMetadataProgram(registry),
	}, nil
}

// openRuntime opens the state database for writing and keeps it locked until
// close.
func (e *env) openRuntime() error {
	program, opts, err := e.runtimeOptions()
	if err != nil {
		return err
	}
	db, err := storage.Open(e.cfg.StorageBackend, e.cfg.StatePath())
	if err != nil {
		return err
	}
	rt, err := core.NewRuntime(db, program, append(opts, core.WithEmitter(logEmitter{logger: e.logger}))...)
	if err != nil {
		db.Close()
		return err
	}
	e.rt = rt
	e.shutdown = append(e.shutdown, rt.Close)
	return nil
}

func (e *env) close() {
	for i := len(e.shutdown) - 1; i >= 0; i-- {
		e.shutdown[i]()
	}
}

// signer unlocks the keystore at path; the unlocked key is the identity
// presented to the runtime.
func (e *env) signer(path string) (crypto.Address, error) {
	if strings.TrimSpace(path) == "" {
		return crypto.Address{}, fmt.Errorf("--key is required")
	}
	pass, err := e.passphrase.Get()
	if err != nil {
		return crypto.Address{}, err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("unlock %s: %w", path, err)
	}
	return key.Address(), nil
}

type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	attrs := []any{slog.String("type", evt.EventType())}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok && typed.Event() != nil {
		attrs = append(attrs, slog.Any("attributes", typed.Event().Attributes))
	}
	l.logger.Info("event", attrs...)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer) bool {
	if err := fs.Parse(args); err != nil {
		return false
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return false
	}
	return true
}

func parseAddress(name, value string) (crypto.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return crypto.Address{}, fmt.Errorf("--%s is required", name)
	}
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

// parseAmount accepts plain integers and the 200e9 shorthand.
func parseAmount(name, value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("--%s is required", name)
	}
	mantissa, exponent, hasExp := strings.Cut(strings.ToLower(value), "e")
	base, ok := new(big.Int).SetString(mantissa, 10)
	if !ok || base.Sign() < 0 {
		return 0, fmt.Errorf("--%s must be a non-negative integer", name)
	}
	if hasExp {
		exp, ok := new(big.Int).SetString(exponent, 10)
		if !ok || exp.Sign() < 0 || exp.Cmp(big.NewInt(19)) > 0 {
			return 0, fmt.Errorf("--%s has an invalid exponent", name)
		}
		base.Mul(base, new(big.Int).Exp(big.NewInt(10), exp, nil))
	}
	if !base.IsUint64() {
		return 0, fmt.Errorf("--%s overflows 64 bits", name)
	}
	return base.Uint64(), nil
}

func writeJSON(w io.Writer, v any) int {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return printError(w, err)
	}
	fmt.Fprintln(w, string(encoded))
	return 0
}

func printError(w io.Writer, err error) int {
	code := mountbreed.ErrorCode(err)
	if code == "internal" {
		fmt.Fprintf(w, "Error: %v\n", err)
	} else {
		fmt.Fprintf(w, "Error [%s]: %v\n", code, err)
	}
	return 1
}
