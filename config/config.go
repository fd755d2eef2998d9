package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"mountbreed/crypto"
	"mountbreed/native/metadata"
	"mountbreed/native/mountbreed"
)

// DefaultProgramID is the program identity used when none is configured.
var DefaultProgramID = crypto.AddressFromLabel("mountbreed/program")

// Config holds the settings for a mount-breed host.
type Config struct {
	DataDir           string          `toml:"DataDir" yaml:"data_dir"`
	StorageBackend    string          `toml:"StorageBackend" yaml:"storage_backend"`
	KeystoreDir       string          `toml:"KeystoreDir" yaml:"keystore_dir"`
	Env               string          `toml:"Env" yaml:"env"`
	LogLevel          string          `toml:"LogLevel" yaml:"log_level"`
	LogFile           string          `toml:"LogFile" yaml:"log_file"`
	ProgramID         string          `toml:"ProgramID" yaml:"program_id"`
	MetadataProgramID string          `toml:"MetadataProgramID" yaml:"metadata_program_id"`
	Telemetry         TelemetryConfig `toml:"Telemetry" yaml:"telemetry"`
	Gateway           GatewayConfig   `toml:"Gateway" yaml:"gateway"`
	MountBreed        ParamsConfig    `toml:"MountBreed" yaml:"mountbreed"`
}

// GatewayConfig controls the read-only HTTP query gateway.
type GatewayConfig struct {
	Listen            string   `toml:"Listen" yaml:"listen"`
	RequestsPerMinute float64  `toml:"RequestsPerMinute" yaml:"requests_per_minute"`
	Burst             int      `toml:"Burst" yaml:"burst"`
	AllowedOrigins    []string `toml:"AllowedOrigins" yaml:"allowed_origins"`
	LogRequests       bool     `toml:"LogRequests" yaml:"log_requests"`
	// AuthEnabled requires HS256 bearer tokens carrying the mountbreed:read
	// scope. The secret is read from the environment variable JWTSecretEnv.
	AuthEnabled  bool   `toml:"AuthEnabled" yaml:"auth_enabled"`
	JWTSecretEnv string `toml:"JWTSecretEnv" yaml:"jwt_secret_env"`
	JWTIssuer    string `toml:"JWTIssuer" yaml:"jwt_issuer"`
	JWTAudience  string `toml:"JWTAudience" yaml:"jwt_audience"`
}

// TelemetryConfig controls the OTLP trace exporter.
type TelemetryConfig struct {
	Traces   bool   `toml:"Traces" yaml:"traces"`
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Headers  string `toml:"Headers" yaml:"headers"`
}

// ParamsConfig mirrors mountbreed.Params. Zero fields fall back to the
// protocol defaults.
type ParamsConfig struct {
	DepositAmount   uint64 `toml:"DepositAmount" yaml:"deposit_amount"`
	CooldownSeconds int64  `toml:"CooldownSeconds" yaml:"cooldown_seconds"`
	MaxUses         uint32 `toml:"MaxUses" yaml:"max_uses"`
	RedemptionCost  uint64 `toml:"RedemptionCost" yaml:"redemption_cost"`
	PayoutAmount    uint64 `toml:"PayoutAmount" yaml:"payout_amount"`
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	defaults := mountbreed.DefaultParams()
	return &Config{
		DataDir:           "./mountbreed-data",
		StorageBackend:    "leveldb",
		KeystoreDir:       "./keys",
		Env:               "local",
		LogLevel:          "info",
		ProgramID:         DefaultProgramID.String(),
		MetadataProgramID: metadata.ProgramID.String(),
		Telemetry:         TelemetryConfig{Endpoint: "localhost:4318"},
		Gateway: GatewayConfig{
			Listen:            "127.0.0.1:8480",
			RequestsPerMinute: 600,
			Burst:             60,
			JWTSecretEnv:      "MOUNTBREED_GATEWAY_SECRET",
		},
		MountBreed: ParamsConfig{
			DepositAmount:   defaults.DepositAmount,
			CooldownSeconds: defaults.CooldownSeconds,
			MaxUses:         defaults.MaxUses,
			RedemptionCost:  defaults.RedemptionCost,
			PayoutAmount:    defaults.PayoutAmount,
		},
	}
}

// Load loads the configuration from the given path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as TOML. A missing file is created
// with defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := persist(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: unknown field %s in %s", undecoded[0], path)
		}
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	defaults := Default()
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if c.StorageBackend == "" {
		c.StorageBackend = defaults.StorageBackend
	}
	c.KeystoreDir = strings.TrimSpace(c.KeystoreDir)
	if c.KeystoreDir == "" {
		c.KeystoreDir = defaults.KeystoreDir
	}
	c.Env = strings.TrimSpace(c.Env)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	c.LogFile = strings.TrimSpace(c.LogFile)
	c.ProgramID = strings.TrimSpace(c.ProgramID)
	if c.ProgramID == "" {
		c.ProgramID = defaults.ProgramID
	}
	c.MetadataProgramID = strings.TrimSpace(c.MetadataProgramID)
	if c.MetadataProgramID == "" {
		c.MetadataProgramID = defaults.MetadataProgramID
	}
	c.Telemetry.Endpoint = strings.TrimSpace(c.Telemetry.Endpoint)
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = defaults.Telemetry.Endpoint
	}

	g := &c.Gateway
	g.Listen = strings.TrimSpace(g.Listen)
	if g.Listen == "" {
		g.Listen = defaults.Gateway.Listen
	}
	if g.RequestsPerMinute == 0 {
		g.RequestsPerMinute = defaults.Gateway.RequestsPerMinute
	}
	if g.Burst == 0 {
		g.Burst = defaults.Gateway.Burst
	}
	if len(g.AllowedOrigins) == 0 {
		g.AllowedOrigins = nil
	}
	g.JWTSecretEnv = strings.TrimSpace(g.JWTSecretEnv)
	if g.JWTSecretEnv == "" {
		g.JWTSecretEnv = defaults.Gateway.JWTSecretEnv
	}

	p := &c.MountBreed
	if p.DepositAmount == 0 {
		p.DepositAmount = defaults.MountBreed.DepositAmount
	}
	if p.CooldownSeconds == 0 {
		p.CooldownSeconds = defaults.MountBreed.CooldownSeconds
	}
	if p.MaxUses == 0 {
		p.MaxUses = defaults.MountBreed.MaxUses
	}
	if p.RedemptionCost == 0 {
		p.RedemptionCost = defaults.MountBreed.RedemptionCost
	}
	if p.PayoutAmount == 0 {
		p.PayoutAmount = defaults.MountBreed.PayoutAmount
	}
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("config: unsupported StorageBackend %q", c.StorageBackend)
	}
	if c.Gateway.RequestsPerMinute < 0 || c.Gateway.Burst < 0 {
		return fmt.Errorf("config: Gateway rate limits must not be negative")
	}
	if _, err := c.Program(); err != nil {
		return err
	}
	if _, err := c.MetadataProgram(); err != nil {
		return err
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Program decodes the configured program identity.
func (c *Config) Program() (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(c.ProgramID)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("config: invalid ProgramID: %w", err)
	}
	return addr, nil
}

// MetadataProgram decodes the configured metadata registry identity.
func (c *Config) MetadataProgram() (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(c.MetadataProgramID)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("config: invalid MetadataProgramID: %w", err)
	}
	return addr, nil
}

// Params builds the protocol parameters from the configuration.
func (c *Config) Params() mountbreed.Params {
	return mountbreed.Params{
		DepositAmount:   c.MountBreed.DepositAmount,
		CooldownSeconds: c.MountBreed.CooldownSeconds,
		MaxUses:         c.MountBreed.MaxUses,
		RedemptionCost:  c.MountBreed.RedemptionCost,
		PayoutAmount:    c.MountBreed.PayoutAmount,
	}
}

// GatewaySecret returns the bearer token secret from the environment.
func (c *Config) GatewaySecret() (string, error) {
	if !c.Gateway.AuthEnabled {
		return "", nil
	}
	secret := strings.TrimSpace(os.Getenv(c.Gateway.JWTSecretEnv))
	if secret == "" {
		return "", fmt.Errorf("config: Gateway.AuthEnabled requires %s", c.Gateway.JWTSecretEnv)
	}
	return secret, nil
}

// StatePath returns the location of the state database inside DataDir.
func (c *Config) StatePath() string {
	if c.StorageBackend == "bolt" {
		return filepath.Join(c.DataDir, "state.db")
	}
	return filepath.Join(c.DataDir, "state")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}
