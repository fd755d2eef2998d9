package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mountbreed/native/metadata"
	"mountbreed/native/mountbreed"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, mountbreed.DefaultParams(), cfg.Params())

	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)

	program, err := again.Program()
	require.NoError(t, err)
	require.Equal(t, DefaultProgramID, program)
	registry, err := again.MetadataProgram()
	require.NoError(t, err)
	require.Equal(t, metadata.ProgramID, registry)
}

func TestLoadTOMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `DataDir = "/var/lib/mountbreed"
StorageBackend = "Bolt"
LogLevel = "DEBUG"

[Telemetry]
Traces = true
Headers = "x-tenant=mb"

[MountBreed]
CooldownSeconds = 5
MaxUses = 2
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bolt", cfg.StorageBackend)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, filepath.Join("/var/lib/mountbreed", "state.db"), cfg.StatePath())
	require.True(t, cfg.Telemetry.Traces)
	require.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)

	params := cfg.Params()
	require.Equal(t, int64(5), params.CooldownSeconds)
	require.Equal(t, uint32(2), params.MaxUses)
	require.Equal(t, uint64(2202), params.DepositAmount)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `data_dir: ./data
storage_backend: memory
mountbreed:
  deposit_amount: 10
  payout_amount: 2
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.StorageBackend)
	require.Equal(t, uint64(10), cfg.Params().DepositAmount)
	require.Equal(t, uint64(2), cfg.Params().PayoutAmount)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.toml":  "Bogus = 1\n",
		"backend.toml":  "StorageBackend = \"postgres\"\n",
		"program.toml":  "ProgramID = \"nhb1notours\"\n",
		"params.toml":   "[MountBreed]\nDepositAmount = 1\nPayoutAmount = 2\n",
		"cooldown.yaml": "mountbreed:\n  cooldown_seconds: -1\n",
		"gateway.toml":  "[Gateway]\nBurst = -1\n",
	}
	for name, contents := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		_, err := Load(path)
		require.Error(t, err, name)
	}
}

func TestYAMLDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg, err := Load(path)
	require.NoError(t, err)
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestGatewaySettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `[Gateway]
Listen = ":9000"
AllowedOrigins = ["https://explorer.example"]
AuthEnabled = true
JWTSecretEnv = "TEST_GATEWAY_SECRET"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Gateway.Listen)
	require.Equal(t, float64(600), cfg.Gateway.RequestsPerMinute)
	require.Equal(t, []string{"https://explorer.example"}, cfg.Gateway.AllowedOrigins)

	t.Setenv("TEST_GATEWAY_SECRET", "")
	_, err = cfg.GatewaySecret()
	require.Error(t, err)

	t.Setenv("TEST_GATEWAY_SECRET", " s3cret ")
	secret, err := cfg.GatewaySecret()
	require.NoError(t, err)
	require.Equal(t, "s3cret", secret)

	cfg.Gateway.AuthEnabled = false
	secret, err = cfg.GatewaySecret()
	require.NoError(t, err)
	require.Empty(t, secret)
}
