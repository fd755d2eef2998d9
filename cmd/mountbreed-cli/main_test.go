package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mountbreed/gateway/routes"
)

type harness struct {
	t      *testing.T
	dir    string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "mountbreed.toml")
	body := fmt.Sprintf("DataDir = %q\nStorageBackend = \"leveldb\"\nLogLevel = \"error\"\n", filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(config, []byte(body), 0o644))
	t.Setenv(passphraseEnvVar, "correct horse battery staple")
	return &harness{t: t, dir: dir, config: config}
}

func (h *harness) exec(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", h.config}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (h *harness) ok(args ...string) map[string]any {
	h.t.Helper()
	code, stdout, stderr := h.exec(args...)
	require.Equalf(h.t, 0, code, "%s failed: %s", args[0], stderr)
	var out map[string]any
	require.NoError(h.t, json.Unmarshal([]byte(stdout), &out))
	return out
}

func (h *harness) keygen(name string) (string, string) {
	h.t.Helper()
	path := filepath.Join(h.dir, "keys", name+".json")
	out := h.ok("keygen", "--out", path, "--light")
	return path, out["address"].(string)
}

func (h *harness) mint(key string, decimals int) string {
	h.t.Helper()
	out := h.ok("create-mint", "--key", key, "--decimals", fmt.Sprint(decimals))
	return out["Address"].(string)
}

func (h *harness) holding(key, mint string) string {
	h.t.Helper()
	out := h.ok("create-account", "--key", key, "--mint", mint)
	return out["Address"].(string)
}

func TestRunWithoutCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Usage: mountbreed-cli")

	stderr.Reset()
	require.Equal(t, 1, run([]string{"launch"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Unknown command: launch")
}

func TestParseAmount(t *testing.T) {
	cases := map[string]uint64{
		"0":     0,
		"2202":  2202,
		"200e9": 200_000_000_000,
		"1E3":   1000,
	}
	for input, want := range cases {
		got, err := parseAmount("amount", input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
	for _, input := range []string{"", "-1", "1.5", "1e-2", "1e20", "abc"} {
		_, err := parseAmount("amount", input)
		require.Error(t, err, input)
	}
}

func TestCreatorFlag(t *testing.T) {
	var creators creatorList
	_, addr := newHarness(t).keygen("creator")
	require.NoError(t, creators.Set(addr+":100"))
	require.Len(t, creators, 1)
	require.EqualValues(t, 100, creators[0].Share)
	require.Error(t, creators.Set(addr))
	require.Error(t, creators.Set(addr+":300"))
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	h := newHarness(t)
	path, _ := h.keygen("dup")
	code, _, stderr := h.exec("keygen", "--out", path, "--light")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "already exists")
}

func TestRedeemLifecycle(t *testing.T) {
	h := newHarness(t)
	depositorKey, _ := h.keygen("depositor")
	creatorKey, creator := h.keygen("creator")
	userKey, _ := h.keygen("user")
	_, other := h.keygen("other")

	vaultMint := h.mint(depositorKey, 0)
	depositAccount := h.holding(depositorKey, vaultMint)
	h.ok("mint-to", "--key", depositorKey, "--mint", vaultMint, "--to", depositAccount, "--amount", "2202")

	rewardMint := h.mint(depositorKey, 9)
	rewardAccount := h.holding(userKey, rewardMint)
	h.ok("mint-to", "--key", depositorKey, "--mint", rewardMint, "--to", rewardAccount, "--amount", "400e9")

	mounts := make([][2]string, 2)
	for i := range mounts {
		nft := h.mint(creatorKey, 0)
		held := h.holding(userKey, nft)
		h.ok("mint-to", "--key", creatorKey, "--mint", nft, "--to", held, "--amount", "1")
		h.ok("create-metadata", "--key", creatorKey, "--mint", nft, "--name", fmt.Sprintf("Mount #%d", i), "--creator", creator+":100")
		mounts[i] = [2]string{nft, held}
	}

	vault := h.ok("addresses")["Vault"].(string)
	code, _, stderr := h.exec("create-account", "--key", userKey, "--mint", vaultMint, "--address", vault)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "[program_address]")

	code, _, stderr = h.exec("genesis", "--key", userKey,
		"--deposit-account", depositAccount, "--reward-mint", rewardMint,
		"--creator-a", creator, "--creator-b", other)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "[unauthorized]")

	h.ok("genesis", "--key", depositorKey,
		"--deposit-account", depositAccount, "--reward-mint", rewardMint,
		"--creator-a", creator, "--creator-b", other)

	escrow := h.ok("escrow")
	require.Equal(t, true, escrow["active"])
	require.Equal(t, "2202", escrow["vaultBalance"])

	for _, m := range mounts {
		h.ok("init-cooldown", "--key", userKey, "--mint", m[0], "--holding", m[1])
	}
	payoutAccount := h.holding(userKey, vaultMint)

	redeemArgs := []string{"redeem", "--key", userKey,
		"--mint-a", mounts[0][0], "--holding-a", mounts[0][1],
		"--mint-b", mounts[1][0], "--holding-b", mounts[1][1],
		"--payout-account", payoutAccount, "--reward-account", rewardAccount}
	result := h.ok(redeemArgs...)
	require.EqualValues(t, 1, result["Payout"])
	require.EqualValues(t, 200_000_000_000, result["Burned"])

	code, _, stderr = h.exec(redeemArgs...)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "[cooldown_not_elapsed]")

	payout := h.ok("account", "--address", payoutAccount)
	require.EqualValues(t, 1, payout["Amount"])
	reward := h.ok("account", "--address", rewardAccount)
	require.EqualValues(t, 200_000_000_000, reward["Amount"])

	cooldown := h.ok("cooldown", "--mint", mounts[0][0])
	require.EqualValues(t, 1, cooldown["UsageCount"])
	require.Equal(t, true, cooldown["HasRedeemed"])

	var listed []map[string]any
	code, stdout, _ := h.exec("cooldown")
	require.Equal(t, 0, code)
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 2)

	cancelled := h.ok("cancel", "--key", depositorKey, "--deposit-account", depositAccount)
	require.Equal(t, "2201", cancelled["refunded"])
	require.Equal(t, false, h.ok("escrow")["active"])
}

func TestErrorsCarryCode(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.exec("cooldown", "--mint", strings.Repeat("x", 3))
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Error")

	code, _, stderr = h.exec("escrow", "extra")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "unexpected positional arguments")
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGatewayFollowsCLIWrites(t *testing.T) {
	h := newHarness(t)
	e := &env{stdout: io.Discard, stderr: io.Discard}
	require.NoError(t, e.load(h.config))
	defer e.close()
	snapshots, err := e.snapshots()
	require.NoError(t, err)
	srv := httptest.NewServer(routes.New(routes.Config{Queryer: snapshots, Logger: e.logger}))
	defer srv.Close()

	require.Equal(t, false, getJSON(t, srv.URL+"/v1/mountbreed/escrow")["active"])

	depositorKey, _ := h.keygen("depositor")
	vaultMint := h.mint(depositorKey, 0)
	depositAccount := h.holding(depositorKey, vaultMint)
	h.ok("mint-to", "--key", depositorKey, "--mint", vaultMint, "--to", depositAccount, "--amount", "2202")

	acc := getJSON(t, srv.URL+"/v1/mountbreed/accounts/"+depositAccount)
	require.EqualValues(t, 2202, acc["Amount"])

	h.ok("mint-to", "--key", depositorKey, "--mint", vaultMint, "--to", depositAccount, "--amount", "1")
	acc = getJSON(t, srv.URL+"/v1/mountbreed/accounts/"+depositAccount)
	require.EqualValues(t, 2203, acc["Amount"])
}

func TestServeRejectsMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "mountbreed.toml")
	require.NoError(t, os.WriteFile(config, []byte("StorageBackend = \"memory\"\nLogLevel = \"error\"\n"), 0o644))
	e := &env{stdout: io.Discard, stderr: io.Discard}
	require.NoError(t, e.load(config))
	defer e.close()
	_, err := e.snapshots()
	require.ErrorContains(t, err, "persistent storage backend")
}
