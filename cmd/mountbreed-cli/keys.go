package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mountbreed/crypto"
)

func runKeygen(e *env, args []string) int {
	fs := newFlagSet("keygen", e.stderr)
	out := fs.String("out", "", "keystore file to write")
	light := fs.Bool("light", false, "use light scrypt parameters (testing only)")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	path := strings.TrimSpace(*out)
	if path == "" {
		return printError(e.stderr, fmt.Errorf("--out is required"))
	}
	if _, err := os.Stat(path); err == nil {
		return printError(e.stderr, fmt.Errorf("%s already exists", path))
	}
	pass, err := e.passphrase.Choose()
	if err != nil {
		return printError(e.stderr, err)
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(e.stderr, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return printError(e.stderr, err)
		}
	}
	save := crypto.SaveToKeystore
	if *light {
		save = crypto.SaveToKeystoreLight
	}
	if err := save(path, key, pass); err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]any{
		"address":  key.Address(),
		"keystore": path,
	})
}
