package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
)

type keyFile struct {
	Address string              `json:"address"`
	Crypto  keystore.CryptoJSON `json:"crypto"`
	Version int                 `json:"version"`
}

const keyFileVersion = 1

// SaveToKeystore encrypts the ed25519 private key with the passphrase using the
// scrypt/AES-CTR scheme of Ethereum v3 keystores and writes it to path.
// If the parent directory does not exist it will be created with 0700 permissions.
func SaveToKeystore(path string, key *PrivateKey, passphrase string) error {
	return saveToKeystore(path, key, passphrase, keystore.StandardScryptN, keystore.StandardScryptP)
}

// SaveToKeystoreLight is SaveToKeystore with the light scrypt profile. It
// trades brute-force resistance for speed and suits throwaway keys.
func SaveToKeystoreLight(path string, key *PrivateKey, passphrase string) error {
	return saveToKeystore(path, key, passphrase, keystore.LightScryptN, keystore.LightScryptP)
}

func saveToKeystore(path string, key *PrivateKey, passphrase string, scryptN, scryptP int) error {
	if key == nil {
		return errors.New("crypto: nil private key")
	}
	if path == "" {
		return errors.New("crypto: empty keystore path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	cj, err := keystore.EncryptDataV3(key.Bytes(), []byte(passphrase), scryptN, scryptP)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(keyFile{
		Address: key.Address().String(),
		Crypto:  cj,
		Version: keyFileVersion,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "keystore-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFromKeystore decrypts a keystore file using the supplied passphrase.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("crypto: decode keystore: %w", err)
	}
	if kf.Version != keyFileVersion {
		return nil, fmt.Errorf("crypto: unsupported keystore version %d", kf.Version)
	}

	decrypted, err := keystore.DecryptDataV3(kf.Crypto, passphrase)
	if err != nil {
		return nil, err
	}
	key, err := PrivateKeyFromBytes(decrypted)
	if err != nil {
		return nil, err
	}
	if key.Address().String() != kf.Address {
		return nil, errors.New("crypto: keystore address mismatch")
	}
	return key, nil
}
