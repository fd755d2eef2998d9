package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressLength is the size in bytes of every identity tracked by the
// protocol: wallets, mints, token accounts, program accounts and programs.
const AddressLength = 32

// AddressPrefix is the human-readable part used for bech32 encoded addresses.
const AddressPrefix = "mb"

// Address represents a 32-byte identity. Wallet addresses are ed25519 public
// keys while derived program addresses are guaranteed to lie off the curve.
type Address [AddressLength]byte

// BytesToAddress converts a raw byte slice into an Address.
func BytesToAddress(b []byte) (Address, error) {
	var addr Address
	if len(b) != AddressLength {
		return addr, fmt.Errorf("address must be %d bytes long, got %d", AddressLength, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// AddressFromLabel returns the keccak256 hash of the label interpreted as an
// address. It is used for well-known program identities.
func AddressFromLabel(label string) Address {
	var addr Address
	copy(addr[:], crypto.Keccak256([]byte(label)))
	return addr
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(AddressPrefix, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// MarshalText encodes the address in bech32 form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a bech32 address.
func (a *Address) UnmarshalText(text []byte) error {
	decoded, err := DecodeAddress(string(text))
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// IsZero reports whether the address is the all-zero identity.
func (a Address) IsZero() bool {
	return a == Address{}
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != AddressPrefix {
		return Address{}, fmt.Errorf("unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return BytesToAddress(conv)
}

// --- Key Management ---

type PrivateKey struct {
	key ed25519.PrivateKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// Bytes returns the 64-byte ed25519 private key encoding.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

// Address returns the wallet address, which is the ed25519 public key.
func (k *PrivateKey) Address() Address {
	var addr Address
	copy(addr[:], k.key.Public().(ed25519.PublicKey))
	return addr
}

// Sign signs the message with the ed25519 key.
func (k *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.key, msg)
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes long, got %d", ed25519.PrivateKeySize, len(b))
	}
	return &PrivateKey{key: append(ed25519.PrivateKey(nil), b...)}, nil
}

// Verify reports whether sig is a valid signature of msg by the wallet
// address.
func Verify(addr Address, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(addr[:]), msg, sig)
}
