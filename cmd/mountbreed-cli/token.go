package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"mountbreed/crypto"
)

func runCreateMint(e *env, args []string) int {
	fs := newFlagSet("create-mint", e.stderr)
	keyPath := fs.String("key", "", "keystore of the mint authority")
	address := fs.String("address", "", "mint address (random when omitted)")
	decimals := fs.Uint("decimals", 9, "decimal places; 0 for an NFT mint")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	if *decimals > 255 {
		return printError(e.stderr, fmt.Errorf("--decimals must be at most 255"))
	}
	signer, err := e.signer(*keyPath)
	if err != nil {
		return printError(e.stderr, err)
	}
	addr, err := addressOrRandom("address", *address, "mint")
	if err != nil {
		return printError(e.stderr, err)
	}
	mint, err := e.rt.CreateMint(context.Background(), addr, uint8(*decimals), signer)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, mint)
}

func runCreateAccount(e *env, args []string) int {
	fs := newFlagSet("create-account", e.stderr)
	keyPath := fs.String("key", "", "keystore of the holding owner")
	address := fs.String("address", "", "holding address (random when omitted)")
	mintFlag := fs.String("mint", "", "mint the holding is denominated in")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	mint, err := parseAddress("mint", *mintFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	signer, err := e.signer(*keyPath)
	if err != nil {
		return printError(e.stderr, err)
	}
	addr, err := holdingAddress(*address)
	if err != nil {
		return printError(e.stderr, err)
	}
	acc, err := e.rt.CreateAccount(context.Background(), addr, mint, signer)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, acc)
}

func runMintTo(e *env, args []string) int {
	fs := newFlagSet("mint-to", e.stderr)
	keyPath := fs.String("key", "", "keystore of the mint authority")
	mintFlag := fs.String("mint", "", "mint to issue from")
	to := fs.String("to", "", "destination holding")
	amountFlag := fs.String("amount", "", "base units to issue")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	mint, err := parseAddress("mint", *mintFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	dest, err := parseAddress("to", *to)
	if err != nil {
		return printError(e.stderr, err)
	}
	amount, err := parseAmount("amount", *amountFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	signer, err := e.signer(*keyPath)
	if err != nil {
		return printError(e.stderr, err)
	}
	if err := e.rt.MintTo(context.Background(), mint, dest, amount, signer); err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]string{
		"mint":   mint.String(),
		"to":     dest.String(),
		"amount": strconv.FormatUint(amount, 10),
	})
}

func runTransfer(e *env, args []string) int {
	fs := newFlagSet("transfer", e.stderr)
	keyPath := fs.String("key", "", "keystore of the source owner")
	from := fs.String("from", "", "source holding")
	to := fs.String("to", "", "destination holding")
	amountFlag := fs.String("amount", "", "base units to move")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	src, err := parseAddress("from", *from)
	if err != nil {
		return printError(e.stderr, err)
	}
	dst, err := parseAddress("to", *to)
	if err != nil {
		return printError(e.stderr, err)
	}
	amount, err := parseAmount("amount", *amountFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	signer, err := e.signer(*keyPath)
	if err != nil {
		return printError(e.stderr, err)
	}
	if err := e.rt.Transfer(context.Background(), src, dst, amount, signer); err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]string{
		"from":   src.String(),
		"to":     dst.String(),
		"amount": strconv.FormatUint(amount, 10),
	})
}

// addressOrRandom parses value, or derives a fresh address labelled with
// kind when value is empty.
func addressOrRandom(name, value, kind string) (crypto.Address, error) {
	if value == "" {
		return crypto.AddressFromLabel(kind + "/" + uuid.NewString()), nil
	}
	return parseAddress(name, value)
}

// holdingAddress parses value, or returns the public key of a fresh throwaway
// keypair. Holdings must sit on wallet keys; the ledger refuses derived
// addresses.
func holdingAddress(value string) (crypto.Address, error) {
	if value != "" {
		return parseAddress("address", value)
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return crypto.Address{}, fmt.Errorf("generate holding address: %w", err)
	}
	return key.Address(), nil
}
