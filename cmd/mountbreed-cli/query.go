package main

import (
	"errors"
	"strconv"

	"mountbreed/native/mountbreed"
)

func runEscrowQuery(e *env, args []string) int {
	fs := newFlagSet("escrow", e.stderr)
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	record, err := e.rt.Escrow()
	if errors.Is(err, mountbreed.ErrEscrowNotFound) {
		return writeJSON(e.stdout, map[string]any{
			"addresses": e.rt.Addresses(),
			"active":    false,
		})
	}
	if err != nil {
		return printError(e.stderr, err)
	}
	balance, err := e.rt.VaultBalance()
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]any{
		"addresses":    e.rt.Addresses(),
		"active":       true,
		"escrow":       record,
		"vaultBalance": strconv.FormatUint(balance, 10),
		"params":       e.rt.Params(),
	})
}

func runCooldownQuery(e *env, args []string) int {
	fs := newFlagSet("cooldown", e.stderr)
	mintFlag := fs.String("mint", "", "NFT mint (lists every record when omitted)")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	if *mintFlag == "" {
		records, err := e.rt.Cooldowns()
		if err != nil {
			return printError(e.stderr, err)
		}
		return writeJSON(e.stdout, records)
	}
	mint, err := parseAddress("mint", *mintFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	record, err := e.rt.Cooldown(mint)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, record)
}

func runAccountQuery(e *env, args []string) int {
	fs := newFlagSet("account", e.stderr)
	addrFlag := fs.String("address", "", "token holding to show")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	addr, err := parseAddress("address", *addrFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	acc, err := e.rt.Account(addr)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, acc)
}

func runAddresses(e *env, args []string) int {
	fs := newFlagSet("addresses", e.stderr)
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	return writeJSON(e.stdout, e.rt.Addresses())
}
