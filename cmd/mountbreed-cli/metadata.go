package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mountbreed/crypto"
	"mountbreed/native/metadata"
)

// creatorList collects repeated --creator address:share flags.
type creatorList []metadata.Creator

func (c *creatorList) String() string {
	parts := make([]string, 0, len(*c))
	for _, creator := range *c {
		parts = append(parts, fmt.Sprintf("%s:%d", creator.Address, creator.Share))
	}
	return strings.Join(parts, ",")
}

func (c *creatorList) Set(value string) error {
	addrPart, sharePart, ok := strings.Cut(value, ":")
	if !ok {
		return fmt.Errorf("creator must be address:share")
	}
	addr, err := parseAddress("creator", addrPart)
	if err != nil {
		return err
	}
	share, err := strconv.ParseUint(strings.TrimSpace(sharePart), 10, 8)
	if err != nil {
		return fmt.Errorf("creator share: %w", err)
	}
	*c = append(*c, metadata.Creator{Address: addr, Share: uint8(share)})
	return nil
}

func runCreateMetadata(e *env, args []string) int {
	fs := newFlagSet("create-metadata", e.stderr)
	keyPath := fs.String("key", "", "keystore of the mint authority")
	mintFlag := fs.String("mint", "", "NFT mint described by the record")
	name := fs.String("name", "", "display name")
	symbol := fs.String("symbol", "", "ticker symbol")
	uri := fs.String("uri", "", "off-chain JSON location")
	var creators creatorList
	fs.Var(&creators, "creator", "creator as address:share (repeatable)")
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
	md := &metadata.Metadata{
		Mint:     mint,
		Name:     *name,
		Symbol:   *symbol,
		URI:      *uri,
		Creators: creators,
	}
	if _, err := e.rt.CreateMetadata(context.Background(), md, signer); err != nil {
		return printError(e.stderr, err)
	}
	return printMetadata(e, mint)
}

func runSignMetadata(e *env, args []string) int {
	fs := newFlagSet("sign-metadata", e.stderr)
	keyPath := fs.String("key", "", "keystore of the listed creator")
	mintFlag := fs.String("mint", "", "NFT mint whose record to sign")
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
	if err := e.rt.SignMetadata(context.Background(), mint, signer); err != nil {
		return printError(e.stderr, err)
	}
	return printMetadata(e, mint)
}

func runMetadataQuery(e *env, args []string) int {
	fs := newFlagSet("metadata", e.stderr)
	mintFlag := fs.String("mint", "", "NFT mint to look up")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	mint, err := parseAddress("mint", *mintFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	return printMetadata(e, mint)
}

func printMetadata(e *env, mint crypto.Address) int {
	md, addr, err := e.rt.Metadata(mint)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]any{
		"address":  addr,
		"metadata": md,
	})
}
