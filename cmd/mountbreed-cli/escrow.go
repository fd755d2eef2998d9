package main

import (
	"context"
	"strconv"

	"mountbreed/crypto"
	"mountbreed/native/metadata"
	"mountbreed/native/mountbreed"
)

func runGenesis(e *env, args []string) int {
	fs := newFlagSet("genesis", e.stderr)
	keyPath := fs.String("key", "", "keystore of the depositor")
	deposit := fs.String("deposit-account", "", "depositor holding funding the vault")
	rewardMint := fs.String("reward-mint", "", "mint burned on every redemption")
	creatorA := fs.String("creator-a", "", "first whitelisted creator")
	creatorB := fs.String("creator-b", "", "second whitelisted creator")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	req := mountbreed.GenesisRequest{}
	var err error
	if req.DepositAccount, err = parseAddress("deposit-account", *deposit); err != nil {
		return printError(e.stderr, err)
	}
	if req.RewardMint, err = parseAddress("reward-mint", *rewardMint); err != nil {
		return printError(e.stderr, err)
	}
	if req.CreatorA, err = parseAddress("creator-a", *creatorA); err != nil {
		return printError(e.stderr, err)
	}
	if req.CreatorB, err = parseAddress("creator-b", *creatorB); err != nil {
		return printError(e.stderr, err)
	}
	if req.Depositor, err = e.signer(*keyPath); err != nil {
		return printError(e.stderr, err)
	}
	record, err := e.rt.Genesis(context.Background(), req)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]any{
		"addresses": e.rt.Addresses(),
		"escrow":    record,
	})
}

func runCancel(e *env, args []string) int {
	fs := newFlagSet("cancel", e.stderr)
	keyPath := fs.String("key", "", "keystore of the depositor")
	deposit := fs.String("deposit-account", "", "holding that receives the refund")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	dest, err := parseAddress("deposit-account", *deposit)
	if err != nil {
		return printError(e.stderr, err)
	}
	caller, err := e.signer(*keyPath)
	if err != nil {
		return printError(e.stderr, err)
	}
	refunded, err := e.rt.Cancel(context.Background(), caller, dest)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, map[string]string{
		"refunded":       strconv.FormatUint(refunded, 10),
		"depositAccount": dest.String(),
	})
}

func runInitCooldown(e *env, args []string) int {
	fs := newFlagSet("init-cooldown", e.stderr)
	keyPath := fs.String("key", "", "keystore of the NFT holder")
	mintFlag := fs.String("mint", "", "NFT mint")
	holdingFlag := fs.String("holding", "", "holding that contains the NFT")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	mint, err := parseAddress("mint", *mintFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	holding, err := parseAddress("holding", *holdingFlag)
	if err != nil {
		return printError(e.stderr, err)
	}
	caller, err := e.signer(*keyPath)
	if err != nil {
		return printError(e.stderr, err)
	}
	record, err := e.rt.InitializeCooldown(context.Background(), caller, mint, holding)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, record)
}

func runRedeem(e *env, args []string) int {
	fs := newFlagSet("redeem", e.stderr)
	keyPath := fs.String("key", "", "keystore of the redeemer")
	mintA := fs.String("mint-a", "", "first NFT mint")
	holdingA := fs.String("holding-a", "", "holding of the first NFT")
	metadataA := fs.String("metadata-a", "", "metadata of the first NFT (derived when omitted)")
	mintB := fs.String("mint-b", "", "second NFT mint")
	holdingB := fs.String("holding-b", "", "holding of the second NFT")
	metadataB := fs.String("metadata-b", "", "metadata of the second NFT (derived when omitted)")
	payout := fs.String("payout-account", "", "holding credited with the payout")
	reward := fs.String("reward-account", "", "holding the redemption cost is burned from")
	escrowFlag := fs.String("escrow", "", "escrow record (derived when omitted)")
	if !parseFlags(fs, args, e.stderr) {
		return 1
	}
	registry, err := e.cfg.MetadataProgram()
	if err != nil {
		return printError(e.stderr, err)
	}
	req := mountbreed.RedeemRequest{}
	if req.MountA, err = parseMount("a", *mintA, *holdingA, *metadataA, registry); err != nil {
		return printError(e.stderr, err)
	}
	if req.MountB, err = parseMount("b", *mintB, *holdingB, *metadataB, registry); err != nil {
		return printError(e.stderr, err)
	}
	if req.PayoutAccount, err = parseAddress("payout-account", *payout); err != nil {
		return printError(e.stderr, err)
	}
	if req.RewardAccount, err = parseAddress("reward-account", *reward); err != nil {
		return printError(e.stderr, err)
	}
	if *escrowFlag == "" {
		req.Escrow = e.rt.Addresses().Escrow
	} else if req.Escrow, err = parseAddress("escrow", *escrowFlag); err != nil {
		return printError(e.stderr, err)
	}
	if req.Caller, err = e.signer(*keyPath); err != nil {
		return printError(e.stderr, err)
	}
	result, err := e.rt.Redeem(context.Background(), req)
	if err != nil {
		return printError(e.stderr, err)
	}
	return writeJSON(e.stdout, result)
}

func parseMount(suffix, mintValue, holdingValue, metadataValue string, registry crypto.Address) (mountbreed.MountRef, error) {
	var ref mountbreed.MountRef
	var err error
	if ref.Mint, err = parseAddress("mint-"+suffix, mintValue); err != nil {
		return ref, err
	}
	if ref.Holding, err = parseAddress("holding-"+suffix, holdingValue); err != nil {
		return ref, err
	}
	if metadataValue == "" {
		ref.Metadata, _, err = metadata.DeriveAddress(registry, ref.Mint)
		return ref, err
	}
	ref.Metadata, err = parseAddress("metadata-"+suffix, metadataValue)
	return ref, err
}
