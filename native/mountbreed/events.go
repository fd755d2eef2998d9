package mountbreed

import (
	"strconv"

	"mountbreed/core/types"
	"mountbreed/crypto"
)

const (
	EventTypeGenesis             = "mountbreed.genesis"
	EventTypeCancelled           = "mountbreed.cancelled"
	EventTypeCooldownInitialized = "mountbreed.cooldown_initialized"
	EventTypeRedeemed            = "mountbreed.redeemed"
)

type mountbreedEvent struct {
	evt *types.Event
}

func (e mountbreedEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e mountbreedEvent) Event() *types.Event { return e.evt }

func newGenesisEvent(escrow crypto.Address, rec *EscrowRecord, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeGenesis,
		Attributes: map[string]string{
			"escrow":     escrow.String(),
			"depositor":  rec.Depositor.String(),
			"vaultMint":  rec.VaultMint.String(),
			"rewardMint": rec.RewardMint.String(),
			"creatorA":   rec.CreatorA.String(),
			"creatorB":   rec.CreatorB.String(),
			"amount":     strconv.FormatUint(amount, 10),
		},
	}
}

func newCancelledEvent(escrow, depositor crypto.Address, refunded uint64) *types.Event {
	return &types.Event{
		Type: EventTypeCancelled,
		Attributes: map[string]string{
			"escrow":    escrow.String(),
			"depositor": depositor.String(),
			"refunded":  strconv.FormatUint(refunded, 10),
		},
	}
}

func newCooldownInitializedEvent(addr, mint, caller crypto.Address) *types.Event {
	return &types.Event{
		Type: EventTypeCooldownInitialized,
		Attributes: map[string]string{
			"cooldown": addr.String(),
			"mint":     mint.String(),
			"caller":   caller.String(),
		},
	}
}

func newRedeemedEvent(req RedeemRequest, out *Redemption) *types.Event {
	return &types.Event{
		Type: EventTypeRedeemed,
		Attributes: map[string]string{
			"caller":     req.Caller.String(),
			"mintA":      req.MountA.Mint.String(),
			"mintB":      req.MountB.Mint.String(),
			"payout":     strconv.FormatUint(out.Payout, 10),
			"burned":     strconv.FormatUint(out.Burned, 10),
			"usageA":     strconv.FormatUint(uint64(out.CooldownA.UsageCount), 10),
			"usageB":     strconv.FormatUint(uint64(out.CooldownB.UsageCount), 10),
			"redeemedAt": strconv.FormatInt(out.RedeemedAt, 10),
		},
	}
}
