package token

import (
	"strconv"

	"mountbreed/core/types"
	"mountbreed/crypto"
)

const (
	EventTypeMintCreated      = "token.mint_created"
	EventTypeAccountCreated   = "token.account_created"
	EventTypeMinted           = "token.minted"
	EventTypeTransfer         = "token.transfer"
	EventTypeBurn             = "token.burn"
	EventTypeAuthorityChanged = "token.authority_changed"
	EventTypeAccountClosed    = "token.account_closed"
)

type tokenEvent struct {
	evt *types.Event
}

func (e tokenEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e tokenEvent) Event() *types.Event { return e.evt }

func newEvent(eventType string, attrs map[string]string) *types.Event {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}

func amountAttr(v uint64) string { return strconv.FormatUint(v, 10) }

func addrAttr(a crypto.Address) string { return a.String() }
