package metadata

import (
	"strconv"

	"mountbreed/core/types"
	"mountbreed/crypto"
)

const (
	EventTypeMetadataCreated = "metadata.created"
	EventTypeCreatorVerified = "metadata.creator_verified"
)

type metadataEvent struct {
	evt *types.Event
}

func (e metadataEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e metadataEvent) Event() *types.Event { return e.evt }

func newCreatedEvent(addr crypto.Address, md *Metadata) *types.Event {
	return &types.Event{Type: EventTypeMetadataCreated, Attributes: map[string]string{
		"metadata": addr.String(),
		"mint":     md.Mint.String(),
		"name":     md.Name,
		"creators": strconv.Itoa(len(md.Creators)),
	}}
}

func newCreatorVerifiedEvent(addr, mint, creator crypto.Address) *types.Event {
	return &types.Event{Type: EventTypeCreatorVerified, Attributes: map[string]string{
		"metadata": addr.String(),
		"mint":     mint.String(),
		"creator":  creator.String(),
	}}
}
