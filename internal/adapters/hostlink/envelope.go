package hostlink

import "github.com/okian/ranks/internal/domain/rewards"

// Envelope ops.
const (
	OpMessage     = "message"
	OpBroadcast   = "broadcast"
	OpTitle       = "title"
	OpNameTag     = "name_tag"
	OpGrantItem   = "grant_item"
	OpApplyEffect = "apply_effect"
)

// Envelope is one outbound call to the host.
type Envelope struct {
	Seq      uint64         `json:"seq"`
	Op       string         `json:"op"`
	PlayerID string         `json:"player_id,omitempty"`
	Text     string         `json:"text,omitempty"`
	Title    string         `json:"title,omitempty"`
	Subtitle string         `json:"subtitle,omitempty"`
	Tag      string         `json:"tag,omitempty"`
	Item     *ItemPayload   `json:"item,omitempty"`
	Effect   *EffectPayload `json:"effect,omitempty"`
}

// ItemPayload is an item grant on the wire.
type ItemPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// EffectPayload is an effect grant on the wire. A zero duration is permanent.
type EffectPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationSeconds int    `json:"duration_seconds"`
	Amplifier       int    `json:"amplifier"`
}

func itemPayload(it rewards.Item) *ItemPayload {
	return &ItemPayload{ID: it.ID, Name: it.Name, Amount: it.Amount}
}

func effectPayload(ef rewards.Effect) *EffectPayload {
	p := &EffectPayload{ID: ef.ID, Name: ef.Name, Amplifier: ef.Amplifier}
	if !ef.Permanent() {
		p.DurationSeconds = int(ef.Duration.Seconds())
	}
	return p
}
