// Package satori defines the canonical Satori chat-protocol data model:
// bots, events, the wire signal codec, and the API-call envelopes that
// cross the SDK/App boundary.
package satori

import "encoding/json"

// BotId identifies a single bot identity an SDK can act as. Two BotIds are
// equal iff both fields match byte-for-byte, which makes it a valid map
// key for bot-ownership lookups.
type BotId struct {
	Platform string `json:"platform"`
	ID       string `json:"id"`
}

// ChannelType is a closed, integer-tagged channel kind.
type ChannelType int

const (
	ChannelText ChannelType = iota
	ChannelVoice
	ChannelCategory
	ChannelDirect
)

// Channel describes a conversation channel within a guild or a direct
// message channel.
type Channel struct {
	ID       string       `json:"id"`
	Name     *string      `json:"name,omitempty"`
	Type     *ChannelType `json:"type,omitempty"`
	ParentID *string      `json:"parent_id,omitempty"`
}

// Guild describes a server/guild the bot belongs to.
type Guild struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Status is a login's connectivity state.
type Status int

const (
	StatusOffline Status = iota
	StatusOnline
	StatusConnect
	StatusDisconnect
	StatusReconnect
)

// Login describes one bot identity known to an SDK.
type Login struct {
	User     *User   `json:"user,omitempty"`
	SelfID   *string `json:"self_id,omitempty"`
	Platform *string `json:"platform,omitempty"`
	Status   Status  `json:"status"`
}

// User describes a chat platform user.
type User struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Nick   *string `json:"nick,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	IsBot  *bool   `json:"is_bot,omitempty"`
}

// GuildMember describes a user's membership in a guild.
type GuildMember struct {
	User     *User   `json:"user,omitempty"`
	Nick     *string `json:"nick,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	JoinedAt *int64  `json:"joined_at,omitempty"`
}

// GuildRole describes a guild role.
type GuildRole struct {
	ID   *string `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

// Message is the domain message entity carried on an Event or returned by
// a message.create call.
type Message struct {
	ID        string  `json:"id"`
	Content   *string `json:"content,omitempty"`
	Channel   *Channel `json:"channel,omitempty"`
	Guild     *Guild   `json:"guild,omitempty"`
	Member    *GuildMember `json:"member,omitempty"`
	User      *User    `json:"user,omitempty"`
	CreatedAt *int64   `json:"created_at,omitempty"`
	UpdatedAt *int64   `json:"updated_at,omitempty"`
}

// Page is a paginated list result, e.g. for future list-style typed API
// calls (channel listing, member listing). Kept from original_source's
// Pagination<T> even though the distilled spec never names it, since it
// costs nothing and every list endpoint in a complete Satori deployment
// needs it.
type Page[T any] struct {
	Data []T    `json:"data"`
	Next string `json:"next"`
}

// eventWire is the on-the-wire shape of Event: all fixed fields plus
// whatever extra keys the platform attached. It exists purely to drive
// Event's custom (Un)MarshalJSON, which is how Go expresses serde's
// #[serde(flatten)] for the open `extra` map.
type eventWire struct {
	ID        int64        `json:"id"`
	Type      string       `json:"type"`
	Platform  string       `json:"platform"`
	SelfID    string       `json:"self_id"`
	Timestamp int64        `json:"timestamp"`
	Channel   *Channel     `json:"channel,omitempty"`
	Guild     *Guild       `json:"guild,omitempty"`
	Login     *Login       `json:"login,omitempty"`
	Message   *Message     `json:"message,omitempty"`
	Member    *GuildMember `json:"member,omitempty"`
	Operator  *User        `json:"operator,omitempty"`
	Role      *GuildRole   `json:"role,omitempty"`
	User      *User        `json:"user,omitempty"`
}

var eventWireKeys = map[string]struct{}{
	"id": {}, "type": {}, "platform": {}, "self_id": {}, "timestamp": {},
	"channel": {}, "guild": {}, "login": {}, "message": {}, "member": {},
	"operator": {}, "role": {}, "user": {},
}

// Event is a single Satori event delivered SDK -> core -> App.
type Event struct {
	ID        int64
	Type      string
	Platform  string
	SelfID    string
	Timestamp int64
	Channel   *Channel
	Guild     *Guild
	Login     *Login
	Message   *Message
	Member    *GuildMember
	Operator  *User
	Role      *GuildRole
	User      *User
	// Extra holds any additional platform-specific fields round-tripped
	// verbatim, the Go equivalent of serde's #[serde(flatten)] map.
	Extra map[string]json.RawMessage
}

// Clone returns a deep-enough copy of e suitable for independent delivery
// to concurrent App fan-out (spec §4.2: "clone event and deliver to every
// App"). Pointer fields are not mutated by any handler in this module, so
// a shallow struct copy plus a copied Extra map is sufficient.
func (e Event) Clone() Event {
	clone := e
	if e.Extra != nil {
		clone.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			clone.Extra[k] = v
		}
	}
	return clone
}

// MarshalJSON flattens Extra alongside the fixed fields.
func (e Event) MarshalJSON() ([]byte, error) {
	wire := eventWire{
		ID: e.ID, Type: e.Type, Platform: e.Platform, SelfID: e.SelfID,
		Timestamp: e.Timestamp, Channel: e.Channel, Guild: e.Guild,
		Login: e.Login, Message: e.Message, Member: e.Member,
		Operator: e.Operator, Role: e.Role, User: e.User,
	}
	base, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return base, nil
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reconstructs Event, preserving unknown keys in Extra.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if _, known := eventWireKeys[k]; known {
			continue
		}
		extra[k] = v
	}

	*e = Event{
		ID: wire.ID, Type: wire.Type, Platform: wire.Platform, SelfID: wire.SelfID,
		Timestamp: wire.Timestamp, Channel: wire.Channel, Guild: wire.Guild,
		Login: wire.Login, Message: wire.Message, Member: wire.Member,
		Operator: wire.Operator, Role: wire.Role, User: wire.User,
		Extra: extra,
	}
	return nil
}
