// Package bus defines the canonical records exchanged between the platform
// adapter and the reaction engine. The adapter decodes wire events; everything
// downstream works on these shapes only.
package bus

// ReactionEvent is the normalized form of a "reaction added/removed" notice.
// NapCat emits two distinct wire shapes for the same semantic event; both are
// collapsed into this record before any filtering or routing runs.
type ReactionEvent struct {
	ActorUserID string
	GroupID     string
	MessageID   string
	ReactionID  *int // nil when the notice carried no parseable reaction id
	IsAdd       bool // true = added, false = removed
}

// OutboundNotice is a forwarded reaction summary: a text part, optionally
// followed by a single face (reaction marker) part so the destination client
// renders the original emoji.
type OutboundNotice struct {
	Destination string // full session id, e.g. "napcat:GroupMessage:12345678"
	Text        string
	ReactionID  *int
}
