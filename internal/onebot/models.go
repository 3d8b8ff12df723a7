// Package onebot is the NapCat / OneBot v11 WebSocket adapter: it decodes the
// event stream and exposes the handful of API actions the bot needs
// (set_msg_emoji_like, metadata fetches, group message delivery).
package onebot

import (
	"encoding/json"
	"strconv"
)

// FlexID decodes a JSON string or number into a string. NapCat is
// inconsistent about whether ids (user, group, message, emoji) arrive quoted.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// Int parses the id as an integer. ok is false for empty or non-numeric ids.
func (f FlexID) Int() (int, bool) {
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Event is the raw OneBot v11 event envelope. Only the fields the bot
// consumes are decoded; unknown events keep post_type and are ignored
// upstream.
type Event struct {
	Time     int64  `json:"time"`
	SelfID   FlexID `json:"self_id"`
	PostType string `json:"post_type"` // "message", "notice", "meta_event", ...

	// message events
	MessageType string    `json:"message_type,omitempty"` // "group", "private"
	MessageID   FlexID    `json:"message_id,omitempty"`
	UserID      FlexID    `json:"user_id,omitempty"`
	GroupID     FlexID    `json:"group_id,omitempty"`
	Message     []Segment `json:"message,omitempty"`

	// notice events
	NoticeType string `json:"notice_type,omitempty"` // "notify", "group_msg_emoji_like", ...
	SubType    string `json:"sub_type,omitempty"`    // "emoji_like" under "notify"
	EmojiID    FlexID `json:"emoji_id,omitempty"`
	Likes      []Like `json:"likes,omitempty"`
	Set        *bool  `json:"set,omitempty"`
	IsAdd      *bool  `json:"is_add,omitempty"`
}

// Like is one entry of a group_msg_emoji_like notice's likes list.
type Like struct {
	EmojiID FlexID `json:"emoji_id"`
	Count   int    `json:"count,omitempty"`
}

// Segment is one typed part of a message chain,
// e.g. {"type":"text","data":{"text":"hi"}}.
type Segment struct {
	Type string      `json:"type"`
	Data SegmentData `json:"data"`
}

// SegmentData covers the data fields of every segment kind the bot reads.
type SegmentData struct {
	Text string `json:"text,omitempty"` // "text"
	ID   FlexID `json:"id,omitempty"`   // "face" (reaction id), "reply" (message id)
	URL  string `json:"url,omitempty"`  // "image"
	QQ   FlexID `json:"qq,omitempty"`   // "at" (mentioned user id)
}

// TextSegment builds a plain-text segment.
func TextSegment(text string) Segment {
	return Segment{Type: "text", Data: SegmentData{Text: text}}
}

// FaceSegment builds a face (reaction marker) segment.
func FaceSegment(id int) Segment {
	return Segment{Type: "face", Data: SegmentData{ID: FlexID(strconv.Itoa(id))}}
}

// MemberInfo is the subset of get_group_member_info the formatter uses.
type MemberInfo struct {
	Nickname string `json:"nickname"`
	Card     string `json:"card"` // group-specific display name, may be empty
}

// GroupInfo is the subset of get_group_info the formatter uses.
type GroupInfo struct {
	GroupName string `json:"group_name"`
}
