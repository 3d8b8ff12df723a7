package watch

import (
	"fmt"
	"strings"

	"github.com/vanducng/emojiwatch/internal/onebot"
)

// foldMarker is appended to folded (truncated) content.
const foldMarker = "……"

// DisplayMode controls how much of an identity is disclosed in forwarded
// text. The log line always uses the full form regardless of mode.
type DisplayMode string

const (
	DisplayFull     DisplayMode = "full"
	DisplayNameOnly DisplayMode = "name-only"
	DisplayIDOnly   DisplayMode = "id-only"
)

// ParseDisplayMode maps a config value to a mode; unknown values disclose
// everything.
func ParseDisplayMode(s string) DisplayMode {
	switch DisplayMode(s) {
	case DisplayNameOnly, DisplayIDOnly:
		return DisplayMode(s)
	default:
		return DisplayFull
	}
}

// RenderSegments flattens a message chain into one display string: text
// verbatim, a face as a bracketed reaction marker, anything else as a
// bracketed kind tag.
func RenderSegments(segs []onebot.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		switch seg.Type {
		case "text":
			b.WriteString(seg.Data.Text)
		case "face":
			fmt.Fprintf(&b, "[表情%s]", seg.Data.ID)
		default:
			fmt.Fprintf(&b, "[%s]", seg.Type)
		}
	}
	return b.String()
}

// Fold truncates s to threshold runes and appends the fold marker.
// threshold <= 0 disables folding. The threshold counts runes, not bytes.
func Fold(s string, threshold int) string {
	if threshold <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= threshold {
		return s
	}
	return string(runes[:threshold]) + foldMarker
}

// Identity carries both renderings of an operator or group: Full for the
// log line (never truncated or redacted), Push for forwarded text (subject
// to the display mode).
type Identity struct {
	Full string
	Push string
}

// OperatorIdentity renders a group member under the configured display mode.
func OperatorIdentity(info onebot.MemberInfo, userID string, mode DisplayMode) Identity {
	nickname := info.Nickname
	if nickname == "" {
		nickname = "未知"
	}
	name := nickname
	if info.Card != "" {
		name = fmt.Sprintf("%s (%s)", nickname, info.Card)
	}
	full := fmt.Sprintf("%s (%s)", name, userID)

	push := full
	switch mode {
	case DisplayNameOnly:
		push = name
	case DisplayIDOnly:
		push = userID
	}
	return Identity{Full: full, Push: push}
}

// UnknownOperator is the fallback when the member fetch fails: the raw id is
// still embedded so the event stays attributable.
func UnknownOperator(userID string) Identity {
	s := fmt.Sprintf("未知 (%s)", userID)
	return Identity{Full: s, Push: s}
}

// GroupIdentity renders a group under the configured display mode.
func GroupIdentity(info onebot.GroupInfo, groupID string, mode DisplayMode) Identity {
	name := info.GroupName
	if name == "" {
		name = "未知群聊"
	}
	full := fmt.Sprintf("“%s” (%s)", name, groupID)

	push := full
	switch mode {
	case DisplayNameOnly:
		push = fmt.Sprintf("“%s”", name)
	case DisplayIDOnly:
		push = groupID
	}
	return Identity{Full: full, Push: push}
}

// UnknownGroup is the fallback when the group fetch fails.
func UnknownGroup(groupID string) Identity {
	s := fmt.Sprintf("(%s)", groupID)
	return Identity{Full: s, Push: s}
}
