// Package watch implements the reaction-notice monitoring flow: normalizing
// the two NapCat wire shapes into one canonical event, visibility filtering,
// content/identity formatting, push-rule matching, and fan-out delivery.
package watch

import (
	"github.com/vanducng/emojiwatch/internal/bus"
	"github.com/vanducng/emojiwatch/internal/onebot"
)

// Normalize converts a raw OneBot event into the canonical reaction event.
// ok is false when the event is not a reaction notice; any other notice or
// post type is simply not applicable.
//
// Two wire shapes are recognized:
//
//  1. notice_type "notify" with sub_type "emoji_like": reaction fields flat
//     in the record, "set" indicating add/remove.
//  2. notice_type "group_msg_emoji_like": a "likes" list, each entry carrying
//     its own emoji id, and "is_add" (fallback "set") indicating add/remove.
//
// The reaction id comes from the first likes entry when present, else from
// the flat emoji_id field. A missing or unparseable id is passed through as
// nil rather than rejecting the event.
func Normalize(ev onebot.Event) (bus.ReactionEvent, bool) {
	if ev.PostType != "notice" {
		return bus.ReactionEvent{}, false
	}

	isAdd := true
	switch {
	case ev.NoticeType == "notify" && ev.SubType == "emoji_like":
		if ev.Set != nil {
			isAdd = *ev.Set
		}
	case ev.NoticeType == "group_msg_emoji_like":
		if ev.IsAdd != nil {
			isAdd = *ev.IsAdd
		} else if ev.Set != nil {
			isAdd = *ev.Set
		}
	default:
		return bus.ReactionEvent{}, false
	}

	var reactionID *int
	rawID := ev.EmojiID
	if len(ev.Likes) > 0 {
		rawID = ev.Likes[0].EmojiID
	}
	if id, ok := rawID.Int(); ok {
		reactionID = &id
	}

	return bus.ReactionEvent{
		ActorUserID: ev.UserID.String(),
		GroupID:     ev.GroupID.String(),
		MessageID:   ev.MessageID.String(),
		ReactionID:  reactionID,
		IsAdd:       isAdd,
	}, true
}
