package watch

import (
	"encoding/json"
	"testing"

	"github.com/vanducng/emojiwatch/internal/onebot"
)

func decodeEvent(t *testing.T, raw string) onebot.Event {
	t.Helper()
	var ev onebot.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestNormalize_NotifyShape(t *testing.T) {
	ev := decodeEvent(t, `{
		"post_type": "notice", "notice_type": "notify", "sub_type": "emoji_like",
		"group_id": 12345678, "user_id": 87654321, "message_id": 555,
		"emoji_id": "76", "set": true
	}`)
	rec, ok := Normalize(ev)
	if !ok {
		t.Fatal("Normalize() ok = false")
	}
	if rec.ActorUserID != "87654321" || rec.GroupID != "12345678" || rec.MessageID != "555" {
		t.Errorf("ids wrong: %+v", rec)
	}
	if rec.ReactionID == nil || *rec.ReactionID != 76 {
		t.Errorf("reaction id = %v, want 76", rec.ReactionID)
	}
	if !rec.IsAdd {
		t.Error("IsAdd = false, want true")
	}
}

func TestNormalize_NotifyRemoval(t *testing.T) {
	ev := decodeEvent(t, `{
		"post_type": "notice", "notice_type": "notify", "sub_type": "emoji_like",
		"group_id": 1, "user_id": 2, "message_id": 3, "emoji_id": 4, "set": false
	}`)
	rec, ok := Normalize(ev)
	if !ok || rec.IsAdd {
		t.Errorf("got (ok=%v, IsAdd=%v), want removal event", ok, rec.IsAdd)
	}
}

func TestNormalize_LikesShape(t *testing.T) {
	ev := decodeEvent(t, `{
		"post_type": "notice", "notice_type": "group_msg_emoji_like",
		"group_id": 1, "user_id": 2, "message_id": 3,
		"likes": [{"emoji_id": "282"}, {"emoji_id": "76"}],
		"is_add": true
	}`)
	rec, ok := Normalize(ev)
	if !ok {
		t.Fatal("Normalize() ok = false")
	}
	// First likes entry wins.
	if rec.ReactionID == nil || *rec.ReactionID != 282 {
		t.Errorf("reaction id = %v, want 282", rec.ReactionID)
	}
}

func TestNormalize_LikesShapeSetFallback(t *testing.T) {
	// No is_add: falls back to set.
	ev := decodeEvent(t, `{
		"post_type": "notice", "notice_type": "group_msg_emoji_like",
		"group_id": 1, "user_id": 2, "message_id": 3,
		"emoji_id": 9, "set": false
	}`)
	rec, ok := Normalize(ev)
	if !ok {
		t.Fatal("Normalize() ok = false")
	}
	if rec.IsAdd {
		t.Error("IsAdd = true, want false via set fallback")
	}
	// Empty likes list: flat emoji_id wins.
	if rec.ReactionID == nil || *rec.ReactionID != 9 {
		t.Errorf("reaction id = %v, want 9", rec.ReactionID)
	}
}

func TestNormalize_AbsentReactionID(t *testing.T) {
	ev := decodeEvent(t, `{
		"post_type": "notice", "notice_type": "notify", "sub_type": "emoji_like",
		"group_id": 1, "user_id": 2, "message_id": 3
	}`)
	rec, ok := Normalize(ev)
	if !ok {
		t.Fatal("Normalize() ok = false")
	}
	if rec.ReactionID != nil {
		t.Errorf("reaction id = %v, want nil", rec.ReactionID)
	}
}

func TestNormalize_NotApplicable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"message event", `{"post_type": "message", "message_type": "group"}`},
		{"other notice", `{"post_type": "notice", "notice_type": "group_recall"}`},
		{"notify without emoji_like", `{"post_type": "notice", "notice_type": "notify", "sub_type": "poke"}`},
		{"meta event", `{"post_type": "meta_event"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Normalize(decodeEvent(t, tt.raw)); ok {
				t.Error("Normalize() ok = true, want not applicable")
			}
		})
	}
}
