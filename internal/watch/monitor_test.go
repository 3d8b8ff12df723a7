package watch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/vanducng/emojiwatch/internal/config"
	"github.com/vanducng/emojiwatch/internal/onebot"
)

// fakeAdapter records calls and can be primed with failures per method.
type fakeAdapter struct {
	memberErr error
	groupErr  error
	msgErr    error
	sendErr   map[string]error // group id → error

	metadataCalls int
	sent          []sentMsg
}

type sentMsg struct {
	groupID string
	segs    []onebot.Segment
}

func (f *fakeAdapter) GetGroupMemberInfo(ctx context.Context, groupID, userID string) (onebot.MemberInfo, error) {
	f.metadataCalls++
	if f.memberErr != nil {
		return onebot.MemberInfo{}, f.memberErr
	}
	return onebot.MemberInfo{Nickname: "小明", Card: "群管"}, nil
}

func (f *fakeAdapter) GetGroupInfo(ctx context.Context, groupID string) (onebot.GroupInfo, error) {
	f.metadataCalls++
	if f.groupErr != nil {
		return onebot.GroupInfo{}, f.groupErr
	}
	return onebot.GroupInfo{GroupName: "吹水群"}, nil
}

func (f *fakeAdapter) GetMsg(ctx context.Context, messageID string) ([]onebot.Segment, error) {
	f.metadataCalls++
	if f.msgErr != nil {
		return nil, f.msgErr
	}
	return []onebot.Segment{onebot.TextSegment("原消息内容")}, nil
}

func (f *fakeAdapter) SendGroupMsg(ctx context.Context, groupID string, segs []onebot.Segment) error {
	if err := f.sendErr[groupID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMsg{groupID: groupID, segs: segs})
	return nil
}

func reactionNotice(t *testing.T, isAdd bool) onebot.Event {
	t.Helper()
	raw := `{
		"post_type": "notice", "notice_type": "notify", "sub_type": "emoji_like",
		"group_id": 12345678, "user_id": 87654321, "message_id": 555,
		"emoji_id": 76, "set": ` + map[bool]string{true: "true", false: "false"}[isAdd] + `
	}`
	var ev onebot.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func baseConfig() config.MonitorConfig {
	return config.MonitorConfig{
		UnmonitorStrategy:   "log-and-forward",
		OperatorDisplayMode: "full",
		GroupDisplayMode:    "full",
		PushList:            config.FlexibleStringSlice{"napcat:GroupMessage:99990000"},
	}
}

func TestHandleNotice_ForwardsToCatchAllDestination(t *testing.T) {
	adapter := &fakeAdapter{}
	m := NewMonitor(baseConfig(), adapter)

	m.HandleNotice(context.Background(), reactionNotice(t, true), "10001")

	if len(adapter.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(adapter.sent))
	}
	got := adapter.sent[0]
	if got.groupID != "99990000" {
		t.Errorf("delivered to group %q, want 99990000", got.groupID)
	}
	if len(got.segs) != 2 {
		t.Fatalf("segments = %d, want text + face", len(got.segs))
	}
	text := got.segs[0].Data.Text
	for _, fragment := range []string{"小明 (群管) (87654321)", "“吹水群” (12345678)", "原消息内容", "贴了一个"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("push text %q missing %q", text, fragment)
		}
	}
	if got.segs[1].Type != "face" || got.segs[1].Data.ID.String() != "76" {
		t.Errorf("face segment = %+v, want id 76", got.segs[1])
	}
}

func TestHandleNotice_RemovalPolicies(t *testing.T) {
	tests := []struct {
		strategy          string
		wantMetadataCalls bool
		wantDeliveries    int
	}{
		{"ignore-entirely", false, 0},
		{"log-only", true, 0},
		{"log-and-forward", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			adapter := &fakeAdapter{}
			cfg := baseConfig()
			cfg.UnmonitorStrategy = tt.strategy
			NewMonitor(cfg, adapter).HandleNotice(context.Background(), reactionNotice(t, false), "10001")

			if tt.wantMetadataCalls && adapter.metadataCalls == 0 {
				t.Error("expected metadata resolution, got none")
			}
			if !tt.wantMetadataCalls && adapter.metadataCalls != 0 {
				t.Errorf("ignore-entirely resolved metadata (%d calls)", adapter.metadataCalls)
			}
			if len(adapter.sent) != tt.wantDeliveries {
				t.Errorf("deliveries = %d, want %d", len(adapter.sent), tt.wantDeliveries)
			}
		})
	}
}

func TestHandleNotice_VisibilityFilter(t *testing.T) {
	t.Run("blacklisted session dropped", func(t *testing.T) {
		adapter := &fakeAdapter{}
		cfg := baseConfig()
		cfg.Blacklist = config.FlexibleStringSlice{"napcat:GroupMessage:12345678"}
		NewMonitor(cfg, adapter).HandleNotice(context.Background(), reactionNotice(t, true), "10001")
		if adapter.metadataCalls != 0 || len(adapter.sent) != 0 {
			t.Error("blacklisted event was processed")
		}
	})

	t.Run("self reaction dropped by default", func(t *testing.T) {
		adapter := &fakeAdapter{}
		NewMonitor(baseConfig(), adapter).HandleNotice(context.Background(), reactionNotice(t, true), "87654321")
		if len(adapter.sent) != 0 {
			t.Error("self reaction was forwarded")
		}
	})

	t.Run("self reaction kept when monitor_self", func(t *testing.T) {
		adapter := &fakeAdapter{}
		cfg := baseConfig()
		cfg.MonitorSelf = true
		NewMonitor(cfg, adapter).HandleNotice(context.Background(), reactionNotice(t, true), "87654321")
		if len(adapter.sent) != 1 {
			t.Error("self reaction was dropped despite monitor_self")
		}
	})
}

func TestHandleNotice_MetadataFailuresFallBack(t *testing.T) {
	adapter := &fakeAdapter{
		memberErr: errors.New("member boom"),
		groupErr:  errors.New("group boom"),
		msgErr:    errors.New("msg boom"),
	}
	NewMonitor(baseConfig(), adapter).HandleNotice(context.Background(), reactionNotice(t, true), "10001")

	if len(adapter.sent) != 1 {
		t.Fatalf("sent %d, want 1: collaborator failures must not abort the event", len(adapter.sent))
	}
	text := adapter.sent[0].segs[0].Data.Text
	for _, fragment := range []string{"未知 (87654321)", "(12345678)", "未知消息内容"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("push text %q missing fallback %q", text, fragment)
		}
	}
}

func TestHandleNotice_DeliveryFailureIsolated(t *testing.T) {
	adapter := &fakeAdapter{sendErr: map[string]error{"1": errors.New("dest down")}}
	cfg := baseConfig()
	cfg.PushList = config.FlexibleStringSlice{
		"napcat:GroupMessage:1",
		"napcat:GroupMessage:2",
	}
	NewMonitor(cfg, adapter).HandleNotice(context.Background(), reactionNotice(t, true), "10001")

	if len(adapter.sent) != 1 || adapter.sent[0].groupID != "2" {
		t.Errorf("second destination not delivered after first failed: %+v", adapter.sent)
	}
}

func TestHandleNotice_SourcedRuleFiltering(t *testing.T) {
	adapter := &fakeAdapter{}
	cfg := baseConfig()
	cfg.PushList = config.FlexibleStringSlice{
		"napcat:GroupMessage:1:12345678",
		"napcat:GroupMessage:2:99999999",
	}
	NewMonitor(cfg, adapter).HandleNotice(context.Background(), reactionNotice(t, true), "10001")

	if len(adapter.sent) != 1 || adapter.sent[0].groupID != "1" {
		t.Errorf("sourced routing wrong: %+v", adapter.sent)
	}
}

func TestHandleNotice_FoldAppliesToPushOnly(t *testing.T) {
	adapter := &fakeAdapter{}
	cfg := baseConfig()
	cfg.MsgFoldThreshold = 2
	NewMonitor(cfg, adapter).HandleNotice(context.Background(), reactionNotice(t, true), "10001")

	text := adapter.sent[0].segs[0].Data.Text
	if !strings.Contains(text, "原消"+foldMarker) {
		t.Errorf("push text %q not folded to 2 runes", text)
	}
	if strings.Contains(text, "原消息内容") {
		t.Errorf("push text %q carries unfolded content", text)
	}
}

func TestHandleNotice_NonReactionNoticeIgnored(t *testing.T) {
	adapter := &fakeAdapter{}
	var ev onebot.Event
	if err := json.Unmarshal([]byte(`{"post_type":"notice","notice_type":"group_recall"}`), &ev); err != nil {
		t.Fatal(err)
	}
	NewMonitor(baseConfig(), adapter).HandleNotice(context.Background(), ev, "10001")
	if adapter.metadataCalls != 0 || len(adapter.sent) != 0 {
		t.Error("non-reaction notice was processed")
	}
}
