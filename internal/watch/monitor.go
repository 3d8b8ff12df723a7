package watch

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vanducng/emojiwatch/internal/bus"
	"github.com/vanducng/emojiwatch/internal/config"
	"github.com/vanducng/emojiwatch/internal/onebot"
	"github.com/vanducng/emojiwatch/internal/session"
)

// Adapter is the slice of the platform client the monitor needs. Every call
// is best-effort: failures are converted to fallbacks at the call site.
type Adapter interface {
	GetGroupMemberInfo(ctx context.Context, groupID, userID string) (onebot.MemberInfo, error)
	GetGroupInfo(ctx context.Context, groupID string) (onebot.GroupInfo, error)
	GetMsg(ctx context.Context, messageID string) ([]onebot.Segment, error)
	SendGroupMsg(ctx context.Context, groupID string, segments []onebot.Segment) error
}

// Monitor runs the reaction-notice monitoring flow.
type Monitor struct {
	cfg     config.MonitorConfig
	adapter Adapter
	tracer  trace.Tracer
}

// NewMonitor builds a monitor over the given adapter.
func NewMonitor(cfg config.MonitorConfig, adapter Adapter) *Monitor {
	return &Monitor{
		cfg:     cfg,
		adapter: adapter,
		tracer:  otel.Tracer("emojiwatch/watch"),
	}
}

// HandleNotice processes one raw inbound event: normalize, removal policy,
// visibility filter, metadata and content resolution, logging, route
// matching, per-destination delivery. It never fails: one bad event or one
// bad collaborator response degrades to a fallback or a skip.
func (m *Monitor) HandleNotice(ctx context.Context, ev onebot.Event, selfUserID string) {
	rec, ok := Normalize(ev)
	if !ok {
		return
	}

	policy := ParseRemovalPolicy(m.cfg.UnmonitorStrategy)
	if !rec.IsAdd && policy == RemovalIgnore {
		return
	}

	sid := session.GroupSID(rec.GroupID)
	if !ShouldMonitor(sid, rec.ActorUserID, selfUserID, m.cfg.MonitorSelf, m.cfg.Blacklist, m.cfg.Whitelist) {
		slog.Debug("reaction event outside monitoring scope", "session", sid, "actor", rec.ActorUserID)
		return
	}

	ctx, span := m.tracer.Start(ctx, "watch.notice",
		trace.WithAttributes(
			attribute.String("group_id", rec.GroupID),
			attribute.Bool("is_add", rec.IsAdd),
		))
	defer span.End()

	operator := m.resolveOperator(ctx, rec)
	group := m.resolveGroup(ctx, rec)
	content := m.resolveContent(ctx, rec)

	action := "贴了一个"
	if !rec.IsAdd {
		action = "撤回了贴表情"
	}
	marker := ""
	if rec.ReactionID != nil {
		marker = fmt.Sprintf(" [表情%d]", *rec.ReactionID)
	}

	// The log line always carries the full identities and the unfolded
	// content; display modes and folding apply to forwarded text only.
	slog.Info(fmt.Sprintf("%s 在 %s 群中给消息“%s”%s%s", operator.Full, group.Full, content, action, marker))

	if !rec.IsAdd && policy == RemovalLogOnly {
		return
	}

	folded := Fold(content, m.cfg.MsgFoldThreshold)
	text := fmt.Sprintf("%s 在 %s 群中对消息“%s”%s", operator.Push, group.Push, folded, action)
	for _, dest := range Destinations(m.cfg.PushList, sid, rec.GroupID) {
		// Per-destination isolation: one failed delivery must not block the rest.
		m.deliver(ctx, bus.OutboundNotice{Destination: dest, Text: text, ReactionID: rec.ReactionID})
	}
}

func (m *Monitor) resolveOperator(ctx context.Context, rec bus.ReactionEvent) Identity {
	info, err := m.adapter.GetGroupMemberInfo(ctx, rec.GroupID, rec.ActorUserID)
	if err != nil {
		slog.Error("fetch group member info failed", "group_id", rec.GroupID, "user_id", rec.ActorUserID, "error", err)
		return UnknownOperator(rec.ActorUserID)
	}
	return OperatorIdentity(info, rec.ActorUserID, ParseDisplayMode(m.cfg.OperatorDisplayMode))
}

func (m *Monitor) resolveGroup(ctx context.Context, rec bus.ReactionEvent) Identity {
	info, err := m.adapter.GetGroupInfo(ctx, rec.GroupID)
	if err != nil {
		slog.Error("fetch group info failed", "group_id", rec.GroupID, "error", err)
		return UnknownGroup(rec.GroupID)
	}
	return GroupIdentity(info, rec.GroupID, ParseDisplayMode(m.cfg.GroupDisplayMode))
}

func (m *Monitor) resolveContent(ctx context.Context, rec bus.ReactionEvent) string {
	segs, err := m.adapter.GetMsg(ctx, rec.MessageID)
	if err != nil {
		slog.Error("fetch message content failed", "message_id", rec.MessageID, "error", err)
		return "未知消息内容"
	}
	return RenderSegments(segs)
}

func (m *Monitor) deliver(ctx context.Context, notice bus.OutboundNotice) {
	gid, ok := session.GroupID(notice.Destination)
	if !ok {
		slog.Warn("push destination is not a session id, skipped", "destination", notice.Destination)
		return
	}
	segs := []onebot.Segment{onebot.TextSegment(notice.Text)}
	if notice.ReactionID != nil {
		segs = append(segs, onebot.FaceSegment(*notice.ReactionID))
	}
	if err := m.adapter.SendGroupMsg(ctx, gid, segs); err != nil {
		slog.Error("push delivery failed", "destination", notice.Destination, "error", err)
		return
	}
	slog.Debug("push delivered", "destination", notice.Destination)
}
