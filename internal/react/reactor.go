// Package react applies reactions on the bot's own initiative: the explicit
// "贴表情" command (reply-bound, counted, paced) and the passive per-message
// flows (follow an existing reaction, spontaneously react).
package react

import (
	"context"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vanducng/emojiwatch/internal/config"
	"github.com/vanducng/emojiwatch/internal/emoji"
	"github.com/vanducng/emojiwatch/internal/onebot"
)

// CommandPrefix triggers the explicit reaction command. The invocation must
// be a reply to the message to react to.
const CommandPrefix = "贴表情"

// maxPerCommand caps the count argument: the platform rate-limits reaction
// writes hard beyond this.
const maxPerCommand = 20

// Adapter is the slice of the platform client the reactor needs.
type Adapter interface {
	SetMsgEmojiLike(ctx context.Context, messageID string, emojiID int, set bool) error
	GetMsg(ctx context.Context, messageID string) ([]onebot.Segment, error)
}

// EmotionJudge labels a message's emotional tone. Implementations never
// return an error; failures surface as a fallback label.
type EmotionJudge interface {
	Classify(ctx context.Context, text string, imageURLs []string) string
}

// Reactor runs the command and passive reaction flows.
type Reactor struct {
	cfg      config.ReactionConfig
	adapter  Adapter
	selector *emoji.Selector
	judge    EmotionJudge // nil when the strategy never consults it
	limiter  *rate.Limiter
	tracer   trace.Tracer
}

// NewReactor builds a reactor. The limiter paces sequential applies at the
// configured emoji_interval; applies within a command stay strictly ordered.
func NewReactor(cfg config.ReactionConfig, adapter Adapter, selector *emoji.Selector, judge EmotionJudge) *Reactor {
	interval := time.Duration(cfg.EmojiInterval * float64(time.Second))
	return &Reactor{
		cfg:      cfg,
		adapter:  adapter,
		selector: selector,
		judge:    judge,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		tracer:   otel.Tracer("emojiwatch/react"),
	}
}

// HandleMessage processes one inbound group message: the command flow when
// the message invokes the reaction command (consuming it), otherwise the
// passive flows. Returns true when the message was consumed by the command.
func (r *Reactor) HandleMessage(ctx context.Context, ev onebot.Event) bool {
	if ev.PostType != "message" || ev.MessageType != "group" {
		return false
	}
	if r.handleCommand(ctx, ev) {
		return true
	}
	r.handlePassive(ctx, ev)
	return false
}

// handleCommand runs the explicit command flow. Returns true when the
// message was a command invocation, whether or not reactions were applied.
func (r *Reactor) handleCommand(ctx context.Context, ev onebot.Event) bool {
	text := plainText(ev.Message)
	if !strings.HasPrefix(text, CommandPrefix) {
		return false
	}

	replyID := replyTarget(ev.Message)
	if replyID == "" {
		slog.Debug("reaction command without a reply target, ignored", "message_id", ev.MessageID)
		return true
	}

	count := r.parseCount(strings.TrimSpace(strings.TrimPrefix(text, CommandPrefix)))

	ctx, span := r.tracer.Start(ctx, "react.command",
		trace.WithAttributes(attribute.Int("count", count)))
	defer span.End()

	targetText, images := r.resolveTarget(ctx, replyID)

	emotion := ""
	if r.selector.NeedsEmotion() && r.judge != nil && targetText != "" {
		emotion = r.judge.Classify(ctx, targetText, images)
	}

	ids := r.selector.Select(emotion, count)
	slog.Info("applying reactions", "message_id", replyID, "emoji_ids", ids)

	for _, id := range ids {
		if err := r.limiter.Wait(ctx); err != nil {
			return true
		}
		if err := r.adapter.SetMsgEmojiLike(ctx, replyID, id, true); err != nil {
			slog.Warn("apply reaction failed", "message_id", replyID, "emoji_id", id, "error", err)
		}
	}
	return true
}

// parseCount resolves the command's count argument: empty uses the config
// default, invalid or non-positive input coerces to 1, and the result is
// clamped to the hard maximum.
func (r *Reactor) parseCount(arg string) int {
	count := r.cfg.DefaultEmojiNum
	if count <= 0 {
		count = 1
	}
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			count = 1
		} else {
			count = n
		}
	}
	return min(count, maxPerCommand)
}

// resolveTarget fetches the replied-to message. A fetch failure degrades to
// no text (classification skipped), never aborts the command.
func (r *Reactor) resolveTarget(ctx context.Context, messageID string) (text string, images []string) {
	segs, err := r.adapter.GetMsg(ctx, messageID)
	if err != nil {
		slog.Warn("fetch reply target failed", "message_id", messageID, "error", err)
		return "", nil
	}
	for _, seg := range segs {
		switch seg.Type {
		case "text":
			text += seg.Data.Text
		case "image":
			if seg.Data.URL != "" {
				images = append(images, seg.Data.URL)
			}
		}
	}
	return strings.TrimSpace(text), images
}

// handlePassive runs the follow and spontaneous flows. Both are best-effort
// and probability-gated, independent of each other.
func (r *Reactor) handlePassive(ctx context.Context, ev onebot.Event) {
	text := strings.TrimSpace(plainText(ev.Message))
	if text == "" {
		return
	}
	if mentions(ev.Message, ev.SelfID.String()) {
		// Addressed to the bot: leave it to whatever handles the mention.
		return
	}

	messageID := ev.MessageID.String()

	if faces := faceSegments(ev.Message); len(faces) > 0 && rand.Float64() < r.cfg.EmojiFollow {
		face := faces[rand.Intn(len(faces))]
		if id, ok := face.Data.ID.Int(); ok {
			if err := r.adapter.SetMsgEmojiLike(ctx, messageID, id, true); err != nil {
				slog.Warn("emoji follow failed", "message_id", messageID, "emoji_id", id, "error", err)
			}
		}
	}

	if rand.Float64() < r.cfg.EmojiLikeProb {
		emotion := ""
		if r.selector.NeedsEmotion() && r.judge != nil {
			emotion = r.judge.Classify(ctx, text, nil)
		}
		ids := r.selector.Select(emotion, 1)
		if len(ids) == 0 {
			return
		}
		if err := r.adapter.SetMsgEmojiLike(ctx, messageID, ids[0], true); err != nil {
			slog.Warn("spontaneous reaction failed", "message_id", messageID, "emoji_id", ids[0], "error", err)
		}
	}
}

func plainText(segs []onebot.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.Type == "text" {
			b.WriteString(seg.Data.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func replyTarget(segs []onebot.Segment) string {
	for _, seg := range segs {
		if seg.Type == "reply" {
			return seg.Data.ID.String()
		}
	}
	return ""
}

func faceSegments(segs []onebot.Segment) []onebot.Segment {
	var faces []onebot.Segment
	for _, seg := range segs {
		if seg.Type == "face" {
			faces = append(faces, seg)
		}
	}
	return faces
}

func mentions(segs []onebot.Segment, userID string) bool {
	for _, seg := range segs {
		if seg.Type == "at" && seg.Data.QQ.String() == userID {
			return true
		}
	}
	return false
}
