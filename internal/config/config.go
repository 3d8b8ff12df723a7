package config

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON: group ids and
// reaction ids in hand-edited configs frequently arrive unquoted.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the emojiwatch bot.
type Config struct {
	OneBot     OneBotConfig     `json:"onebot"`
	Reaction   ReactionConfig   `json:"reaction"`
	Monitor    MonitorConfig    `json:"monitor"`
	Classifier ClassifierConfig `json:"classifier,omitempty"`
	Telemetry  TelemetryConfig  `json:"telemetry,omitempty"`
}

// OneBotConfig points at the NapCat / OneBot v11 WebSocket endpoint.
// AccessToken is NEVER read from the config file (secret); it comes only
// from env EMOJIWATCH_ONEBOT_TOKEN.
type OneBotConfig struct {
	WSURL             string  `json:"ws_url"`
	AccessToken       string  `json:"-"`
	ReconnectInterval float64 `json:"reconnect_interval,omitempty"` // seconds between redial attempts
	CallTimeout       float64 `json:"call_timeout,omitempty"`       // seconds to wait for an API echo
}

// ReactionConfig controls how the bot applies reactions itself.
type ReactionConfig struct {
	EmojiSelectStrategy string              `json:"emoji_select_strategy"`          // "random" or "emotion_llm"
	EmotionsMapping     FlexibleStringSlice `json:"emotions_mapping,omitempty"`     // "label：id id id" entries
	DefaultEmojiNum     int                 `json:"default_emoji_num"`              // command default count
	EmojiInterval       float64             `json:"emoji_interval"`                 // seconds between sequential applies
	EmojiFollow         float64             `json:"emoji_follow"`                   // follow-existing-reaction probability [0,1]
	EmojiLikeProb       float64             `json:"emoji_like_prob"`                // spontaneous-reaction probability [0,1]
	EmojiRangeStart     int                 `json:"emoji_range_start,omitempty"`    // global pool interval start (inclusive)
	EmojiRangeEnd       int                 `json:"emoji_range_end,omitempty"`      // global pool interval end (exclusive)
}

// MonitorConfig controls the reaction-notice monitoring and fan-out flow.
type MonitorConfig struct {
	UnmonitorStrategy   string              `json:"unmonitor_emoji_like_strategy,omitempty"` // "ignore-entirely", "log-only", "log-and-forward"
	MonitorSelf         bool                `json:"monitor_self,omitempty"`
	Blacklist           FlexibleStringSlice `json:"blacklist,omitempty"` // session ids, checked before the whitelist
	Whitelist           FlexibleStringSlice `json:"whitelist,omitempty"` // non-empty = only these session ids
	OperatorDisplayMode string              `json:"operator_display_mode,omitempty"` // "full", "name-only", "id-only"
	GroupDisplayMode    string              `json:"group_display_mode,omitempty"`    // "full", "name-only", "id-only"
	MsgFoldThreshold    int                 `json:"msg_fold_threshold,omitempty"`    // runes; 0 disables folding
	PushList            FlexibleStringSlice `json:"push_list,omitempty"`             // "dest(:src1,src2,...)" rules
}

// ClassifierConfig points at an OpenAI-compatible chat-completions endpoint
// used for emotion judgement. APIKey is env-only (EMOJIWATCH_CLASSIFIER_API_KEY).
type ClassifierConfig struct {
	JudgeProviderID string `json:"judge_provider_id,omitempty"` // label used in logs/traces
	APIBase         string `json:"api_base,omitempty"`
	APIKey          string `json:"-"`
	Model           string `json:"model,omitempty"`
	Timeout         float64 `json:"timeout,omitempty"` // seconds
}

// TelemetryConfig configures OpenTelemetry export for traces and spans.
// When enabled, spans are exported to an OTLP-compatible backend
// (Jaeger, Tempo, Datadog, etc.).
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`     // e.g. "localhost:4317"
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext export for local dev
	ServiceName string            `json:"service_name,omitempty"` // default "emojiwatch"
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (auth tokens for cloud backends)
}
