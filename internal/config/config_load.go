package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
//
// The reaction-id interval [1, 434) matches the QQ sticker-reaction id space
// NapCat accepts for set_msg_emoji_like.
func Default() *Config {
	return &Config{
		OneBot: OneBotConfig{
			WSURL:             "ws://127.0.0.1:3001",
			ReconnectInterval: 5,
			CallTimeout:       10,
		},
		Reaction: ReactionConfig{
			EmojiSelectStrategy: "random",
			DefaultEmojiNum:     1,
			EmojiInterval:       0.5,
			EmojiRangeStart:     1,
			EmojiRangeEnd:       434,
		},
		Monitor: MonitorConfig{
			UnmonitorStrategy:   "log-and-forward",
			OperatorDisplayMode: "full",
			GroupDisplayMode:    "full",
		},
		Classifier: ClassifierConfig{
			JudgeProviderID: "openai",
			APIBase:         "https://api.openai.com/v1",
			Model:           "gpt-4o-mini",
			Timeout:         30,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "emojiwatch",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			cfg.normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// applyEnv overlays secrets and endpoint overrides from the environment.
// Secrets are env-only and never serialized back to disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("EMOJIWATCH_ONEBOT_URL"); v != "" {
		c.OneBot.WSURL = v
	}
	if v := os.Getenv("EMOJIWATCH_ONEBOT_TOKEN"); v != "" {
		c.OneBot.AccessToken = v
	}
	if v := os.Getenv("EMOJIWATCH_CLASSIFIER_API_KEY"); v != "" {
		c.Classifier.APIKey = v
	}
}

// normalize coerces out-of-range values to safe ones instead of failing:
// one bad knob must not take the whole bot down.
func (c *Config) normalize() {
	if c.Reaction.DefaultEmojiNum <= 0 {
		c.Reaction.DefaultEmojiNum = 1
	}
	if c.Reaction.EmojiInterval <= 0 {
		c.Reaction.EmojiInterval = 0.5
	}
	if c.Reaction.EmojiRangeEnd < c.Reaction.EmojiRangeStart {
		c.Reaction.EmojiRangeEnd = c.Reaction.EmojiRangeStart
	}
	c.Reaction.EmojiFollow = clamp01(c.Reaction.EmojiFollow)
	c.Reaction.EmojiLikeProb = clamp01(c.Reaction.EmojiLikeProb)
	if c.Monitor.MsgFoldThreshold < 0 {
		c.Monitor.MsgFoldThreshold = 0
	}
	if c.OneBot.ReconnectInterval <= 0 {
		c.OneBot.ReconnectInterval = 5
	}
	if c.OneBot.CallTimeout <= 0 {
		c.OneBot.CallTimeout = 10
	}
	if c.Classifier.Timeout <= 0 {
		c.Classifier.Timeout = 30
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
