// Package classify judges the emotional tone of a message via an
// OpenAI-compatible chat-completions endpoint. The caller hands the classifier
// a closed label list; the provider is expected, but not guaranteed, to
// answer from it. No validation happens here: the selector treats an
// unrecognized label as a non-match.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vanducng/emojiwatch/internal/config"
)

// FallbackLabel is returned whenever emotion judgement fails for any reason.
const FallbackLabel = "其他"

// Classifier calls an OpenAI-compatible /chat/completions endpoint.
type Classifier struct {
	providerID string
	apiBase    string
	apiKey     string
	model      string
	labels     []string
	client     *http.Client
}

// New builds a classifier for the configured provider. labels is the closed
// set of valid emotion labels (the emotion-mapping keys, in order).
func New(cfg config.ClassifierConfig, labels []string) *Classifier {
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	return &Classifier{
		providerID: cfg.JudgeProviderID,
		apiBase:    apiBase,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		labels:     labels,
		client:     &http.Client{Timeout: time.Duration(cfg.Timeout * float64(time.Second))},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or []contentPart for vision
}

type contentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Classify returns the dominant emotion label for the given text (and,
// for vision-capable providers, the attached images). On any failure it
// returns FallbackLabel; it never returns an error.
func (c *Classifier) Classify(ctx context.Context, text string, imageURLs []string) string {
	ctx, span := otel.Tracer("emojiwatch/classify").Start(ctx, "classify")
	defer span.End()
	span.SetAttributes(attribute.String("provider", c.providerID))

	label, err := c.judge(ctx, text, imageURLs)
	if err != nil {
		slog.Error("emotion judgement failed", "provider", c.providerID, "error", err)
		return FallbackLabel
	}
	return label
}

func (c *Classifier) judge(ctx context.Context, text string, imageURLs []string) (string, error) {
	systemPrompt := fmt.Sprintf(
		"你是一个情感分析专家，请判断文本情感，只能从以下标签中选择一个：%v", c.labels)
	prompt := "文本内容：" + text

	var userContent any = prompt
	if len(imageURLs) > 0 {
		parts := []contentPart{{Type: "text", Text: prompt}}
		for _, u := range imageURLs {
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: u}})
		}
		userContent = parts
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", c.providerID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", c.providerID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request: %w", c.providerID, err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.providerID, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%s: API error: %s", c.providerID, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", c.providerID)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
