package onebot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const eventBufferSize = 64

// Client is a OneBot v11 WebSocket client. API calls are correlated with
// their responses via the echo field; events are delivered on Events().
// Writes are serialized; reads happen on the single Run loop.
type Client struct {
	conn        *websocket.Conn
	writeMu     sync.Mutex
	callTimeout time.Duration
	limiter     *rate.Limiter // coarse pace across all API calls

	pendingMu sync.Mutex
	pending   map[string]chan apiResponse

	events chan Event
}

type apiRequest struct {
	Action string `json:"action"`
	Params any    `json:"params,omitempty"`
	Echo   string `json:"echo"`
}

type apiResponse struct {
	Status  string          `json:"status"`
	Retcode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
	Echo    string          `json:"echo"`
	Message string          `json:"message,omitempty"`
	Wording string          `json:"wording,omitempty"`
}

// Dial connects to a OneBot WebSocket endpoint. accessToken may be empty;
// when set it is sent as a bearer Authorization header, which is how NapCat
// expects it.
func Dial(ctx context.Context, wsURL, accessToken string, callTimeout time.Duration) (*Client, error) {
	headers := http.Header{}
	if accessToken != "" {
		headers.Set("Authorization", "Bearer "+accessToken)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return nil, fmt.Errorf("onebot: ws dial: %w", err)
	}
	conn.SetReadLimit(1 << 22) // 4MB: forwarded messages can carry large image segments

	return &Client{
		conn:        conn,
		callTimeout: callTimeout,
		limiter:     rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		pending:     make(map[string]chan apiResponse),
		events:      make(chan Event, eventBufferSize),
	}, nil
}

// Events returns the inbound event stream. Closed when Run returns.
func (c *Client) Events() <-chan Event { return c.events }

// Run reads frames until the context is cancelled or the connection drops.
// Frames carrying an echo are routed to their pending call; everything else
// is decoded as an event.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("onebot: ws read: %w", err)
		}

		var probe struct {
			Echo string `json:"echo"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			slog.Debug("onebot frame is not JSON, dropped", "error", err)
			continue
		}

		if probe.Echo != "" {
			var resp apiResponse
			if err := json.Unmarshal(data, &resp); err != nil {
				slog.Warn("onebot response frame undecodable", "error", err)
				continue
			}
			c.resolve(resp)
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Debug("onebot event frame undecodable, dropped", "error", err)
			continue
		}
		if ev.PostType == "" {
			continue
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) resolve(resp apiResponse) {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.Echo]
	if ok {
		delete(c.pending, resp.Echo)
	}
	c.pendingMu.Unlock()
	if !ok {
		// Late response after its caller timed out: ignore.
		slog.Debug("onebot response with no pending call", "echo", resp.Echo)
		return
	}
	ch <- resp
}

// call sends an API request and waits for the echo-matched response.
func (c *Client) call(ctx context.Context, action string, params any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	echo := uuid.NewString()
	payload, err := json.Marshal(apiRequest{Action: action, Params: params, Echo: echo})
	if err != nil {
		return nil, fmt.Errorf("onebot: marshal %s: %w", action, err)
	}

	ch := make(chan apiResponse, 1)
	c.pendingMu.Lock()
	c.pending[echo] = ch
	c.pendingMu.Unlock()

	if err := c.write(ctx, payload); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("onebot: write %s: %w", action, err)
	}

	timer := time.NewTimer(c.callTimeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		if resp.Status == "failed" || resp.Retcode != 0 {
			return nil, fmt.Errorf("onebot: %s failed: retcode=%d %s", action, resp.Retcode, resp.Wording)
		}
		return resp.Data, nil
	case <-timer.C:
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("onebot: %s timed out after %s", action, c.callTimeout)
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close sends a close frame and shuts down the connection.
func (c *Client) Close() {
	c.conn.Close(websocket.StatusNormalClosure, "shutting down")
}
