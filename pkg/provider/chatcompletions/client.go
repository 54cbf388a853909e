// Package chatcompletions implements the chat/completions JSON-over-SSE
// streaming wire form shared by OpenAI and its many API-compatible vendors
// (github-copilot, mistral, openrouter, zai, qwen/dashscope, vercel).
package chatcompletions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"agentwire/pkg/eventstream"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
)

const defaultTimeout = 180 * time.Second

// Client is a provider.Provider for the chat/completions wire form.
type Client struct {
	httpClient *http.Client
	apiKey     string
}

var _ provider.Provider = (*Client)(nil)

// New creates a client carrying the given API key.
func New(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
	}
}

func (c *Client) Stream(ctx context.Context, d model.Descriptor, mctx message.Context, opts provider.Options) (*eventstream.Stream[provider.Event, *message.Assistant], error) {
	compat := model.ResolveCompat(d)
	body, err := buildRequest(d, mctx, compat, opts)
	if err != nil {
		return nil, fmt.Errorf("chatcompletions: build request: %w", err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("chatcompletions: encode request: %w", err)
	}

	url := normalizeBaseURL(d.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("chatcompletions: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}
	if d.Provider == "github-copilot" {
		req.Header.Set("X-Initiator", "user")
		req.Header.Set("Openai-Intent", "conversation-edits")
		req.Header.Set("Copilot-Vision-Request", "true")
	}

	if opts.MaxRetryDelayMS > 0 {
		limiter := rate.NewLimiter(rate.Every(time.Duration(opts.MaxRetryDelayMS)*time.Millisecond), 1)
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	stream := eventstream.New[provider.Event, *message.Assistant](16)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		go func() {
			final := errorMessage(d, err)
			stream.Push(ctx, provider.Event{Kind: provider.KindError, Err: err, Partial: final})
			stream.End(final)
		}()
		return stream, nil
	}

	go c.consume(ctx, resp, d, stream)
	return stream, nil
}

func (c *Client) consume(ctx context.Context, resp *http.Response, d model.Descriptor, stream *eventstream.Stream[provider.Event, *message.Assistant]) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("chatcompletions: status %d: %s", resp.StatusCode, string(body))
		final := errorMessage(d, err)
		stream.Push(ctx, provider.Event{Kind: provider.KindError, Err: err, Partial: final})
		stream.End(final)
		return
	}

	acc := newAccumulator(d)

	err := parseSSE(resp.Body, func(ch chunk) error {
		for _, ev := range acc.apply(ch) {
			stream.Push(ctx, ev)
		}
		return nil
	}, func() error {
		acc.finalize(message.StopReasonStop)
		return nil
	})

	select {
	case <-ctx.Done():
		acc.finalize(message.StopReasonAborted)
	default:
		if err != nil {
			acc.err = err
			acc.finalize(message.StopReasonError)
		} else if acc.final == nil {
			// SSE ended without an explicit [DONE]; default to stop, per
			// the documented fallback for a clean EOF.
			acc.finalize(message.StopReasonStop)
		}
	}

	if acc.err != nil {
		stream.Push(ctx, provider.Event{Kind: provider.KindError, Err: acc.err, Partial: acc.final})
	} else {
		stream.Push(ctx, provider.Event{Kind: provider.KindDone, Partial: acc.final})
	}
	stream.End(acc.final)
}

func errorMessage(d model.Descriptor, err error) *message.Assistant {
	return &message.Assistant{
		API:          string(model.APIChatCompletions),
		Provider:     d.Provider,
		Model:        d.ID,
		StopReason:   message.StopReasonError,
		ErrorMessage: err.Error(),
		Timestamp:    message.TimestampMillis(time.Now()),
	}
}
