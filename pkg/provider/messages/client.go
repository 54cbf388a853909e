// Package messages implements the Anthropic Messages streaming provider.
package messages

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"agentwire/pkg/eventstream"
	"agentwire/pkg/message"
	"agentwire/pkg/model"
	"agentwire/pkg/provider"
)

const defaultTimeout = 180 * time.Second

// Client implements provider.Provider for the Anthropic Messages API.
type Client struct {
	credential string
}

var _ provider.Provider = (*Client)(nil)

// New creates a client for the given credential, which may be either a raw
// API key or an OAuth access token (detected by the sk-ant-oat substring).
func New(credential string) *Client {
	return &Client{credential: credential}
}

func (c *Client) Stream(ctx context.Context, d model.Descriptor, mctx message.Context, opts provider.Options) (*eventstream.Stream[provider.Event, *message.Assistant], error) {
	oauth := isOAuthToken(c.credential)
	retention := resolveCacheRetention(opts.CacheRetention, os.Getenv("PI_CACHE_RETENTION"))

	params, err := buildParams(d, mctx, opts, oauth, retention)
	if err != nil {
		return nil, fmt.Errorf("messages: build params: %w", err)
	}

	clientOpts := []option.RequestOption{option.WithRequestTimeout(defaultTimeout)}
	if oauth {
		clientOpts = append(clientOpts, option.WithAuthToken(c.credential), option.WithHeader("anthropic-beta", "oauth-2025-04-20"))
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(c.credential))
	}
	if d.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(d.BaseURL))
	}
	for k, v := range d.Headers {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}

	client := anthropic.NewClient(clientOpts...)

	if opts.MaxRetryDelayMS > 0 {
		limiter := rate.NewLimiter(rate.Every(time.Duration(opts.MaxRetryDelayMS)*time.Millisecond), 1)
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	stream := eventstream.New[provider.Event, *message.Assistant](16)
	go func() {
		sdkStream := client.Messages.NewStreaming(ctx, params)

		acc := newAccumulator(d, oauth)
		for sdkStream.Next() {
			events := acc.apply(sdkStream.Current())
			for _, ev := range events {
				stream.Push(ctx, ev)
			}
		}

		if err := sdkStream.Err(); err != nil {
			final := errorMessage(ctx, d, err)
			stream.Push(ctx, provider.Event{Kind: provider.KindError, Err: err, Partial: final})
			stream.End(final)
			return
		}

		acc.finalize(message.StopReasonStop)
		stream.Push(ctx, provider.Event{Kind: provider.KindDone, Partial: acc.final})
		stream.End(acc.final)
	}()
	return stream, nil
}

// errorMessage finalizes a failed stream as an assistant message, using
// stop_reason=aborted when the failure is the caller's own cancellation
// rather than a provider/protocol error.
func errorMessage(ctx context.Context, d model.Descriptor, err error) *message.Assistant {
	stopReason := message.StopReasonError
	select {
	case <-ctx.Done():
		stopReason = message.StopReasonAborted
	default:
	}
	return &message.Assistant{
		API:          string(model.APIMessages),
		Provider:     d.Provider,
		Model:        d.ID,
		StopReason:   stopReason,
		ErrorMessage: err.Error(),
		Timestamp:    message.TimestampMillis(time.Now()),
	}
}
