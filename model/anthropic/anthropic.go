// Package anthropic provides a model.Invoker backed by the Anthropic
// Messages API via the official SDK.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"duolog/model"
)

// Options configures the Anthropic invoker.
type Options struct {
	APIKey      string
	Temperature float64
	MaxTokens   int64
}

// Invoker wraps the Anthropic Messages API behind model.Invoker.
type Invoker struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// Invoke implements model.Invoker.
func (i *Invoker) Invoke(ctx context.Context, ref model.Reference, prompt string) (string, error) {
	if i.opts.APIKey == "" {
		return "", model.Failf(model.KindAuth, "anthropic api key not configured")
	}

	resp, err := i.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(ref.ModelID),
		MaxTokens:   i.opts.MaxTokens,
		Temperature: anthropic.Float(i.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return "", model.Failf(model.KindPermanent, "empty message from model %q", ref.ModelID)
	}
	return sb.String(), nil
}

// classify maps an SDK error to a classified failure.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return model.NewFailure(model.ClassifyStatus(apierr.StatusCode), err)
	}
	return model.NewFailure(model.KindTransient, err)
}
