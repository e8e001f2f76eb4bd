// Package openai provides a model.Invoker backed by the OpenAI Chat
// Completions API via the official SDK. SDK errors are mapped onto the
// failure taxonomy using the response status code; transport errors classify
// as transient.
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"duolog/model"
)

// Options configures the OpenAI invoker. Fields mirror a minimal subset of
// chat completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	APIKey      string
	BaseURL     string
	Temperature float64
}

// Invoker wraps the OpenAI Chat Completions API behind model.Invoker.
type Invoker struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// Invoke implements model.Invoker.
func (i *Invoker) Invoke(ctx context.Context, ref model.Reference, prompt string) (string, error) {
	if i.opts.APIKey == "" {
		return "", model.Failf(model.KindAuth, "openai api key not configured")
	}

	resp, err := i.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(ref.ModelID),
		Temperature: openai.Float(i.opts.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", model.Failf(model.KindPermanent, "empty completion from model %q", ref.ModelID)
	}
	return resp.Choices[0].Message.Content, nil
}

// Classify maps an SDK error to a classified failure. Exported because the
// Gemini adapter reuses the same SDK and mapping.
func Classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return model.NewFailure(model.ClassifyStatus(apierr.StatusCode), err)
	}
	// Anything that never produced an HTTP response is connection-class.
	return model.NewFailure(model.KindTransient, err)
}
