// Package gemini provides a model.Invoker for Google's Gemini API. Gemini
// exposes an OpenAI-compatible chat completions surface, so this adapter is
// the OpenAI invoker pointed at that endpoint rather than a third SDK.
package gemini

import (
	"context"

	"duolog/model"
	"duolog/model/openai"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Options configures the Gemini invoker.
type Options struct {
	APIKey      string
	BaseURL     string
	Temperature float64
}

// Invoker routes Gemini model references through the OpenAI-compatible API.
type Invoker struct {
	inner *openai.Invoker
	opts  Options
}

// New creates a Gemini invoker.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{
		BaseURL:     DefaultBaseURL,
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	inner := openai.New(func(o *openai.Options) {
		o.APIKey = opts.APIKey
		o.BaseURL = opts.BaseURL
		o.Temperature = opts.Temperature
	})
	return &Invoker{inner: inner, opts: opts}
}

// Invoke implements model.Invoker.
func (i *Invoker) Invoke(ctx context.Context, ref model.Reference, prompt string) (string, error) {
	if i.opts.APIKey == "" {
		return "", model.Failf(model.KindAuth, "gemini api key not configured")
	}
	return i.inner.Invoke(ctx, ref, prompt)
}
