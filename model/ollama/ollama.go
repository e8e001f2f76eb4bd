// Package ollama provides a model.Invoker for a locally served Ollama
// runtime reached over its HTTP API. It also exposes model discovery via the
// tags endpoint, which feeds the known-model registry between sessions.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"duolog/model"
)

// DefaultBaseURL is the standard local Ollama address.
const DefaultBaseURL = "http://localhost:11434"

// Options configures the Ollama invoker.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client

	// Generation options sent with every request.
	Temperature float64
	TopP        float64
	NumCtx      int
}

// Invoker talks to a local Ollama server.
type Invoker struct {
	opts Options
}

// New creates an Ollama invoker with sensible local defaults.
func New(optFns ...func(o *Options)) *Invoker {
	opts := Options{
		BaseURL:     DefaultBaseURL,
		HTTPClient:  &http.Client{},
		Temperature: 0.7,
		TopP:        0.9,
		NumCtx:      2048,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{opts: opts}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Invoke implements model.Invoker using the /api/generate endpoint.
// Connection and timeout errors classify as transient, HTTP 404 as an
// unknown model, 429 as rate limiting, other statuses per the reference
// mapping.
func (i *Invoker) Invoke(ctx context.Context, ref model.Reference, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  ref.ModelID,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": i.opts.Temperature,
			"top_p":       i.opts.TopP,
			"num_ctx":     i.opts.NumCtx,
		},
	})
	if err != nil {
		return "", model.NewFailure(model.KindPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.opts.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", model.NewFailure(model.KindPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.opts.HTTPClient.Do(req)
	if err != nil {
		return "", model.Failf(model.KindTransient, "ollama unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		kind := model.ClassifyStatus(resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			return "", model.Failf(kind, "model %q not found", ref.ModelID)
		}
		return "", model.Failf(kind, "ollama api error: %d - %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", model.Failf(model.KindPermanent, "decode ollama response: %v", err)
	}
	if out.Response == "" {
		return "", model.Failf(model.KindPermanent, "empty response from model %q", ref.ModelID)
	}
	return out.Response, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of the models currently served by the local
// runtime. Callers treat the result as a point-in-time snapshot.
func (i *Invoker) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.opts.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags endpoint returned %d", resp.StatusCode)
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode ollama tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
