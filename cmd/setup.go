package cmd

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"duolog/core"
	"duolog/engine"
	"duolog/logging"
	"duolog/model"
	"duolog/model/anthropic"
	"duolog/model/gemini"
	"duolog/model/ollama"
	"duolog/model/openai"
	"duolog/session"
)

// deps bundles the wired-up engine and its collaborators for a command run.
type deps struct {
	events     *core.EventChannel
	registry   *model.Registry
	controller *engine.Controller
	ollama     *ollama.Invoker
	store      *session.InMemoryStore
}

// buildDeps wires the event channel, registry, per-provider invokers,
// credential store and controller from viper configuration.
func buildDeps() *deps {
	creds := model.StaticStore{
		model.ProviderOpenAI:    viper.GetString("openai.api_key"),
		model.ProviderAnthropic: viper.GetString("anthropic.api_key"),
		model.ProviderGemini:    viper.GetString("gemini.api_key"),
	}

	local := ollama.New(func(o *ollama.Options) {
		o.BaseURL = viper.GetString("ollama.url")
	})

	invokers := model.InvokerMap{
		model.ProviderOllama: local,
		model.ProviderOpenAI: openai.New(func(o *openai.Options) {
			o.APIKey = viper.GetString("openai.api_key")
		}),
		model.ProviderAnthropic: anthropic.New(func(o *anthropic.Options) {
			o.APIKey = viper.GetString("anthropic.api_key")
		}),
		model.ProviderGemini: gemini.New(func(o *gemini.Options) {
			o.APIKey = viper.GetString("gemini.api_key")
		}),
	}

	var logger logging.Logger = logging.NoOpLogger{}
	if verbose {
		logger = logging.NewSlogLogger(logging.LogLevelDebug, "text", os.Stderr)
	}

	cfg := engine.DefaultConfig
	cfg.RetryBaseDelay = viper.GetDuration("retry.base_delay")
	cfg.InterTurnCooldown = viper.GetDuration("cooldown")
	if n := viper.GetInt("retry.max_attempts"); n > 0 {
		cfg.MaxAttempts = n
	}

	events := core.NewEventChannel()
	registry := model.NewRegistry()
	store := session.NewInMemoryStore()
	controller := engine.New(events, registry, invokers, creds,
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithStore(store),
	)

	return &deps{
		events:     events,
		registry:   registry,
		controller: controller,
		ollama:     local,
		store:      store,
	}
}

// configuredTimeout returns the per-call timeout, clamped to something sane.
func configuredTimeout() time.Duration {
	t := viper.GetDuration("timeout")
	if t <= 0 {
		t = 600 * time.Second
	}
	return t
}
