package model

import (
	"sort"
	"sync"
)

// hostedCatalog is the static set of hosted models selectable by display
// name. Resolution from display name to provider kind never requires a
// network call.
var hostedCatalog = map[string]Reference{
	"GPT-4o (API)": {
		Display:  "GPT-4o (API)",
		Provider: ProviderOpenAI,
		ModelID:  "gpt-4o",
	},
	"GPT-4o mini (API)": {
		Display:  "GPT-4o mini (API)",
		Provider: ProviderOpenAI,
		ModelID:  "gpt-4o-mini",
	},
	"Claude Opus 4 (API)": {
		Display:  "Claude Opus 4 (API)",
		Provider: ProviderAnthropic,
		ModelID:  "claude-opus-4-20250514",
	},
	"Claude Sonnet 4 (API)": {
		Display:  "Claude Sonnet 4 (API)",
		Provider: ProviderAnthropic,
		ModelID:  "claude-sonnet-4-20250514",
	},
	"Gemini 2.5 Pro (API)": {
		Display:  "Gemini 2.5 Pro (API)",
		Provider: ProviderGemini,
		ModelID:  "gemini-2.5-pro",
	},
	"Gemini 2.5 Flash (API)": {
		Display:  "Gemini 2.5 Flash (API)",
		Provider: ProviderGemini,
		ModelID:  "gemini-2.5-flash",
	},
}

// Registry resolves display identifiers to model references. Hosted models
// come from a static catalog; locally served models come from a point-in-time
// snapshot supplied via SetLocalModels, refreshed only between sessions.
// Resolution is a pure function of the current snapshot.
type Registry struct {
	mu    sync.RWMutex
	local []string
}

// NewRegistry constructs a registry with the hosted catalog and no local models.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetLocalModels replaces the local-model snapshot.
func (r *Registry) SetLocalModels(names []string) {
	r.mu.Lock()
	r.local = append([]string(nil), names...)
	r.mu.Unlock()
}

// Resolve maps a display identifier to a model reference. Hosted catalog
// entries win; any name in the local snapshot resolves to the local provider
// with the name used verbatim as the provider model id.
func (r *Registry) Resolve(display string) (Reference, bool) {
	if ref, ok := hostedCatalog[display]; ok {
		return ref, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.local {
		if name == display {
			return Reference{Display: name, Provider: ProviderOllama, ModelID: name}, true
		}
	}
	return Reference{}, false
}

// Names returns all resolvable display identifiers: hosted models sorted
// alphabetically, then local models sorted alphabetically.
func (r *Registry) Names() []string {
	hosted := make([]string, 0, len(hostedCatalog))
	for name := range hostedCatalog {
		hosted = append(hosted, name)
	}
	sort.Strings(hosted)

	r.mu.RLock()
	local := append([]string(nil), r.local...)
	r.mu.RUnlock()
	sort.Strings(local)

	return append(hosted, local...)
}
