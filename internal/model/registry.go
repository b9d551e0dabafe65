package model

import (
	"os"
	"sort"
	"strings"

	"github.com/soochol/aihub/internal/config"
)

// Build constructs a provider client from its config entry. Unknown types
// with a URL are treated as OpenAI-compatible; otherwise Build returns
// (nil, false).
func Build(providerName string, cfg config.ProviderConfig) (any, bool) {
	apiKey := resolveKey(providerName, cfg.APIKey)
	switch cfg.Type {
	case "openai":
		return NewOpenAIClient(apiKey, cfg.Model,
			WithOpenAIBaseURL(cfg.URL),
			WithOpenAIName(providerName)), true
	case "gemini":
		return NewGeminiClient(providerName, apiKey, cfg.Model), true
	}
	// Fallback: any provider with a URL is treated as OpenAI-compatible.
	if cfg.URL != "" {
		return NewOpenAIClient(apiKey, cfg.Model,
			WithOpenAIBaseURL(cfg.URL),
			WithOpenAIName(providerName)), true
	}
	return nil, false
}

// Providers bundles the capabilities stage logic needs. Either field may
// be nil; stages degrade to deterministic behavior without a text model
// and fail attachment analysis without a vision model.
type Providers struct {
	Text   TextGenerator
	Vision VisionAnalyzer
}

// FromConfig builds all configured providers and picks the first one
// offering each capability, in map-key-sorted order for determinism. A
// provider named "text" or "vision" takes priority for that capability.
func FromConfig(cfgs map[string]config.ProviderConfig) *Providers {
	p := &Providers{}
	for _, name := range sortedKeys(cfgs) {
		client, ok := Build(name, cfgs[name])
		if !ok {
			continue
		}
		if tg, ok := client.(TextGenerator); ok {
			if p.Text == nil || name == "text" {
				p.Text = tg
			}
		}
		if va, ok := client.(VisionAnalyzer); ok {
			if p.Vision == nil || name == "vision" {
				p.Vision = va
			}
		}
	}
	return p
}

// resolveKey falls back to the <NAME>_API_KEY environment variable when
// the config leaves the key empty.
func resolveKey(providerName, configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(strings.ToUpper(providerName) + "_API_KEY")
}

func sortedKeys(cfgs map[string]config.ProviderConfig) []string {
	keys := make([]string, 0, len(cfgs))
	for k := range cfgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
