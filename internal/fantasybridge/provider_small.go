//go:build agentgw_small

package fantasybridge

import "charm.land/fantasy"

// The small build only links the OpenAI-compatible provider, which covers
// Ollama and most self-hosted servers.
func newProvider(cfg Config) (fantasy.Provider, error) {
	return newCompatProvider(cfg)
}
