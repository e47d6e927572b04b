//go:build agentgw_small

package fantasybridge

import "charm.land/fantasy"

// The OpenAI-compatible provider takes no extra options.
func applyProviderOptions(*fantasy.Call, Config) {}
