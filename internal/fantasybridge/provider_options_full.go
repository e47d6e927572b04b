//go:build !agentgw_small

package fantasybridge

import (
	"charm.land/fantasy"
	fgoogle "charm.land/fantasy/providers/google"
)

func applyProviderOptions(call *fantasy.Call, cfg Config) {
	if cfg.API == apiGoogle && cfg.ThinkingBudget > 0 {
		call.ProviderOptions[fgoogle.Name] = &fgoogle.ProviderOptions{
			ThinkingConfig: &fgoogle.ThinkingConfig{
				ThinkingBudget: fantasy.Opt(int64(cfg.ThinkingBudget)),
			},
		}
	}
}
