//go:build !agentgw_small

package fantasybridge

import (
	"fmt"
	"net/http"
	"strings"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/azure"
	"charm.land/fantasy/providers/bedrock"
	fgoogle "charm.land/fantasy/providers/google"
	fopenai "charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
	"charm.land/fantasy/providers/vercel"
)

func newProvider(cfg Config) (fantasy.Provider, error) {
	var (
		provider fantasy.Provider
		err      error
	)
	switch cfg.API {
	case apiOpenAI:
		provider, err = fopenai.New(providerOptions[fopenai.Option]{
			apiKey:  fopenai.WithAPIKey,
			baseURL: fopenai.WithBaseURL,
			client:  func(c *http.Client) fopenai.Option { return fopenai.WithHTTPClient(c) },
		}.build(cfg, cfg.BaseURL)...)
	case apiAnthropic:
		// The anthropic client appends the version path itself.
		provider, err = anthropic.New(providerOptions[anthropic.Option]{
			apiKey:  anthropic.WithAPIKey,
			baseURL: anthropic.WithBaseURL,
			client:  func(c *http.Client) anthropic.Option { return anthropic.WithHTTPClient(c) },
		}.build(cfg, strings.TrimSuffix(cfg.BaseURL, "/v1"))...)
	case apiGoogle:
		provider, err = fgoogle.New(providerOptions[fgoogle.Option]{
			apiKey:  fgoogle.WithGeminiAPIKey,
			baseURL: fgoogle.WithBaseURL,
			client:  func(c *http.Client) fgoogle.Option { return fgoogle.WithHTTPClient(c) },
		}.build(cfg, cfg.BaseURL)...)
	case apiAzure, apiAzureAD:
		provider, err = azure.New(providerOptions[azure.Option]{
			apiKey:  azure.WithAPIKey,
			baseURL: azure.WithBaseURL,
			client:  func(c *http.Client) azure.Option { return azure.WithHTTPClient(c) },
		}.build(cfg, cfg.BaseURL)...)
	case apiOpenRouter:
		provider, err = openrouter.New(providerOptions[openrouter.Option]{
			apiKey: openrouter.WithAPIKey,
			client: func(c *http.Client) openrouter.Option { return openrouter.WithHTTPClient(c) },
		}.build(cfg, "")...)
	case apiVercel:
		provider, err = vercel.New(providerOptions[vercel.Option]{
			apiKey:  vercel.WithAPIKey,
			baseURL: vercel.WithBaseURL,
			client:  func(c *http.Client) vercel.Option { return vercel.WithHTTPClient(c) },
		}.build(cfg, cfg.BaseURL)...)
	case apiBedrock:
		// Without a key bedrock falls back to the AWS credential chain.
		provider, err = bedrock.New(providerOptions[bedrock.Option]{
			apiKey: bedrock.WithAPIKey,
			client: func(c *http.Client) bedrock.Option { return bedrock.WithHTTPClient(c) },
		}.build(cfg, "")...)
	default:
		return newCompatProvider(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("new %s provider: %w", cfg.API, err)
	}
	return provider, nil
}
