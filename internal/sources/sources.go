// Package sources builds the configured fallback chains from provider
// names. Importing it registers every bundled provider.
package sources

import (
	"time"

	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/sources/providers/finnhub"
	"github.com/agentstation/eventmap/internal/sources/providers/gemini"
	"github.com/agentstation/eventmap/internal/sources/providers/googlenews"
	"github.com/agentstation/eventmap/internal/sources/providers/openrouter"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/internal/sources/providers/yahoo"
	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/sources"

	// Registers the local file provider.
	_ "github.com/agentstation/eventmap/internal/sources/local"
)

// ChainConfig names the providers of one chain in fallback order.
type ChainConfig struct {
	ID        sources.ID    `mapstructure:"-" yaml:"-"`
	Providers []string      `mapstructure:"providers" yaml:"providers"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Defaults returns the default chains: structured financial data, then
// news, then model-backed extraction.
func Defaults() []ChainConfig {
	llm := make([]string, 0, len(openrouter.DefaultModels)+1)
	for _, m := range openrouter.DefaultModels {
		llm = append(llm, openrouter.Kind+":"+m)
	}
	llm = append(llm, gemini.Kind+":"+gemini.DefaultModel)

	return []ChainConfig{
		{ID: sources.FinancialID, Providers: []string{finnhub.MNAName}, Timeout: constants.ProviderTimeout},
		{ID: sources.NewsID, Providers: []string{finnhub.NewsName, yahoo.Name, googlenews.Name}, Timeout: constants.ProviderTimeout},
		{ID: sources.LLMID, Providers: llm, Timeout: constants.LLMTimeout},
	}
}

// Build creates chains from configs. Providers whose credentials are
// missing are still built; they fail at fetch time and the chain moves on.
func Build(cfgs []ChainConfig, creds *config.Credentials, opts ...registry.Option) ([]*sources.Chain, error) {
	chains := make([]*sources.Chain, 0, len(cfgs))
	for _, cfg := range cfgs {
		if len(cfg.Providers) == 0 {
			return nil, &errors.ConfigError{Component: "sources." + string(cfg.ID), Message: "no providers configured"}
		}
		providers := make([]sources.Provider, 0, len(cfg.Providers))
		for _, name := range cfg.Providers {
			p, err := registry.New(name, creds, opts...)
			if err != nil {
				return nil, errors.NewConfigError("sources."+string(cfg.ID), "invalid provider "+name, err)
			}
			providers = append(providers, p)
		}
		chain, err := sources.NewChain(cfg.ID, cfg.Timeout, providers...)
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)
	}
	return chains, nil
}
