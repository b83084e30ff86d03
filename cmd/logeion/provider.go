package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/at-ishikawa/logeion/internal/config"
)

// Provider overrides the lemmatizer provider of the configuration file.
type Provider string

func (p *Provider) Set(val string) error {
	for _, provider := range allProviders {
		if val == string(provider) {
			*p = provider
			return nil
		}
	}
	return fmt.Errorf("invalid lemmatizer provider: %s", val)
}

func (p Provider) String() string {
	return string(p)
}

func (p *Provider) Type() string {
	return "provider"
}

var (
	_            pflag.Value = (*Provider)(nil)
	allProviders             = []Provider{
		config.ProviderService,
		config.ProviderOpenAI,
		config.ProviderTable,
		config.ProviderNone,
	}
)

// apply replaces the configured provider unless the flag was left empty.
func (p Provider) apply(cfg *config.Config) {
	if p != "" {
		cfg.Lemmatizer.Provider = string(p)
	}
}
