package provider

import (
	"sort"
	"strings"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
)

type tokenProviderImpl struct {
	tokens   []entity.TokenDefinition
	bySymbol map[string]entity.TokenDefinition
	logger   port.Logger
}

// NewTokenProvider creates a TokenProvider over an already loaded token table.
func NewTokenProvider(tokens []entity.TokenDefinition, logger port.Logger) port.TokenProvider {
	p := &tokenProviderImpl{
		tokens:   append([]entity.TokenDefinition(nil), tokens...),
		bySymbol: make(map[string]entity.TokenDefinition, len(tokens)),
		logger:   logger,
	}
	sort.Slice(p.tokens, func(i, j int) bool { return p.tokens[i].Symbol < p.tokens[j].Symbol })
	for _, t := range p.tokens {
		p.bySymbol[strings.ToUpper(t.Symbol)] = t
	}
	logger.Info("Token table loaded", "token_count", len(p.tokens))
	return p
}

func (p *tokenProviderImpl) GetAllTokens() []entity.TokenDefinition {
	return append([]entity.TokenDefinition(nil), p.tokens...)
}

// GetTokensByChain returns every token with an address on chainID, ordered by symbol.
func (p *tokenProviderImpl) GetTokensByChain(chainID uint64) []entity.ChainToken {
	out := make([]entity.ChainToken, 0, len(p.tokens))
	for _, t := range p.tokens {
		addr, ok := t.AddressOn(chainID)
		if !ok {
			continue
		}
		out = append(out, entity.ChainToken{
			ChainID:      chainID,
			Address:      addr,
			Name:         t.Name,
			Symbol:       t.Symbol,
			Decimals:     t.Decimals,
			LogoURI:      t.LogoURI,
			IsStablecoin: t.IsStablecoin,
		})
	}
	return out
}

func (p *tokenProviderImpl) GetTokenBySymbol(symbol string) (entity.TokenDefinition, bool) {
	t, ok := p.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}
