package tokenloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
)

// LoadTokens merges the built-in table with every *.json file in dir.
// Each file holds a []entity.TokenDefinition; entries override built-ins by symbol and
// their addresses are merged per chain. An empty dir yields the built-in table.
func LoadTokens(dir string, log port.Logger) ([]entity.TokenDefinition, error) {
	bySymbol := make(map[string]entity.TokenDefinition)
	for _, t := range DefaultTokens() {
		bySymbol[strings.ToUpper(t.Symbol)] = t
	}

	if dir != "" {
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read token directory %s: %w", dir, err)
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".json") {
				continue
			}
			path := filepath.Join(dir, file.Name())
			tokens, err := utils.LoadJSONFile[[]entity.TokenDefinition](path)
			if err != nil {
				// Битый файл не должен ломать загрузку остальных.
				log.Warn("Failed to load token file, skipping file.", "path", path, "error", err)
				continue
			}
			merged := 0
			for _, t := range tokens {
				if err := validateToken(t); err != nil {
					log.Warn("Invalid token definition, skipping token.", "path", path, "symbol", t.Symbol, "error", err)
					continue
				}
				key := strings.ToUpper(t.Symbol)
				if existing, ok := bySymbol[key]; ok {
					for chainID, addr := range existing.Addresses {
						if _, set := t.Addresses[chainID]; !set {
							t.Addresses[chainID] = addr
						}
					}
				}
				bySymbol[key] = t
				merged++
			}
			log.Info("Loaded token definitions from file", "file", file.Name(), "count", merged)
		}
	}

	out := make([]entity.TokenDefinition, 0, len(bySymbol))
	for _, t := range bySymbol {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func validateToken(t entity.TokenDefinition) error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if len(t.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}
	for chainID, addr := range t.Addresses {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid address %q on chain %s", addr, chainID)
		}
	}
	return nil
}
