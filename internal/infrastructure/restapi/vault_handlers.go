package restapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"vault_client/internal/app/port"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// ChainResponse is the public description of a configured chain. RPC endpoints are not exposed.
type ChainResponse struct {
	ChainID          uint64   `json:"chainId"`
	Name             string   `json:"name"`
	Identifier       string   `json:"identifier"`
	NativeSymbol     string   `json:"nativeSymbol"`
	BlockExplorerURL string   `json:"blockExplorerUrl,omitempty"`
	Platforms        []string `json:"platforms"`
}

// VaultHandler обрабатывает HTTP запросы, связанные с хранилищами.
type VaultHandler struct {
	vaultService port.VaultService
	readers      port.ChainReaderProvider
	chains       port.ChainDefinitionProvider
	logger       port.Logger
}

// NewVaultHandler создает новый экземпляр VaultHandler.
func NewVaultHandler(vs port.VaultService, readers port.ChainReaderProvider, chains port.ChainDefinitionProvider, l port.Logger) *VaultHandler {
	return &VaultHandler{
		vaultService: vs,
		readers:      readers,
		chains:       chains,
		logger:       l,
	}
}

// GetChainsHandler lists the configured chains ordered by chain ID.
func (h *VaultHandler) GetChainsHandler(c *gin.Context) {
	all := h.chains.GetAllChains()
	out := make([]ChainResponse, 0, len(all))
	for _, ch := range all {
		platforms := make([]string, 0, len(ch.Platforms))
		for id := range ch.Platforms {
			platforms = append(platforms, id)
		}
		sort.Strings(platforms)
		out = append(out, ChainResponse{
			ChainID:          ch.ChainID,
			Name:             ch.Name,
			Identifier:       ch.Identifier,
			NativeSymbol:     ch.NativeCurrency.Symbol,
			BlockExplorerURL: ch.BlockExplorerURL,
			Platforms:        platforms,
		})
	}
	c.JSON(http.StatusOK, gin.H{"chains": out})
}

// GetVaultHandler aggregates a single vault.
func (h *VaultHandler) GetVaultHandler(c *gin.Context) {
	chainID, reader, ok := h.resolveChain(c)
	if !ok {
		return
	}
	address := c.Param("vaultAddress")
	if !common.IsHexAddress(address) {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid vault address %q", address))
		return
	}

	res := h.vaultService.GetVaultData(c.Request.Context(), address, reader, chainID)
	if !res.Success {
		h.logger.Warn("Vault aggregation failed", "vault", address, "chain_id", chainID, "error", res.Error)
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUserVaultsHandler aggregates every vault of a user.
func (h *VaultHandler) GetUserVaultsHandler(c *gin.Context) {
	chainID, reader, ok := h.resolveChain(c)
	if !ok {
		return
	}
	address := c.Param("userAddress")
	if !common.IsHexAddress(address) {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid user address %q", address))
		return
	}

	res := h.vaultService.GetAllUserVaultData(c.Request.Context(), address, reader, chainID)
	if !res.Success {
		h.logger.Warn("User vault aggregation failed", "user", address, "chain_id", chainID, "error", res.Error)
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VaultHandler) resolveChain(c *gin.Context) (uint64, port.ChainReader, bool) {
	raw := c.Param("chainId")
	chainID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || chainID == 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid chain id %q", raw))
		return 0, nil, false
	}
	if _, known := h.chains.GetChainByID(chainID); !known {
		abortWithError(c, http.StatusNotFound, fmt.Errorf("chain %d is not configured", chainID))
		return 0, nil, false
	}
	reader, err := h.readers.GetReader(chainID)
	if err != nil {
		h.logger.Error("No chain reader available", "chain_id", chainID, "error", err)
		abortWithError(c, http.StatusServiceUnavailable, fmt.Errorf("chain %d is unavailable: %w", chainID, err))
		return 0, nil, false
	}
	return chainID, reader, true
}
