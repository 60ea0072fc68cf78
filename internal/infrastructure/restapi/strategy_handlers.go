package restapi

import (
	"errors"
	"fmt"
	"net/http"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// ValidateRequest is the body of POST /strategies/:strategyId/validate.
type ValidateRequest struct {
	Parameters entity.ParamValues `json:"parameters"`
	Tokens     []string           `json:"tokens,omitempty"`
}

// ValidateResponse extends the parameter validation with the token check.
type ValidateResponse struct {
	entity.ValidationResult
	TokenErrors []string `json:"tokenErrors"`
}

// StrategyHandler serves the strategy schemas.
type StrategyHandler struct {
	strategyService port.StrategyService
	logger          port.Logger
}

// NewStrategyHandler создает новый экземпляр StrategyHandler.
func NewStrategyHandler(ss port.StrategyService, l port.Logger) *StrategyHandler {
	return &StrategyHandler{strategyService: ss, logger: l}
}

func (h *StrategyHandler) ListStrategiesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": h.strategyService.ListAvailableStrategies()})
}

func (h *StrategyHandler) GetStrategyHandler(c *gin.Context) {
	schema, err := h.strategyService.GetStrategy(c.Param("strategyId"))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

func (h *StrategyHandler) GetTemplateDefaultsHandler(c *gin.Context) {
	id, templateID := c.Param("strategyId"), c.Param("templateId")
	values, err := h.strategyService.GetTemplateDefaults(id, templateID)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"strategyId": id,
		"templateId": templateID,
		"parameters": values,
	})
}

// ValidateParamsHandler validates a parameter set and, when tokens are given,
// checks them against the strategy's supported tokens.
func (h *StrategyHandler) ValidateParamsHandler(c *gin.Context) {
	id := c.Param("strategyId")
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Parameters == nil {
		req.Parameters = entity.ParamValues{}
	}

	result, err := h.strategyService.ValidateParams(id, req.Parameters)
	if err != nil {
		h.abort(c, err)
		return
	}
	resp := ValidateResponse{ValidationResult: result, TokenErrors: []string{}}

	if len(req.Tokens) > 0 {
		schema, err := h.strategyService.GetStrategy(id)
		if err != nil {
			h.abort(c, err)
			return
		}
		if schema.TokenSupport != entity.TokenSupportAll {
			resp.TokenErrors = h.strategyService.ValidateTokensForStrategy(req.Tokens, schema.SupportedTokens)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StrategyHandler) abort(c *gin.Context, err error) {
	var notFound *entity.NotFoundError
	var invalid *entity.SchemaInvalidError
	switch {
	case errors.As(err, &notFound):
		abortWithError(c, http.StatusNotFound, err)
	case errors.As(err, &invalid):
		h.logger.Error("Strategy schema is invalid", "error", err)
		abortWithError(c, http.StatusInternalServerError, err)
	default:
		abortWithError(c, http.StatusBadRequest, err)
	}
}
