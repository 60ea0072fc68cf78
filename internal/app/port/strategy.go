package port

import "vault_client/internal/domain/entity"

// StrategyService exposes strategy schemas, validation and on-chain decoding.
type StrategyService interface {
	ListStrategyIDs() []string
	ListAvailableStrategies() []entity.StrategySchema
	GetStrategy(id string) (*entity.StrategySchema, error)
	GetParameterGroups(id string) ([]entity.ParameterGroup, error)
	GetParametersByGroup(id string, group int) (map[string]entity.ParameterDefinition, error)
	GetParametersByContractGroup(id string, contractGroup string) (map[string]entity.ParameterDefinition, error)
	GetAvailableTemplates(id string) ([]entity.StrategyTemplate, error)
	GetTemplateDefaults(id string, templateID string) (entity.ParamValues, error)
	GetDefaultParams(id string) (entity.ParamValues, error)
	ValidateParams(id string, values entity.ParamValues) (entity.ValidationResult, error)
	DecodeParameters(id string, raw []any) (entity.ParamValues, error)
	EncodeParameters(id string, values entity.ParamValues) ([]any, error)
	GetSetterMethod(id string, contractGroup string) (string, error)
	ValidateTokensForStrategy(vaultTokens []string, strategyTokens []string) []string
}
