package entity

// TokenSupport describes which tokens a strategy can manage.
type TokenSupport string

const (
	TokenSupportAll         TokenSupport = "all"
	TokenSupportStablecoins TokenSupport = "stablecoins"
	TokenSupportCustom      TokenSupport = "custom"
)

// Valid reports whether s is one of the known token support modes.
func (s TokenSupport) Valid() bool {
	switch s {
	case TokenSupportAll, TokenSupportStablecoins, TokenSupportCustom:
		return true
	}
	return false
}

// ParameterType is the UI/validation type of a strategy parameter.
type ParameterType string

const (
	ParamTypePercent      ParameterType = "percent"
	ParamTypeBoolean      ParameterType = "boolean"
	ParamTypeSelect       ParameterType = "select"
	ParamTypeFiatCurrency ParameterType = "fiat-currency"
	ParamTypeNumber       ParameterType = "number"
)

// CustomTemplateID is the template reported when the on-chain enum has no named preset.
const CustomTemplateID = "custom"

// SelectOption is one allowed value of a select parameter.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ParameterCondition makes a parameter meaningful only while another parameter equals Value.
type ParameterCondition struct {
	ParameterID string     `json:"parameterId"`
	Value       ParamValue `json:"value"`
}

// ParameterDefinition declares a single strategy parameter.
type ParameterDefinition struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Type          ParameterType       `json:"type"`
	Default       ParamValue          `json:"defaultValue"`
	Min           *float64            `json:"min,omitempty"`
	Max           *float64            `json:"max,omitempty"`
	Step          float64             `json:"step,omitempty"`
	Suffix        string              `json:"suffix,omitempty"`
	Group         int                 `json:"group"`
	ContractGroup string              `json:"contractGroup"`
	Options       []SelectOption      `json:"options,omitempty"`
	Condition     *ParameterCondition `json:"condition,omitempty"`
	Optional      bool                `json:"optional,omitempty"`
}

// ParameterGroup is a UI section of related parameters.
type ParameterGroup struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StrategyTemplate is a named preset of parameter values.
type StrategyTemplate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Defaults    ParamValues `json:"defaults"`
}

// ContractParametersGroup maps a contract-side group to its setter.
type ContractParametersGroup struct {
	SetterMethod string   `json:"setterMethod"`
	Parameters   []string `json:"parameters"`
}

// StrategySchema is the static description of a strategy type.
type StrategySchema struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Subtitle        string       `json:"subtitle,omitempty"`
	Description     string       `json:"description"`
	ContractKey     string       `json:"contractKey"`
	TokenSupport    TokenSupport `json:"tokenSupport"`
	SupportedTokens []string     `json:"supportedTokens,omitempty"`
	MinTokens       int          `json:"minTokens"`
	MaxTokens       int          `json:"maxTokens"`
	MinPlatforms    int          `json:"minPlatforms"`
	MaxPlatforms    int          `json:"maxPlatforms"`

	ParameterGroups          []ParameterGroup                   `json:"parameterGroups"`
	Parameters               []ParameterDefinition              `json:"parameters"`
	Templates                []StrategyTemplate                 `json:"templates"`
	TemplateEnumMap          map[string]uint8                   `json:"templateEnumMap,omitempty"`
	ContractParametersGroups map[string]ContractParametersGroup `json:"contractParametersGroups,omitempty"`
}

// Parameter returns the declared parameter with the given ID.
func (s *StrategySchema) Parameter(id string) (ParameterDefinition, bool) {
	for _, p := range s.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return ParameterDefinition{}, false
}

// Template returns the template with the given ID.
func (s *StrategySchema) Template(id string) (StrategyTemplate, bool) {
	for _, t := range s.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return StrategyTemplate{}, false
}

// TemplateForEnum reverse-maps an on-chain template enum, defaulting to CustomTemplateID.
func (s *StrategySchema) TemplateForEnum(value uint8) string {
	for id, enum := range s.TemplateEnumMap {
		if enum == value {
			return id
		}
	}
	return CustomTemplateID
}

// ValidationResult is the outcome of validating a parameter set.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}
