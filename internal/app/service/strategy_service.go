package service

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/strategydef"
	"vault_client/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

const currencyDecimals = 2

// strategyServiceImpl implements port.StrategyService over a static schema table.
type strategyServiceImpl struct {
	schemas         map[string]entity.StrategySchema
	order           []string
	validateSchemas bool
	logger          port.Logger
}

// NewStrategyService builds the service. With validateSchemas set every
// GetStrategy call checks the schema for completeness.
func NewStrategyService(schemas []entity.StrategySchema, validateSchemas bool, l port.Logger) port.StrategyService {
	s := &strategyServiceImpl{
		schemas:         make(map[string]entity.StrategySchema, len(schemas)),
		validateSchemas: validateSchemas,
		logger:          l,
	}
	for _, schema := range schemas {
		id := strings.ToLower(schema.ID)
		if _, dup := s.schemas[id]; dup {
			l.Warn("Duplicate strategy schema ignored", "strategy", schema.ID)
			continue
		}
		s.schemas[id] = schema
		s.order = append(s.order, schema.ID)
	}
	l.Info("StrategyService initialized", "strategies", len(s.order), "validate_schemas", validateSchemas)
	return s
}

func (s *strategyServiceImpl) ListStrategyIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ListAvailableStrategies returns every strategy except the "none" sentinel.
func (s *strategyServiceImpl) ListAvailableStrategies() []entity.StrategySchema {
	out := make([]entity.StrategySchema, 0, len(s.order))
	for _, id := range s.order {
		if id == strategydef.StrategyNone {
			continue
		}
		out = append(out, s.schemas[strings.ToLower(id)])
	}
	return out
}

// GetStrategy returns a copy of the schema. Slices and maps inside are shared
// with the table and must not be modified.
func (s *strategyServiceImpl) GetStrategy(id string) (*entity.StrategySchema, error) {
	schema, ok := s.schemas[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, &entity.NotFoundError{Kind: "strategy", Name: id}
	}
	if s.validateSchemas {
		if err := validateSchema(&schema); err != nil {
			s.logger.Error("Strategy schema failed validation", "strategy", id, "error", err)
			return nil, err
		}
	}
	return &schema, nil
}

func (s *strategyServiceImpl) GetParameterGroups(id string) ([]entity.ParameterGroup, error) {
	schema, err := s.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	return schema.ParameterGroups, nil
}

// GetParametersByGroup returns an empty map for a group with no parameters.
func (s *strategyServiceImpl) GetParametersByGroup(id string, group int) (map[string]entity.ParameterDefinition, error) {
	if group < 0 {
		return nil, fmt.Errorf("%w: group must be non-negative, got %d", entity.ErrInvalidArgument, group)
	}
	schema, err := s.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]entity.ParameterDefinition)
	for _, p := range schema.Parameters {
		if p.Group == group {
			out[p.ID] = p
		}
	}
	return out, nil
}

func (s *strategyServiceImpl) GetParametersByContractGroup(id string, contractGroup string) (map[string]entity.ParameterDefinition, error) {
	if strings.TrimSpace(contractGroup) == "" {
		return nil, fmt.Errorf("%w: contract group", entity.ErrMissingArgument)
	}
	schema, err := s.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]entity.ParameterDefinition)
	for _, p := range schema.Parameters {
		if p.ContractGroup == contractGroup {
			out[p.ID] = p
		}
	}
	return out, nil
}

func (s *strategyServiceImpl) GetAvailableTemplates(id string) ([]entity.StrategyTemplate, error) {
	schema, err := s.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	return schema.Templates, nil
}

// GetDefaultParams returns every parameter's own default.
func (s *strategyServiceImpl) GetDefaultParams(id string) (entity.ParamValues, error) {
	schema, err := s.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	return parameterDefaults(schema), nil
}

// GetTemplateDefaults overlays a template's values on the parameter defaults.
// The "custom" template yields the plain defaults.
func (s *strategyServiceImpl) GetTemplateDefaults(id string, templateID string) (entity.ParamValues, error) {
	schema, err := s.GetStrategy(id)
	if err != nil {
		return nil, err
	}
	values := parameterDefaults(schema)
	if templateID == "" || templateID == entity.CustomTemplateID {
		return values, nil
	}
	tmpl, ok := schema.Template(templateID)
	if !ok {
		return nil, &entity.NotFoundError{Kind: "template", Name: templateID}
	}
	for k, v := range tmpl.Defaults {
		values[k] = v
	}
	return values, nil
}

func parameterDefaults(schema *entity.StrategySchema) entity.ParamValues {
	values := make(entity.ParamValues, len(schema.Parameters))
	for _, p := range schema.Parameters {
		if p.Default.IsSet() {
			values[p.ID] = p.Default
		}
	}
	return values
}

// ValidateParams collects every problem instead of stopping at the first one.
func (s *strategyServiceImpl) ValidateParams(id string, values entity.ParamValues) (entity.ValidationResult, error) {
	schema, err := s.GetStrategy(id)
	if err != nil {
		return entity.ValidationResult{}, err
	}

	errs := make(map[string]string)
	for _, p := range schema.Parameters {
		if !conditionMet(schema, p.Condition, values) {
			continue
		}
		v, present := values[p.ID]
		if !present || !v.IsSet() {
			if !p.Optional {
				errs[p.ID] = fmt.Sprintf("%s is required", p.Name)
			}
			continue
		}
		if msg := checkValue(p, v); msg != "" {
			errs[p.ID] = msg
		}
	}
	for key := range values {
		if _, ok := schema.Parameter(key); !ok {
			errs[key] = "Unknown parameter: " + key
		}
	}

	return entity.ValidationResult{IsValid: len(errs) == 0, Errors: errs}, nil
}

// conditionMet evaluates a guard against the supplied value, or the
// controlling parameter's default when the value is absent.
func conditionMet(schema *entity.StrategySchema, cond *entity.ParameterCondition, values entity.ParamValues) bool {
	if cond == nil {
		return true
	}
	actual, ok := values[cond.ParameterID]
	if !ok || !actual.IsSet() {
		ctrl, found := schema.Parameter(cond.ParameterID)
		if !found {
			return false
		}
		actual = ctrl.Default
	}
	return actual.Equal(cond.Value)
}

func checkValue(p entity.ParameterDefinition, v entity.ParamValue) string {
	switch p.Type {
	case entity.ParamTypeBoolean:
		if _, ok := v.BoolValue(); !ok {
			return fmt.Sprintf("%s must be true or false", p.Name)
		}
	case entity.ParamTypeSelect:
		str, ok := v.StringValue()
		if !ok {
			return fmt.Sprintf("%s must be one of: %s", p.Name, optionList(p.Options))
		}
		for _, opt := range p.Options {
			if opt.Value == str {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", p.Name, optionList(p.Options))
	default:
		n, ok := v.Float()
		if !ok {
			return fmt.Sprintf("%s must be a number", p.Name)
		}
		if p.Min != nil && n < *p.Min {
			return fmt.Sprintf("%s must be at least %v", p.Name, *p.Min)
		}
		if p.Max != nil && n > *p.Max {
			return fmt.Sprintf("%s must be at most %v", p.Name, *p.Max)
		}
	}
	return ""
}

func optionList(opts []entity.SelectOption) string {
	vals := make([]string, len(opts))
	for i, o := range opts {
		vals[i] = o.Value
	}
	return strings.Join(vals, ", ")
}

// DecodeParameters maps a raw getAllParameters tuple to named values.
// Basis-point slots are divided by 100, currency slots become two-decimal strings.
func (s *strategyServiceImpl) DecodeParameters(id string, raw []any) (entity.ParamValues, error) {
	kind, layout, err := s.layoutFor(id)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(layout) {
		return nil, &entity.ArityError{StrategyID: id, Expected: len(layout), Got: len(raw)}
	}

	out := make(entity.ParamValues, len(layout))
	for i, slot := range layout {
		switch slot.Kind {
		case strategydef.SlotBool:
			b, ok := raw[i].(bool)
			if !ok {
				return nil, slotTypeError(id, slot, i, raw[i])
			}
			out[slot.Field] = entity.BoolParam(b)
		case strategydef.SlotBasisPoints:
			n, ok := toBigInt(raw[i])
			if !ok {
				return nil, slotTypeError(id, slot, i, raw[i])
			}
			out[slot.Field] = entity.NumberParam(decimal.NewFromBigInt(n, -2).InexactFloat64())
		case strategydef.SlotCurrency:
			n, ok := toBigInt(raw[i])
			if !ok {
				return nil, slotTypeError(id, slot, i, raw[i])
			}
			out[slot.Field] = entity.StringParam(utils.FormatUnits(n, currencyDecimals))
		default:
			return nil, fmt.Errorf("strategy %s (kind %d): unsupported slot kind %d", id, kind, slot.Kind)
		}
	}
	return out, nil
}

// EncodeParameters is the inverse of DecodeParameters. Numeric slots come back as *big.Int.
func (s *strategyServiceImpl) EncodeParameters(id string, values entity.ParamValues) ([]any, error) {
	_, layout, err := s.layoutFor(id)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(layout))
	for i, slot := range layout {
		v, ok := values[slot.Field]
		if !ok || !v.IsSet() {
			return nil, fmt.Errorf("strategy %s: %w: %s", id, entity.ErrMissingArgument, slot.Field)
		}
		switch slot.Kind {
		case strategydef.SlotBool:
			b, ok := v.BoolValue()
			if !ok {
				return nil, slotTypeError(id, slot, i, v.Interface())
			}
			out[i] = b
		case strategydef.SlotBasisPoints:
			n, ok := v.Float()
			if !ok {
				return nil, slotTypeError(id, slot, i, v.Interface())
			}
			out[i] = decimal.NewFromFloat(n).Shift(2).Round(0).BigInt()
		case strategydef.SlotCurrency:
			var amount *big.Int
			if str, isStr := v.StringValue(); isStr {
				amount, err = utils.ParseUnits(str, currencyDecimals)
				if err != nil {
					return nil, fmt.Errorf("strategy %s: %s: %w", id, slot.Field, err)
				}
			} else if n, isNum := v.Float(); isNum {
				amount = decimal.NewFromFloat(n).Shift(currencyDecimals).Round(0).BigInt()
			} else {
				return nil, slotTypeError(id, slot, i, v.Interface())
			}
			out[i] = amount
		}
	}
	return out, nil
}

func (s *strategyServiceImpl) layoutFor(id string) (strategydef.Kind, []strategydef.Slot, error) {
	if _, err := s.GetStrategy(id); err != nil {
		return 0, nil, err
	}
	kind, ok := strategydef.KindOf(id)
	if !ok {
		return 0, nil, &entity.NotFoundError{Kind: "parameter layout", Name: id}
	}
	layout := kind.Layout()
	if layout == nil {
		return 0, nil, &entity.NotFoundError{Kind: "parameter layout", Name: id}
	}
	return kind, layout, nil
}

func slotTypeError(id string, slot strategydef.Slot, i int, got any) error {
	return &entity.TypeError{StrategyID: id, Field: slot.Field, Slot: i, Expected: slot.Kind.String(), Got: got}
}

// toBigInt accepts the integer shapes abi.Unpack produces plus integral floats.
func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	case big.Int:
		return &n, true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case int:
		return big.NewInt(int64(n)), true
	case float64:
		d := decimal.NewFromFloat(n)
		if !d.IsInteger() {
			return nil, false
		}
		return d.BigInt(), true
	}
	return nil, false
}

func (s *strategyServiceImpl) GetSetterMethod(id string, contractGroup string) (string, error) {
	schema, err := s.GetStrategy(id)
	if err != nil {
		return "", err
	}
	group, ok := schema.ContractParametersGroups[contractGroup]
	if !ok {
		return "", &entity.NotFoundError{Kind: "contract parameter group", Name: contractGroup}
	}
	if group.SetterMethod == "" {
		return "", &entity.SchemaInvalidError{
			StrategyID: schema.ID,
			Field:      "contractParametersGroups." + contractGroup + ".setterMethod",
			Reason:     "missing setter method",
		}
	}
	return group.SetterMethod, nil
}

// ValidateTokensForStrategy returns one message naming every vault token the
// strategy does not list, or an empty slice.
func (s *strategyServiceImpl) ValidateTokensForStrategy(vaultTokens []string, strategyTokens []string) []string {
	supported := make(map[string]struct{}, len(strategyTokens))
	for _, t := range strategyTokens {
		supported[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}
	var unsupported []string
	for _, t := range utils.UniqueUpper(vaultTokens) {
		if _, ok := supported[t]; !ok {
			unsupported = append(unsupported, t)
		}
	}
	if len(unsupported) == 0 {
		return []string{}
	}
	return []string{"Vault contains tokens not supported by this strategy: " + strings.Join(unsupported, ", ")}
}

func validateSchema(s *entity.StrategySchema) error {
	invalid := func(field, reason string) error {
		return &entity.SchemaInvalidError{StrategyID: s.ID, Field: field, Reason: reason}
	}
	switch {
	case s.ID == "":
		return invalid("id", "empty")
	case s.Name == "":
		return invalid("name", "empty")
	case s.Description == "":
		return invalid("description", "empty")
	case !s.TokenSupport.Valid():
		return invalid("tokenSupport", fmt.Sprintf("unknown value %q", s.TokenSupport))
	case s.TokenSupport == entity.TokenSupportCustom && len(s.SupportedTokens) == 0:
		return invalid("supportedTokens", "required for custom token support")
	case s.MinTokens < 0 || s.MaxTokens < s.MinTokens:
		return invalid("maxTokens", "must be >= minTokens")
	case s.MinPlatforms < 0 || s.MaxPlatforms < s.MinPlatforms:
		return invalid("maxPlatforms", "must be >= minPlatforms")
	case s.Parameters == nil:
		return invalid("parameters", "missing")
	case s.ParameterGroups == nil:
		return invalid("parameterGroups", "missing")
	case s.Templates == nil:
		return invalid("templates", "missing")
	}

	groups := make(map[int]struct{}, len(s.ParameterGroups))
	for _, g := range s.ParameterGroups {
		groups[g.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(s.Parameters))
	for _, p := range s.Parameters {
		field := "parameters." + p.ID
		if _, dup := seen[p.ID]; dup {
			return invalid(field, "duplicate id")
		}
		seen[p.ID] = struct{}{}
		if _, ok := groups[p.Group]; !ok {
			return invalid(field+".group", fmt.Sprintf("undeclared group %d", p.Group))
		}
		if p.ContractGroup == "" {
			return invalid(field+".contractGroup", "empty")
		}
		if p.Type == entity.ParamTypeSelect && len(p.Options) == 0 {
			return invalid(field+".options", "select parameter without options")
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return invalid(field+".min", "greater than max")
		}
	}
	for _, p := range s.Parameters {
		if p.Condition == nil {
			continue
		}
		if _, ok := seen[p.Condition.ParameterID]; !ok {
			return invalid("parameters."+p.ID+".condition", "references unknown parameter "+p.Condition.ParameterID)
		}
	}

	names := make([]string, 0, len(s.ContractParametersGroups))
	for name := range s.ContractParametersGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, pid := range s.ContractParametersGroups[name].Parameters {
			if _, ok := seen[pid]; !ok {
				return invalid("contractParametersGroups."+name, "references unknown parameter "+pid)
			}
		}
	}
	return nil
}
