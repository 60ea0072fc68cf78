package service

import (
	"errors"
	"math/big"
	"testing"

	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/strategydef"
	"vault_client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStrategyService(t *testing.T) *strategyServiceImpl {
	t.Helper()
	svc, ok := NewStrategyService(strategydef.All(), true, logger.Nop()).(*strategyServiceImpl)
	require.True(t, ok)
	return svc
}

func TestDecodeBobParameters(t *testing.T) {
	svc := newTestStrategyService(t)

	raw := []any{uint16(10200), uint16(9800), uint16(200), uint16(200), true, big.NewInt(10000), uint16(8000), uint16(50), uint16(100), uint16(9500)}
	got, err := svc.DecodeParameters("bob", raw)
	require.NoError(t, err)

	want := entity.ParamValues{
		"targetRangeUpper":        entity.NumberParam(102),
		"targetRangeLower":        entity.NumberParam(98),
		"rebalanceThresholdUpper": entity.NumberParam(2),
		"rebalanceThresholdLower": entity.NumberParam(2),
		"feeReinvestment":         entity.BoolParam(true),
		"reinvestmentTrigger":     entity.StringParam("100.0"),
		"reinvestmentRatio":       entity.NumberParam(80),
		"maxSlippage":             entity.NumberParam(0.5),
		"emergencyExitTrigger":    entity.NumberParam(1),
		"maxUtilization":          entity.NumberParam(95),
	}
	assert.Equal(t, want, got)
}

func TestDecodeFedParameters(t *testing.T) {
	svc := newTestStrategyService(t)

	got, err := svc.DecodeParameters("FED", []any{500, 200, true, 100})
	require.NoError(t, err)
	assert.Equal(t, entity.ParamValues{
		"targetRange":        entity.NumberParam(5),
		"rebalanceThreshold": entity.NumberParam(2),
		"feeReinvestment":    entity.BoolParam(true),
		"maxSlippage":        entity.NumberParam(1),
	}, got)
}

func TestDecodeParametersErrors(t *testing.T) {
	svc := newTestStrategyService(t)

	_, err := svc.DecodeParameters("fed", []any{500, 200, true})
	var arity *entity.ArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 4, arity.Expected)
	assert.Equal(t, 3, arity.Got)

	_, err = svc.DecodeParameters("fed", []any{500, 200, "yes", 100})
	var typeErr *entity.TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "feeReinvestment", typeErr.Field)
	assert.Equal(t, 2, typeErr.Slot)

	_, err = svc.DecodeParameters("fed", []any{true, 200, true, 100})
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, 0, typeErr.Slot)

	_, err = svc.DecodeParameters("parris", []any{})
	var notFound *entity.NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = svc.DecodeParameters("none", []any{})
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "parameter layout", notFound.Kind)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	svc := newTestStrategyService(t)

	for _, id := range []string{"bob", "fed"} {
		for _, tmpl := range []string{"custom", "conservative", "moderate", "aggressive", "stability", "yield"} {
			values, err := svc.GetTemplateDefaults(id, tmpl)
			if err != nil {
				continue
			}
			delete(values, "priceOracle")

			raw, err := svc.EncodeParameters(id, values)
			require.NoError(t, err, "%s/%s", id, tmpl)
			decoded, err := svc.DecodeParameters(id, raw)
			require.NoError(t, err, "%s/%s", id, tmpl)

			for k, v := range decoded {
				orig := values[k]
				if orig.Kind() == entity.ParamKindNumber && v.Kind() == entity.ParamKindString {
					want, _ := orig.Float()
					have, _ := v.Float()
					assert.InDelta(t, want, have, 1e-9, "%s/%s %s", id, tmpl, k)
					continue
				}
				assert.True(t, orig.Equal(v), "%s/%s %s: %v != %v", id, tmpl, k, orig, v)
			}
		}
	}
}

func TestListStrategies(t *testing.T) {
	svc := newTestStrategyService(t)

	assert.Equal(t, []string{"none", "bob", "fed"}, svc.ListStrategyIDs())
	available := svc.ListAvailableStrategies()
	require.Len(t, available, 2)
	for _, s := range available {
		assert.NotEqual(t, strategydef.StrategyNone, s.ID)
	}
}

func TestEveryStrategyPassesSchemaValidation(t *testing.T) {
	svc := newTestStrategyService(t)
	for _, id := range svc.ListStrategyIDs() {
		_, err := svc.GetStrategy(id)
		assert.NoError(t, err, id)
	}
}

func TestGetStrategyRejectsInvalidSchema(t *testing.T) {
	broken := strategydef.All()
	broken[1].Description = ""
	svc := NewStrategyService(broken, true, logger.Nop())

	_, err := svc.GetStrategy("bob")
	var schemaErr *entity.SchemaInvalidError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "description", schemaErr.Field)

	lenient := NewStrategyService(broken, false, logger.Nop())
	_, err = lenient.GetStrategy("bob")
	assert.NoError(t, err)
}

func TestDefaultsAreValid(t *testing.T) {
	svc := newTestStrategyService(t)
	for _, id := range svc.ListStrategyIDs() {
		defaults, err := svc.GetDefaultParams(id)
		require.NoError(t, err)
		res, err := svc.ValidateParams(id, defaults)
		require.NoError(t, err)
		assert.True(t, res.IsValid, "%s: %v", id, res.Errors)

		templates, err := svc.GetAvailableTemplates(id)
		require.NoError(t, err)
		for _, tmpl := range templates {
			values, err := svc.GetTemplateDefaults(id, tmpl.ID)
			require.NoError(t, err)
			res, err := svc.ValidateParams(id, values)
			require.NoError(t, err)
			assert.True(t, res.IsValid, "%s/%s: %v", id, tmpl.ID, res.Errors)
		}
	}
}

func TestValidateParams(t *testing.T) {
	svc := newTestStrategyService(t)
	base, err := svc.GetDefaultParams("bob")
	require.NoError(t, err)

	t.Run("unknown key", func(t *testing.T) {
		values := clone(base)
		values["leverage"] = entity.NumberParam(3)
		res, err := svc.ValidateParams("bob", values)
		require.NoError(t, err)
		assert.False(t, res.IsValid)
		assert.Equal(t, "Unknown parameter: leverage", res.Errors["leverage"])
	})

	t.Run("range and type errors are collected", func(t *testing.T) {
		values := clone(base)
		values["maxSlippage"] = entity.NumberParam(9)
		values["targetRangeUpper"] = entity.NumberParam(0)
		values["feeReinvestment"] = entity.StringParam("yes")
		res, err := svc.ValidateParams("bob", values)
		require.NoError(t, err)
		assert.Len(t, res.Errors, 3)
		assert.Contains(t, res.Errors["maxSlippage"], "at most")
		assert.Contains(t, res.Errors["targetRangeUpper"], "at least")
		assert.Contains(t, res.Errors["feeReinvestment"], "true or false")
	})

	t.Run("guarded parameters skipped when guard unmet", func(t *testing.T) {
		values := clone(base)
		values["feeReinvestment"] = entity.BoolParam(false)
		delete(values, "reinvestmentTrigger")
		delete(values, "reinvestmentRatio")
		res, err := svc.ValidateParams("bob", values)
		require.NoError(t, err)
		assert.True(t, res.IsValid, res.Errors)
	})

	t.Run("guarded parameters required when guard met", func(t *testing.T) {
		values := clone(base)
		delete(values, "reinvestmentTrigger")
		res, err := svc.ValidateParams("bob", values)
		require.NoError(t, err)
		assert.Equal(t, "Reinvestment Trigger is required", res.Errors["reinvestmentTrigger"])
	})

	t.Run("fiat string accepted", func(t *testing.T) {
		values := clone(base)
		values["reinvestmentTrigger"] = entity.StringParam("100.0")
		res, err := svc.ValidateParams("bob", values)
		require.NoError(t, err)
		assert.True(t, res.IsValid, res.Errors)
	})

	t.Run("select membership", func(t *testing.T) {
		values := clone(base)
		values["priceOracle"] = entity.StringParam("uniswap")
		res, err := svc.ValidateParams("bob", values)
		require.NoError(t, err)
		assert.Equal(t, "Price Oracle must be one of: chainlink, twap", res.Errors["priceOracle"])
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := svc.ValidateParams("parris", base)
		var notFound *entity.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})
}

func TestParameterGroupLookups(t *testing.T) {
	svc := newTestStrategyService(t)

	byGroup, err := svc.GetParametersByGroup("bob", 2)
	require.NoError(t, err)
	assert.Len(t, byGroup, 3)
	assert.Contains(t, byGroup, "maxSlippage")

	empty, err := svc.GetParametersByGroup("bob", 42)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.GetParametersByGroup("bob", -1)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
	assert.NotErrorIs(t, err, entity.ErrMissingArgument)

	byContract, err := svc.GetParametersByContractGroup("fed", "range")
	require.NoError(t, err)
	assert.Len(t, byContract, 2)

	_, err = svc.GetParametersByGroup("parris", 0)
	var notFound *entity.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	setter, err := svc.GetSetterMethod("bob", "fees")
	require.NoError(t, err)
	assert.Equal(t, "setFeeParameters", setter)

	_, err = svc.GetSetterMethod("bob", "leverage")
	assert.ErrorAs(t, err, &notFound)
}

func TestGetSetterMethodMissing(t *testing.T) {
	schemas := strategydef.All()
	schemas[2].ContractParametersGroups["fees"] = entity.ContractParametersGroup{Parameters: []string{"feeReinvestment"}}
	svc := NewStrategyService(schemas, false, logger.Nop())

	_, err := svc.GetSetterMethod("fed", "fees")
	var schemaErr *entity.SchemaInvalidError
	require.ErrorAs(t, err, &schemaErr)
}

func TestTemplateDefaults(t *testing.T) {
	svc := newTestStrategyService(t)

	aggressive, err := svc.GetTemplateDefaults("bob", "aggressive")
	require.NoError(t, err)
	assert.Equal(t, entity.NumberParam(2), aggressive["targetRangeUpper"])
	assert.Equal(t, entity.BoolParam(true), aggressive["feeReinvestment"])

	_, err = svc.GetTemplateDefaults("bob", "yolo")
	var notFound *entity.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestValidateTokensForStrategy(t *testing.T) {
	svc := newTestStrategyService(t)

	assert.Empty(t, svc.ValidateTokensForStrategy([]string{"usdc", "USDT"}, []string{"USDC", "USDT", "DAI"}))
	msgs := svc.ValidateTokensForStrategy([]string{"WETH", "USDC", "WBTC"}, []string{"USDC", "USDT"})
	require.Len(t, msgs, 1)
	assert.Equal(t, "Vault contains tokens not supported by this strategy: WETH, WBTC", msgs[0])
}

func clone(v entity.ParamValues) entity.ParamValues {
	out := make(entity.ParamValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
