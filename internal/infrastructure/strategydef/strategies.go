package strategydef

import "vault_client/internal/domain/entity"

func f(v float64) *float64 { return &v }

var (
	num  = entity.NumberParam
	flag = entity.BoolParam
	text = entity.StringParam
)

// All returns the static strategy table. The "none" sentinel comes first.
func All() []entity.StrategySchema {
	return []entity.StrategySchema{none(), bob(), fed()}
}

func none() entity.StrategySchema {
	return entity.StrategySchema{
		ID:                       StrategyNone,
		Name:                     "Manual",
		Description:              "No automated strategy. Positions are managed by the owner.",
		TokenSupport:             entity.TokenSupportAll,
		MaxTokens:                0,
		ParameterGroups:          []entity.ParameterGroup{},
		Parameters:               []entity.ParameterDefinition{},
		Templates:                []entity.StrategyTemplate{},
		TemplateEnumMap:          map[string]uint8{},
		ContractParametersGroups: map[string]entity.ContractParametersGroup{},
	}
}

func bob() entity.StrategySchema {
	feeGuard := &entity.ParameterCondition{ParameterID: "feeReinvestment", Value: flag(true)}
	return entity.StrategySchema{
		ID:              StrategyBob,
		Name:            "Baby Steps",
		Subtitle:        "Concentrated liquidity with automatic rebalancing",
		Description:     "Keeps a single position centered on the current price and rebalances when the price drifts past a threshold.",
		ContractKey:     "BobStrategy",
		TokenSupport:    entity.TokenSupportAll,
		MinTokens:       2,
		MaxTokens:       2,
		MinPlatforms:    1,
		MaxPlatforms:    1,
		ParameterGroups: []entity.ParameterGroup{
			{ID: 0, Name: "Range Settings", Description: "Position width and rebalance triggers"},
			{ID: 1, Name: "Fee Settings", Description: "Fee collection and reinvestment"},
			{ID: 2, Name: "Risk Management", Description: "Slippage and exit limits"},
			{ID: 3, Name: "Oracle", Description: "Price source used for rebalancing"},
		},
		Parameters: []entity.ParameterDefinition{
			{ID: "targetRangeUpper", Name: "Upper Range", Type: entity.ParamTypePercent, Default: num(5), Min: f(0.1), Max: f(20), Step: 0.1, Suffix: "%", Group: 0, ContractGroup: "range",
				Description: "Distance of the upper bound above the current price"},
			{ID: "targetRangeLower", Name: "Lower Range", Type: entity.ParamTypePercent, Default: num(5), Min: f(0.1), Max: f(20), Step: 0.1, Suffix: "%", Group: 0, ContractGroup: "range",
				Description: "Distance of the lower bound below the current price"},
			{ID: "rebalanceThresholdUpper", Name: "Upper Rebalance Trigger", Type: entity.ParamTypePercent, Default: num(1.5), Min: f(0.1), Max: f(10), Step: 0.1, Suffix: "%", Group: 0, ContractGroup: "range"},
			{ID: "rebalanceThresholdLower", Name: "Lower Rebalance Trigger", Type: entity.ParamTypePercent, Default: num(1.5), Min: f(0.1), Max: f(10), Step: 0.1, Suffix: "%", Group: 0, ContractGroup: "range"},
			{ID: "feeReinvestment", Name: "Reinvest Fees", Type: entity.ParamTypeBoolean, Default: flag(true), Group: 1, ContractGroup: "fees"},
			{ID: "reinvestmentTrigger", Name: "Reinvestment Trigger", Type: entity.ParamTypeFiatCurrency, Default: num(50), Min: f(0), Max: f(10000), Step: 1, Group: 1, ContractGroup: "fees",
				Condition: feeGuard, Description: "Minimum uncollected fees in USD before reinvesting"},
			{ID: "reinvestmentRatio", Name: "Reinvestment Ratio", Type: entity.ParamTypePercent, Default: num(80), Min: f(0), Max: f(100), Step: 1, Suffix: "%", Group: 1, ContractGroup: "fees",
				Condition: feeGuard},
			{ID: "maxSlippage", Name: "Max Slippage", Type: entity.ParamTypePercent, Default: num(0.5), Min: f(0.1), Max: f(5), Step: 0.1, Suffix: "%", Group: 2, ContractGroup: "risk"},
			{ID: "emergencyExitTrigger", Name: "Emergency Exit", Type: entity.ParamTypePercent, Default: num(15), Min: f(1), Max: f(50), Step: 1, Suffix: "%", Group: 2, ContractGroup: "risk",
				Description: "Price move that closes every position"},
			{ID: "maxUtilization", Name: "Max Utilization", Type: entity.ParamTypePercent, Default: num(80), Min: f(20), Max: f(100), Step: 1, Suffix: "%", Group: 2, ContractGroup: "risk"},
			{ID: "priceOracle", Name: "Price Oracle", Type: entity.ParamTypeSelect, Default: text("chainlink"), Group: 3, ContractGroup: "oracle", Optional: true,
				Options: []entity.SelectOption{{Value: "chainlink", Label: "Chainlink"}, {Value: "twap", Label: "Pool TWAP"}}},
		},
		Templates: []entity.StrategyTemplate{
			{ID: "conservative", Name: "Conservative", Description: "Wide ranges, infrequent rebalancing", Defaults: entity.ParamValues{
				"targetRangeUpper": num(10), "targetRangeLower": num(10),
				"rebalanceThresholdUpper": num(3), "rebalanceThresholdLower": num(3),
				"maxSlippage": num(0.3), "emergencyExitTrigger": num(10), "maxUtilization": num(60),
			}},
			{ID: "moderate", Name: "Moderate", Description: "Balanced range and rebalance frequency", Defaults: entity.ParamValues{
				"targetRangeUpper": num(5), "targetRangeLower": num(5),
				"rebalanceThresholdUpper": num(1.5), "rebalanceThresholdLower": num(1.5),
				"maxSlippage": num(0.5), "emergencyExitTrigger": num(15), "maxUtilization": num(80),
			}},
			{ID: "aggressive", Name: "Aggressive", Description: "Tight ranges for maximum fee capture", Defaults: entity.ParamValues{
				"targetRangeUpper": num(2), "targetRangeLower": num(2),
				"rebalanceThresholdUpper": num(0.5), "rebalanceThresholdLower": num(0.5),
				"maxSlippage": num(1), "emergencyExitTrigger": num(25), "maxUtilization": num(95),
				"reinvestmentTrigger": num(25), "reinvestmentRatio": num(100),
			}},
			{ID: entity.CustomTemplateID, Name: "Custom", Description: "Set every parameter manually", Defaults: entity.ParamValues{}},
		},
		TemplateEnumMap: map[string]uint8{
			"conservative": 1,
			"moderate":     2,
			"aggressive":   3,
		},
		ContractParametersGroups: map[string]entity.ContractParametersGroup{
			"range":  {SetterMethod: "setRangeParameters", Parameters: []string{"targetRangeUpper", "targetRangeLower", "rebalanceThresholdUpper", "rebalanceThresholdLower"}},
			"fees":   {SetterMethod: "setFeeParameters", Parameters: []string{"feeReinvestment", "reinvestmentTrigger", "reinvestmentRatio"}},
			"risk":   {SetterMethod: "setRiskParameters", Parameters: []string{"maxSlippage", "emergencyExitTrigger", "maxUtilization"}},
			"oracle": {SetterMethod: "setOracleSource", Parameters: []string{"priceOracle"}},
		},
	}
}

func fed() entity.StrategySchema {
	return entity.StrategySchema{
		ID:              StrategyFed,
		Name:            "The Fed",
		Subtitle:        "Stablecoin peg keeper",
		Description:     "Provides tight-range liquidity between stablecoins and rebalances around the peg.",
		ContractKey:     "FedStrategy",
		TokenSupport:    entity.TokenSupportStablecoins,
		SupportedTokens: []string{"USDC", "USDT", "DAI"},
		MinTokens:       2,
		MaxTokens:       2,
		MinPlatforms:    1,
		MaxPlatforms:    1,
		ParameterGroups: []entity.ParameterGroup{
			{ID: 0, Name: "Range Settings"},
			{ID: 1, Name: "Fee Settings"},
			{ID: 2, Name: "Risk Management"},
		},
		Parameters: []entity.ParameterDefinition{
			{ID: "targetRange", Name: "Target Range", Type: entity.ParamTypePercent, Default: num(0.5), Min: f(0.1), Max: f(5), Step: 0.05, Suffix: "%", Group: 0, ContractGroup: "range"},
			{ID: "rebalanceThreshold", Name: "Rebalance Threshold", Type: entity.ParamTypePercent, Default: num(0.2), Min: f(0.05), Max: f(2), Step: 0.05, Suffix: "%", Group: 0, ContractGroup: "range"},
			{ID: "feeReinvestment", Name: "Reinvest Fees", Type: entity.ParamTypeBoolean, Default: flag(true), Group: 1, ContractGroup: "fees"},
			{ID: "maxSlippage", Name: "Max Slippage", Type: entity.ParamTypePercent, Default: num(0.1), Min: f(0.01), Max: f(1), Step: 0.01, Suffix: "%", Group: 2, ContractGroup: "risk"},
		},
		Templates: []entity.StrategyTemplate{
			{ID: "stability", Name: "Stability", Description: "Tightest peg band", Defaults: entity.ParamValues{
				"targetRange": num(0.2), "rebalanceThreshold": num(0.1), "maxSlippage": num(0.05),
			}},
			{ID: "yield", Name: "Yield", Description: "Wider band, fewer rebalances", Defaults: entity.ParamValues{
				"targetRange": num(1), "rebalanceThreshold": num(0.5), "maxSlippage": num(0.2),
			}},
			{ID: entity.CustomTemplateID, Name: "Custom", Defaults: entity.ParamValues{}},
		},
		TemplateEnumMap: map[string]uint8{
			"stability": 1,
			"yield":     2,
		},
		ContractParametersGroups: map[string]entity.ContractParametersGroup{
			"range": {SetterMethod: "setRangeParameters", Parameters: []string{"targetRange", "rebalanceThreshold"}},
			"fees":  {SetterMethod: "setFeeParameters", Parameters: []string{"feeReinvestment"}},
			"risk":  {SetterMethod: "setRiskParameters", Parameters: []string{"maxSlippage"}},
		},
	}
}
