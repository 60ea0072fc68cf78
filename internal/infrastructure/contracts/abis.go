package contracts

// Contract names known to the registry.
const (
	VaultFactory               = "VaultFactory"
	PositionVault              = "PositionVault"
	BobStrategy                = "BobStrategy"
	FedStrategy                = "FedStrategy"
	ERC20                      = "ERC20"
	NonfungiblePositionManager = "NonfungiblePositionManager"
	UniswapV3Factory           = "UniswapV3Factory"
	UniswapV3Pool              = "UniswapV3Pool"
)

const vaultFactoryABI = `[
{"type":"function","name":"getVaults","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"getVaultInfo","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[{"name":"owner","type":"address"},{"name":"name","type":"string"},{"name":"creationTime","type":"uint256"}]},
{"type":"function","name":"getVaultCount","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"createVault","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"}],"outputs":[{"name":"","type":"address"}]},
{"type":"event","name":"VaultCreated","anonymous":false,"inputs":[{"name":"user","type":"address","indexed":true},{"name":"vault","type":"address","indexed":true},{"name":"name","type":"string","indexed":false}]}
]`

const positionVaultABI = `[
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"executor","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"strategy","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"getPositionIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
{"type":"function","name":"setStrategy","stateMutability":"nonpayable","inputs":[{"name":"strategy","type":"address"}],"outputs":[]},
{"type":"function","name":"setExecutor","stateMutability":"nonpayable","inputs":[{"name":"executor","type":"address"}],"outputs":[]}
]`

// Shared by every strategy contract.
const strategyCommonFunctions = `
{"type":"function","name":"selectedTemplate","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"customizationBitmap","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getSelectedTokens","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[{"name":"","type":"string[]"}]},
{"type":"function","name":"getSelectedPlatforms","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[{"name":"","type":"string[]"}]},
{"type":"function","name":"setTemplate","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"template","type":"uint8"}],"outputs":[]},`

const bobStrategyABI = `[` + strategyCommonFunctions + `
{"type":"function","name":"getAllParameters","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[
 {"name":"targetRangeUpper","type":"uint16"},{"name":"targetRangeLower","type":"uint16"},
 {"name":"rebalanceThresholdUpper","type":"uint16"},{"name":"rebalanceThresholdLower","type":"uint16"},
 {"name":"feeReinvestment","type":"bool"},{"name":"reinvestmentTrigger","type":"uint256"},
 {"name":"reinvestmentRatio","type":"uint16"},{"name":"maxSlippage","type":"uint16"},
 {"name":"emergencyExitTrigger","type":"uint16"},{"name":"maxUtilization","type":"uint16"}]},
{"type":"function","name":"setRangeParameters","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"targetRangeUpper","type":"uint16"},{"name":"targetRangeLower","type":"uint16"},{"name":"rebalanceThresholdUpper","type":"uint16"},{"name":"rebalanceThresholdLower","type":"uint16"}],"outputs":[]},
{"type":"function","name":"setFeeParameters","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"feeReinvestment","type":"bool"},{"name":"reinvestmentTrigger","type":"uint256"},{"name":"reinvestmentRatio","type":"uint16"}],"outputs":[]},
{"type":"function","name":"setRiskParameters","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"maxSlippage","type":"uint16"},{"name":"emergencyExitTrigger","type":"uint16"},{"name":"maxUtilization","type":"uint16"}],"outputs":[]},
{"type":"function","name":"setOracleSource","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"source","type":"uint8"}],"outputs":[]}
]`

const fedStrategyABI = `[` + strategyCommonFunctions + `
{"type":"function","name":"getAllParameters","stateMutability":"view","inputs":[{"name":"vault","type":"address"}],"outputs":[
 {"name":"targetRange","type":"uint16"},{"name":"rebalanceThreshold","type":"uint16"},
 {"name":"feeReinvestment","type":"bool"},{"name":"maxSlippage","type":"uint16"}]},
{"type":"function","name":"setRangeParameters","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"targetRange","type":"uint16"},{"name":"rebalanceThreshold","type":"uint16"}],"outputs":[]},
{"type":"function","name":"setFeeParameters","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"feeReinvestment","type":"bool"}],"outputs":[]},
{"type":"function","name":"setRiskParameters","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"},{"name":"maxSlippage","type":"uint16"}],"outputs":[]}
]`

const erc20ABI = `[
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}
]`

const nonfungiblePositionManagerABI = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"positions","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[
 {"name":"nonce","type":"uint96"},{"name":"operator","type":"address"},
 {"name":"token0","type":"address"},{"name":"token1","type":"address"},{"name":"fee","type":"uint24"},
 {"name":"tickLower","type":"int24"},{"name":"tickUpper","type":"int24"},{"name":"liquidity","type":"uint128"},
 {"name":"feeGrowthInside0LastX128","type":"uint256"},{"name":"feeGrowthInside1LastX128","type":"uint256"},
 {"name":"tokensOwed0","type":"uint128"},{"name":"tokensOwed1","type":"uint128"}]}
]`

const uniswapV3FactoryABI = `[
{"type":"function","name":"getPool","stateMutability":"view","inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint24"}],"outputs":[{"name":"pool","type":"address"}]}
]`

const uniswapV3PoolABI = `[
{"type":"function","name":"slot0","stateMutability":"view","inputs":[],"outputs":[
 {"name":"sqrtPriceX96","type":"uint160"},{"name":"tick","type":"int24"},{"name":"observationIndex","type":"uint16"},
 {"name":"observationCardinality","type":"uint16"},{"name":"observationCardinalityNext","type":"uint16"},
 {"name":"feeProtocol","type":"uint8"},{"name":"unlocked","type":"bool"}]},
{"type":"function","name":"liquidity","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint128"}]},
{"type":"function","name":"token0","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"token1","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"fee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint24"}]}
]`
