package uniswapv3

import "math/big"

// mathPrec is the mantissa size, in bits, of every intermediate price value.
const mathPrec = 256

var (
	q96         = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))
	tickBase, _ = new(big.Float).SetPrec(mathPrec).SetString("1.0001")
)

// tickToSqrtPrice returns sqrt(1.0001^tick) at mathPrec bits, raising the base
// by repeated squaring.
func tickToSqrtPrice(tick int) *big.Float {
	n := tick
	if n < 0 {
		n = -n
	}
	price := new(big.Float).SetPrec(mathPrec).SetInt64(1)
	base := new(big.Float).SetPrec(mathPrec).Set(tickBase)
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			price.Mul(price, base)
		}
		base.Mul(base, base)
	}
	if tick < 0 {
		price.Quo(new(big.Float).SetPrec(mathPrec).SetInt64(1), price)
	}
	return new(big.Float).SetPrec(mathPrec).Sqrt(price)
}

// sqrtPriceFromX96 converts a Q64.96 sqrt price to a float.
func sqrtPriceFromX96(sqrtPriceX96 *big.Int) *big.Float {
	return new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96)
}

// positionAmounts returns the token0 and token1 amounts held by liquidity in
// [tickLower, tickUpper) at the given pool price. sqrtPriceX96 takes precedence
// over tick when it is set.
func positionAmounts(liquidity, sqrtPriceX96 *big.Int, tick, tickLower, tickUpper int) (*big.Int, *big.Int) {
	amount0, amount1 := new(big.Float), new(big.Float)
	if liquidity.Sign() == 0 {
		return big.NewInt(0), big.NewInt(0)
	}

	l := new(big.Float).SetInt(liquidity)
	sqrtA := tickToSqrtPrice(tickLower)
	sqrtB := tickToSqrtPrice(tickUpper)

	var sqrtP *big.Float
	if sqrtPriceX96 != nil && sqrtPriceX96.Sign() > 0 {
		sqrtP = sqrtPriceFromX96(sqrtPriceX96)
	} else {
		sqrtP = tickToSqrtPrice(tick)
	}

	switch {
	case sqrtP.Cmp(sqrtA) <= 0:
		// весь объём в token0
		amount0 = token0Amount(l, sqrtA, sqrtB)
	case sqrtP.Cmp(sqrtB) >= 0:
		amount1 = token1Amount(l, sqrtA, sqrtB)
	default:
		amount0 = token0Amount(l, sqrtP, sqrtB)
		amount1 = token1Amount(l, sqrtA, sqrtP)
	}

	raw0, _ := amount0.Int(nil)
	raw1, _ := amount1.Int(nil)
	return raw0, raw1
}

// L * (sqrtB - sqrtA) / (sqrtA * sqrtB)
func token0Amount(l, sqrtA, sqrtB *big.Float) *big.Float {
	num := new(big.Float).Mul(l, new(big.Float).Sub(sqrtB, sqrtA))
	return num.Quo(num, new(big.Float).Mul(sqrtA, sqrtB))
}

// L * (sqrtB - sqrtA)
func token1Amount(l, sqrtA, sqrtB *big.Float) *big.Float {
	return new(big.Float).Mul(l, new(big.Float).Sub(sqrtB, sqrtA))
}
