package amm

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// SwapResult carries the priced trade and the successor pool state.
type SwapResult struct {
	AmountOut decimal.Decimal
	FeePaid   decimal.Decimal
	Pool      Pool
}

// Swap prices amountIn of one asset against the pool. asset1In selects the
// trade direction. The input pool is never mutated; the fee stays in the
// pool, so for constant-product the post-trade invariant is >= the old K.
func (p Pool) Swap(amountIn decimal.Decimal, asset1In bool) (SwapResult, error) {
	if amountIn.Sign() <= 0 {
		return SwapResult{}, fmt.Errorf("%w: amount in %s must be > 0", ErrInvalidTrade, amountIn)
	}

	reserveIn, reserveOut := p.Reserve1, p.Reserve2
	if !asset1In {
		reserveIn, reserveOut = p.Reserve2, p.Reserve1
	}

	netIn := amountIn.Mul(numeric.One.Sub(p.FeePct))
	fee := amountIn.Sub(netIn)

	var out decimal.Decimal
	var err error
	switch p.Algorithm {
	case ConstantProduct:
		out, err = constantProductOut(reserveIn, reserveOut, netIn)
	case ConstantSum:
		out = netIn
	case Hybrid:
		out, err = p.hybridOut(reserveIn, reserveOut, netIn)
	default:
		return SwapResult{}, fmt.Errorf("%w: %q cannot price swaps", ErrUnsupportedAlgorithm, p.Algorithm)
	}
	if err != nil {
		return SwapResult{}, err
	}
	if out.GreaterThanOrEqual(reserveOut) {
		return SwapResult{}, fmt.Errorf("%w: out %s >= reserve %s", ErrInsufficientReserve, out, reserveOut)
	}

	next := p
	if asset1In {
		next.Reserve1 = p.Reserve1.Add(amountIn)
		next.Reserve2 = p.Reserve2.Sub(out)
	} else {
		next.Reserve2 = p.Reserve2.Add(amountIn)
		next.Reserve1 = p.Reserve1.Sub(out)
	}
	next, err = next.refresh()
	if err != nil {
		return SwapResult{}, err
	}

	return SwapResult{AmountOut: out, FeePaid: fee, Pool: next}, nil
}

// constantProductOut prices against x*y=k:
// out = reserveOut - k/(reserveIn + netIn).
func constantProductOut(reserveIn, reserveOut, netIn decimal.Decimal) (decimal.Decimal, error) {
	k := reserveIn.Mul(reserveOut)
	denom := reserveIn.Add(netIn)
	quot, err := numeric.SafeDiv(k, denom)
	if err != nil {
		return decimal.Zero, err
	}
	return reserveOut.Sub(quot), nil
}

// hybridOut blends constant-sum and constant-product by pool balance:
// at perfectly balanced reserves the pool quotes 1:1, and the weight decays
// linearly to pure constant-product as the reserves drift apart.
func (p Pool) hybridOut(reserveIn, reserveOut, netIn decimal.Decimal) (decimal.Decimal, error) {
	ratio, err := numeric.SafeDiv(p.Reserve1, p.Reserve2)
	if err != nil {
		return decimal.Zero, err
	}
	imbalance := numeric.Clamp(ratio.Sub(numeric.One).Abs(), decimal.Zero, decimal.RequireFromString("0.5"))
	sumWeight := numeric.One.Sub(numeric.Two.Mul(imbalance))

	cpOut, err := constantProductOut(reserveIn, reserveOut, netIn)
	if err != nil {
		return decimal.Zero, err
	}
	csOut := netIn

	blended := sumWeight.Mul(csOut).Add(numeric.One.Sub(sumWeight).Mul(cpOut))
	return blended, nil
}
