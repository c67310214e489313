package amm

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// AddLiquidity deposits both assets and mints LP shares: sqrt(a1*a2) for
// the first deposit, pro-rata against the smaller reserve ratio afterwards.
// Returns the successor pool and the minted share count.
func (p Pool) AddLiquidity(amount1, amount2 decimal.Decimal) (Pool, decimal.Decimal, error) {
	if amount1.Sign() <= 0 || amount2.Sign() <= 0 {
		return Pool{}, decimal.Zero, fmt.Errorf("%w: deposit amounts must be > 0", ErrInvalidTrade)
	}

	var minted decimal.Decimal
	if p.LPSupply.IsZero() {
		root, err := numeric.Sqrt(amount1.Mul(amount2))
		if err != nil {
			return Pool{}, decimal.Zero, err
		}
		minted = root
	} else {
		share1, err := numeric.SafeDiv(amount1, p.Reserve1)
		if err != nil {
			return Pool{}, decimal.Zero, err
		}
		share2, err := numeric.SafeDiv(amount2, p.Reserve2)
		if err != nil {
			return Pool{}, decimal.Zero, err
		}
		minted = decimal.Min(share1, share2).Mul(p.LPSupply)
	}

	next := p
	next.Reserve1 = p.Reserve1.Add(amount1)
	next.Reserve2 = p.Reserve2.Add(amount2)
	next.LPSupply = p.LPSupply.Add(minted)
	next, err := next.refresh()
	if err != nil {
		return Pool{}, decimal.Zero, err
	}
	return next, minted, nil
}

// RemoveLiquidity burns shares and withdraws both assets pro-rata.
func (p Pool) RemoveLiquidity(shares decimal.Decimal) (Pool, decimal.Decimal, decimal.Decimal, error) {
	if shares.Sign() <= 0 {
		return Pool{}, decimal.Zero, decimal.Zero, fmt.Errorf("%w: shares %s must be > 0", ErrInvalidTrade, shares)
	}
	if shares.GreaterThan(p.LPSupply) {
		return Pool{}, decimal.Zero, decimal.Zero, fmt.Errorf("%w: shares %s > supply %s", ErrInvalidTrade, shares, p.LPSupply)
	}

	frac, err := numeric.SafeDiv(shares, p.LPSupply)
	if err != nil {
		return Pool{}, decimal.Zero, decimal.Zero, err
	}
	out1 := p.Reserve1.Mul(frac)
	out2 := p.Reserve2.Mul(frac)

	next := p
	next.Reserve1 = p.Reserve1.Sub(out1)
	next.Reserve2 = p.Reserve2.Sub(out2)
	next.LPSupply = p.LPSupply.Sub(shares)
	if next.LPSupply.IsZero() {
		// Pool fully drained; keep the record with zeroed shares.
		return next, out1, out2, nil
	}
	next, err = next.refresh()
	if err != nil {
		return Pool{}, decimal.Zero, decimal.Zero, err
	}
	return next, out1, out2, nil
}
