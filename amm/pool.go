// Package amm prices trades against pooled reserves with constant-function
// curves. Every operation is pure: it takes a pool snapshot and returns the
// output amount plus the successor pool state; callers own the swap.
package amm

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// Algorithm selects the pricing curve.
type Algorithm string

const (
	ConstantProduct       Algorithm = "CONSTANT_PRODUCT"
	ConstantSum           Algorithm = "CONSTANT_SUM"
	Hybrid                Algorithm = "HYBRID"
	ConcentratedLiquidity Algorithm = "CONCENTRATED_LIQUIDITY"
)

var (
	ErrInvalidPool          = errors.New("invalid pool state")
	ErrInvalidTrade         = errors.New("invalid trade")
	ErrInsufficientReserve  = errors.New("insufficient output reserve")
	ErrUnsupportedAlgorithm = errors.New("unsupported pool algorithm")
)

// Pool is an immutable snapshot of one liquidity pool.
type Pool struct {
	ID        string
	Algorithm Algorithm
	Reserve1  decimal.Decimal
	Reserve2  decimal.Decimal
	LPSupply  decimal.Decimal
	FeePct    decimal.Decimal // e.g. 0.003
	K         decimal.Decimal // reserve1*reserve2 at last rebase, constant-product invariant
	Price     decimal.Decimal // reserve2 per unit of reserve1
}

// NewPool validates and builds a pool snapshot from its reserves.
func NewPool(id string, algo Algorithm, reserve1, reserve2, feePct decimal.Decimal) (Pool, error) {
	if reserve1.Sign() <= 0 || reserve2.Sign() <= 0 {
		return Pool{}, fmt.Errorf("%w: reserves must be > 0 (r1=%s r2=%s)", ErrInvalidPool, reserve1, reserve2)
	}
	if feePct.Sign() < 0 || feePct.GreaterThanOrEqual(numeric.One) {
		return Pool{}, fmt.Errorf("%w: fee %s out of [0, 1)", ErrInvalidPool, feePct)
	}
	switch algo {
	case ConstantProduct, ConstantSum, Hybrid, ConcentratedLiquidity:
	default:
		return Pool{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}

	p := Pool{
		ID:        id,
		Algorithm: algo,
		Reserve1:  reserve1,
		Reserve2:  reserve2,
		FeePct:    feePct,
	}
	p.K = reserve1.Mul(reserve2)
	price, err := numeric.SafeDiv(reserve2, reserve1)
	if err != nil {
		return Pool{}, err
	}
	p.Price = price
	return p, nil
}

// refresh recomputes the derived fields after a reserve change.
func (p Pool) refresh() (Pool, error) {
	if p.Reserve1.Sign() <= 0 || p.Reserve2.Sign() <= 0 {
		return Pool{}, fmt.Errorf("%w: reserves must stay > 0", ErrInvalidPool)
	}
	p.K = p.Reserve1.Mul(p.Reserve2)
	price, err := numeric.SafeDiv(p.Reserve2, p.Reserve1)
	if err != nil {
		return Pool{}, err
	}
	p.Price = price
	return p, nil
}
