package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mm-quote-engine/numeric"
)

// ConcentrationResult reports the book's diversification on a 0-100 scale.
type ConcentrationResult struct {
	Herfindahl    decimal.Decimal // raw index over position value shares
	Score         decimal.Decimal // rescaled between 1/n (0) and 1 (100)
	ExposureRatio decimal.Decimal // gross position value over capital
}

// ConcentrationRisk computes a Herfindahl index over the absolute position
// values and rescales it against the theoretical bounds: 1/n for a
// perfectly diversified book, 1 for everything in one instrument. A single
// position scores 100 by definition.
func ConcentrationRisk(positionValues []decimal.Decimal, capital decimal.Decimal) (ConcentrationResult, error) {
	if capital.Sign() <= 0 {
		return ConcentrationResult{}, fmt.Errorf("%w: capital %s must be > 0", ErrInvalidInput, capital)
	}
	if len(positionValues) == 0 {
		return ConcentrationResult{}, fmt.Errorf("%w: no positions", ErrInvalidInput)
	}

	gross := decimal.Zero
	for _, v := range positionValues {
		gross = gross.Add(v.Abs())
	}
	exposure, err := numeric.SafeDiv(gross, capital)
	if err != nil {
		return ConcentrationResult{}, err
	}
	if gross.IsZero() {
		// Flat book: nothing concentrated anywhere.
		return ConcentrationResult{ExposureRatio: exposure}, nil
	}

	h := decimal.Zero
	for _, v := range positionValues {
		share, err := numeric.SafeDiv(v.Abs(), gross)
		if err != nil {
			return ConcentrationResult{}, err
		}
		h = h.Add(share.Mul(share))
	}

	res := ConcentrationResult{Herfindahl: h, ExposureRatio: exposure}

	n := decimal.NewFromInt(int64(len(positionValues)))
	hMin, err := numeric.SafeDiv(numeric.One, n)
	if err != nil {
		return ConcentrationResult{}, err
	}
	span := numeric.One.Sub(hMin)
	if span.IsZero() {
		res.Score = decimal.NewFromInt(100)
		return res, nil
	}

	score, err := numeric.SafeDiv(h.Sub(hMin), span)
	if err != nil {
		return ConcentrationResult{}, err
	}
	res.Score = numeric.Clamp(score.Mul(decimal.NewFromInt(100)), decimal.Zero, decimal.NewFromInt(100))
	return res, nil
}
