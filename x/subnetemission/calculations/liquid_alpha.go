package calculations

import (
	"errors"
	"sync"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

const liquidAlphaPrecision int32 = 18

var (
	decOne = decimal.NewFromInt(1)
	// exp() arguments are clamped here; 1/(1+e^40) is below any usable alpha bound.
	expArgBound = decimal.NewFromInt(40)

	quantileLow  = math.LegacyNewDecWithPrec(25, 2)
	quantileHigh = math.LegacyNewDecWithPrec(75, 2)
)

// decimal's series helpers grow a package-level factorial cache, so
// LiquidAlpha runs one call at a time.
var seriesMu sync.Mutex

var ErrCollapsedConsensus = errors.New("consensus spread is zero")

func toDecimal(d math.LegacyDec) decimal.Decimal {
	return decimal.NewFromBigInt(Saturate(d).BigInt(), -math.LegacyPrecision)
}

func fromDecimal(d decimal.Decimal) math.LegacyDec {
	out, err := math.LegacyNewDecFromStr(d.Truncate(math.LegacyPrecision).String())
	if err != nil {
		return math.LegacyZeroDec()
	}
	return Saturate(out)
}

// logit returns ln(1/alpha - 1).
func logit(alpha decimal.Decimal) (decimal.Decimal, error) {
	return decOne.DivRound(alpha, liquidAlphaPrecision).Sub(decOne).Ln(liquidAlphaPrecision)
}

// LiquidAlpha maps every column's consensus value onto a logistic curve that
// passes through alphaLow at the 25th consensus percentile and alphaHigh at
// the 75th, clamped to [alphaLow, alphaHigh]. It returns
// ErrCollapsedConsensus when both percentiles coincide, in which case the
// caller uses the flat moving-average alpha.
func LiquidAlpha(consensus []math.LegacyDec, alphaLow, alphaHigh math.LegacyDec) ([]math.LegacyDec, error) {
	if !alphaLow.IsPositive() || !alphaLow.LT(alphaHigh) || !alphaHigh.LT(One()) {
		return nil, errors.New("liquid alpha bounds must satisfy 0 < low < high < 1")
	}
	cLow := Quantile(consensus, quantileLow)
	cHigh := Quantile(consensus, quantileHigh)
	if cLow.Equal(cHigh) {
		return nil, ErrCollapsedConsensus
	}

	seriesMu.Lock()
	defer seriesMu.Unlock()

	logitLow, err := logit(toDecimal(alphaLow))
	if err != nil {
		return nil, err
	}
	logitHigh, err := logit(toDecimal(alphaHigh))
	if err != nil {
		return nil, err
	}
	dLow, dHigh := toDecimal(cLow), toDecimal(cHigh)
	a := logitHigh.Sub(logitLow).DivRound(dLow.Sub(dHigh), liquidAlphaPrecision)
	b := logitLow.Add(a.Mul(dLow))

	alphas := make([]math.LegacyDec, len(consensus))
	for j, c := range consensus {
		arg := b.Sub(a.Mul(toDecimal(c)))
		if arg.GreaterThan(expArgBound) {
			arg = expArgBound
		} else if arg.LessThan(expArgBound.Neg()) {
			arg = expArgBound.Neg()
		}
		expVal, err := arg.ExpTaylor(liquidAlphaPrecision)
		if err != nil {
			return nil, err
		}
		alpha := fromDecimal(decOne.DivRound(decOne.Add(expVal), liquidAlphaPrecision))
		alphas[j] = math.LegacyMinDec(math.LegacyMaxDec(alpha, alphaLow), alphaHigh)
	}
	return alphas, nil
}
