package calculations

import (
	stdmath "math"
	"math/big"

	"cosmossdk.io/math"
)

// U16Max is the integer that encodes a proportion of 1.0 in u16 storage form.
const U16Max = stdmath.MaxUint16

var (
	fixedMaxInt = new(big.Int).Lsh(big.NewInt(1), 95)
	half        = math.LegacyNewDecWithPrec(5, 1)
)

// FixedMax is the saturation bound of every helper in this package. Results
// above it (or below its negation) are clamped instead of overflowing.
func FixedMax() math.LegacyDec {
	return math.LegacyNewDecFromBigInt(fixedMaxInt)
}

func One() math.LegacyDec { return math.LegacyOneDec() }

// Zeros returns n freshly allocated zero values.
func Zeros(n int) []math.LegacyDec {
	out := make([]math.LegacyDec, n)
	for i := range out {
		out[i] = math.LegacyZeroDec()
	}
	return out
}

// Ones returns n freshly allocated 1.0 values.
func Ones(n int) []math.LegacyDec {
	out := make([]math.LegacyDec, n)
	for i := range out {
		out[i] = math.LegacyOneDec()
	}
	return out
}

// Saturate clamps d into [-FixedMax, FixedMax]. A nil decimal is treated as zero.
func Saturate(d math.LegacyDec) math.LegacyDec {
	if d.IsNil() {
		return math.LegacyZeroDec()
	}
	bound := FixedMax()
	if d.GT(bound) {
		return bound
	}
	if d.LT(bound.Neg()) {
		return bound.Neg()
	}
	return d
}

func SatAdd(a, b math.LegacyDec) math.LegacyDec {
	return Saturate(Saturate(a).Add(Saturate(b)))
}

func SatSub(a, b math.LegacyDec) math.LegacyDec {
	return Saturate(Saturate(a).Sub(Saturate(b)))
}

// SatMul multiplies with truncation of the 18th decimal.
func SatMul(a, b math.LegacyDec) math.LegacyDec {
	return Saturate(Saturate(a).MulTruncate(Saturate(b)))
}

// SafeDiv divides with truncation and returns zero when b is zero.
func SafeDiv(a, b math.LegacyDec) math.LegacyDec {
	if b.IsNil() || b.IsZero() {
		return math.LegacyZeroDec()
	}
	return Saturate(Saturate(a).QuoTruncate(Saturate(b)))
}

func FromU64(v uint64) math.LegacyDec {
	return math.LegacyNewDecFromBigInt(new(big.Int).SetUint64(v))
}

func FromU16(v uint16) math.LegacyDec {
	return math.LegacyNewDec(int64(v))
}

// U16ToProportion maps 0..65535 onto 0.0..1.0.
func U16ToProportion(v uint16) math.LegacyDec {
	return SafeDiv(FromU16(v), FromU16(U16Max))
}

// ToU64 truncates toward zero. Negative values map to 0, values past the
// u64 range map to MaxUint64.
func ToU64(d math.LegacyDec) uint64 {
	if d.IsNil() || !d.IsPositive() {
		return 0
	}
	i := d.TruncateInt()
	if !i.IsUint64() {
		return stdmath.MaxUint64
	}
	return i.Uint64()
}

// ToU16 truncates toward zero and saturates at 65535.
func ToU16(d math.LegacyDec) uint16 {
	v := ToU64(d)
	if v > U16Max {
		return U16Max
	}
	return uint16(v)
}

// RoundHalfUp rounds to the nearest integer, ties away from zero.
func RoundHalfUp(d math.LegacyDec) math.LegacyDec {
	if d.IsNil() {
		return math.LegacyZeroDec()
	}
	if d.IsNegative() {
		return d.Sub(half).TruncateDec()
	}
	return d.Add(half).TruncateDec()
}
