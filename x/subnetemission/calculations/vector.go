package calculations

import (
	"slices"

	"cosmossdk.io/math"
)

// Sum adds every element with saturation.
func Sum(v []math.LegacyDec) math.LegacyDec {
	total := math.LegacyZeroDec()
	for _, e := range v {
		total = SatAdd(total, e)
	}
	return total
}

// IsZeroVec reports whether every element is zero.
func IsZeroVec(v []math.LegacyDec) bool {
	for _, e := range v {
		if !e.IsNil() && !e.IsZero() {
			return false
		}
	}
	return true
}

// Normalize returns v divided by its sum. A zero-sum vector is returned unchanged.
func Normalize(v []math.LegacyDec) []math.LegacyDec {
	out := slices.Clone(v)
	InplaceNormalize(out)
	return out
}

func InplaceNormalize(v []math.LegacyDec) {
	total := Sum(v)
	if total.IsZero() {
		return
	}
	for i := range v {
		v[i] = SafeDiv(v[i], total)
	}
}

// InplaceMask zeroes v[i] wherever mask[i] is true.
func InplaceMask(mask []bool, v []math.LegacyDec) {
	for i := range v {
		if i < len(mask) && mask[i] {
			v[i] = math.LegacyZeroDec()
		}
	}
}

// ElementwiseDiv returns a[i]/b[i], 0 where b[i] is zero or missing.
func ElementwiseDiv(a, b []math.LegacyDec) []math.LegacyDec {
	out := Zeros(len(a))
	for i := range a {
		if i < len(b) {
			out[i] = SafeDiv(a[i], b[i])
		}
	}
	return out
}

// Blend returns a*(1-ratio) + b*ratio elementwise. b shorter than a is zero padded.
func Blend(a, b []math.LegacyDec, ratio math.LegacyDec) []math.LegacyDec {
	keep := SatSub(One(), ratio)
	out := Zeros(len(a))
	for i := range a {
		out[i] = SatMul(a[i], keep)
		if i < len(b) {
			out[i] = SatAdd(out[i], SatMul(b[i], ratio))
		}
	}
	return out
}

// IsTopK marks the k largest elements. Elements are sorted ascending with a
// stable sort and the first len(v)-k are dropped, so among equal values the
// lower index loses.
func IsTopK(v []math.LegacyDec, k int) []bool {
	n := len(v)
	result := make([]bool, n)
	for i := range result {
		result[i] = true
	}
	if n <= k {
		return result
	}
	if k < 0 {
		k = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return Saturate(v[a]).BigInt().Cmp(Saturate(v[b]).BigInt())
	})
	for _, i := range idx[:n-k] {
		result[i] = false
	}
	return result
}

// VecMaxUpscaleToU16 rescales v so that its maximum maps to 65535.
func VecMaxUpscaleToU16(v []math.LegacyDec) []uint16 {
	out := make([]uint16, len(v))
	if len(v) == 0 {
		return out
	}
	maxVal := Saturate(v[0])
	for _, e := range v[1:] {
		if Saturate(e).GT(maxVal) {
			maxVal = Saturate(e)
		}
	}
	u16Max := FromU16(U16Max)
	if maxVal.IsZero() {
		for i, e := range v {
			out[i] = ToU16(SatMul(e, u16Max))
		}
		return out
	}
	// Above the threshold the ratio is taken first to stay in range.
	if maxVal.GT(FromU16(32768)) {
		ratio := SafeDiv(u16Max, maxVal)
		for i, e := range v {
			out[i] = ToU16(RoundHalfUp(SatMul(e, ratio)))
		}
		return out
	}
	for i, e := range v {
		out[i] = ToU16(RoundHalfUp(SafeDiv(SatMul(e, u16Max), maxVal)))
	}
	return out
}

// VecProportionsToU16 encodes proportions in [0, 1] as x*65535, truncated.
func VecProportionsToU16(v []math.LegacyDec) []uint16 {
	u16Max := FromU16(U16Max)
	out := make([]uint16, len(v))
	for i, e := range v {
		out[i] = ToU16(SatMul(e, u16Max))
	}
	return out
}

// Quantile returns the q-th quantile of v with linear interpolation between
// the two closest ranks. q is expected in [0, 1].
func Quantile(v []math.LegacyDec, q math.LegacyDec) math.LegacyDec {
	n := len(v)
	if n == 0 {
		return math.LegacyZeroDec()
	}
	sorted := make([]math.LegacyDec, n)
	for i, e := range v {
		sorted[i] = Saturate(e)
	}
	slices.SortStableFunc(sorted, func(a, b math.LegacyDec) int {
		return a.BigInt().Cmp(b.BigInt())
	})
	if n == 1 {
		return sorted[0]
	}
	pos := SatMul(q, FromU64(uint64(n-1)))
	lo := ToU64(pos)
	if lo >= uint64(n-1) {
		return sorted[n-1]
	}
	frac := SatSub(pos, FromU64(lo))
	if frac.IsZero() {
		return sorted[lo]
	}
	diff := SatSub(sorted[lo+1], sorted[lo])
	return SatAdd(sorted[lo], SatMul(diff, frac))
}
