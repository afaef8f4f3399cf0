package calculations

import (
	"cosmossdk.io/math"
)

// SparseEntry is one (column, value) cell of a sparse row.
type SparseEntry struct {
	Col uint16
	Val math.LegacyDec
}

// SparseMatrix is a row-major sparse matrix. Rows are not assumed to be
// sorted by column, and a column may appear at most once per row.
type SparseMatrix [][]SparseEntry

// Clone deep copies the row structure. Values are shared since every helper
// treats them as immutable.
func (m SparseMatrix) Clone() SparseMatrix {
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		out[i] = append([]SparseEntry(nil), row...)
	}
	return out
}

func filterSparse(m SparseMatrix, keep func(i int, e SparseEntry) bool) SparseMatrix {
	out := make(SparseMatrix, len(m))
	for i, row := range m {
		out[i] = make([]SparseEntry, 0, len(row))
		for _, e := range row {
			if keep(i, e) {
				out[i] = append(out[i], e)
			}
		}
	}
	return out
}

// MaskDiagSparse drops every (i, i) entry.
func MaskDiagSparse(m SparseMatrix) SparseMatrix {
	return filterSparse(m, func(i int, e SparseEntry) bool {
		return int(e.Col) != i
	})
}

// MaskRowsSparse empties row i wherever mask[i] is true.
func MaskRowsSparse(mask []bool, m SparseMatrix) SparseMatrix {
	return filterSparse(m, func(i int, _ SparseEntry) bool {
		return i >= len(mask) || !mask[i]
	})
}

// MaskOutdatedSparse drops (i, j) when row i was last updated at or before the
// registration of column j. Entries whose indices fall outside either vector
// are dropped as well.
func MaskOutdatedSparse(m SparseMatrix, lastUpdate, registration []uint64) SparseMatrix {
	return filterSparse(m, func(i int, e SparseEntry) bool {
		j := int(e.Col)
		if i >= len(lastUpdate) || j >= len(registration) {
			return false
		}
		return lastUpdate[i] > registration[j]
	})
}

// RowSumSparse returns the sum of every row.
func RowSumSparse(m SparseMatrix) []math.LegacyDec {
	out := Zeros(len(m))
	for i, row := range m {
		for _, e := range row {
			out[i] = SatAdd(out[i], e.Val)
		}
	}
	return out
}

func colSums(m SparseMatrix, columns int) []math.LegacyDec {
	sums := Zeros(columns)
	for _, row := range m {
		for _, e := range row {
			if int(e.Col) < columns {
				sums[e.Col] = SatAdd(sums[e.Col], e.Val)
			}
		}
	}
	return sums
}

// RowNormalizeSparse divides every row by its sum. Zero-sum rows are left as-is.
func RowNormalizeSparse(m SparseMatrix) SparseMatrix {
	sums := RowSumSparse(m)
	out := m.Clone()
	for i, row := range out {
		if sums[i].IsZero() {
			continue
		}
		for k := range row {
			row[k].Val = SafeDiv(row[k].Val, sums[i])
		}
	}
	return out
}

// ColNormalizeSparse divides every entry by its column sum. Zero-sum columns
// and out-of-range columns are left as-is.
func ColNormalizeSparse(m SparseMatrix, columns int) SparseMatrix {
	sums := colSums(m, columns)
	out := m.Clone()
	for _, row := range out {
		for k, e := range row {
			if int(e.Col) >= columns || sums[e.Col].IsZero() {
				continue
			}
			row[k].Val = SafeDiv(e.Val, sums[e.Col])
		}
	}
	return out
}

// ColMaxUpscaleSparse divides every entry by its column maximum so the largest
// entry of each column becomes 1.0.
func ColMaxUpscaleSparse(m SparseMatrix, columns int) SparseMatrix {
	maxes := Zeros(columns)
	for _, row := range m {
		for _, e := range row {
			if int(e.Col) < columns && e.Val.GT(maxes[e.Col]) {
				maxes[e.Col] = e.Val
			}
		}
	}
	out := m.Clone()
	for _, row := range out {
		for k, e := range row {
			if int(e.Col) >= columns || maxes[e.Col].IsZero() {
				continue
			}
			row[k].Val = SafeDiv(e.Val, maxes[e.Col])
		}
	}
	return out
}

// MatmulSparse returns result[j] = sum_i v[i] * m[i][j].
func MatmulSparse(m SparseMatrix, v []math.LegacyDec, columns int) []math.LegacyDec {
	result := Zeros(columns)
	for i, row := range m {
		if i >= len(v) {
			continue
		}
		for _, e := range row {
			if int(e.Col) >= columns {
				continue
			}
			result[e.Col] = SatAdd(result[e.Col], SatMul(v[i], e.Val))
		}
	}
	return result
}

// MatmulTransposeSparse returns result[i] = sum_j v[j] * m[i][j].
func MatmulTransposeSparse(m SparseMatrix, v []math.LegacyDec) []math.LegacyDec {
	result := Zeros(len(m))
	for i, row := range m {
		for _, e := range row {
			if int(e.Col) >= len(v) {
				continue
			}
			result[i] = SatAdd(result[i], SatMul(v[e.Col], e.Val))
		}
	}
	return result
}

// RowHadamardSparse scales row i by v[i]. Rows without a matching element are emptied.
func RowHadamardSparse(m SparseMatrix, v []math.LegacyDec) SparseMatrix {
	out := m.Clone()
	for i, row := range out {
		if i >= len(v) {
			out[i] = row[:0]
			continue
		}
		for k := range row {
			row[k].Val = SatMul(row[k].Val, v[i])
		}
	}
	return out
}

// ColClipSparse caps every entry at its column threshold.
func ColClipSparse(m SparseMatrix, thresholds []math.LegacyDec) SparseMatrix {
	out := m.Clone()
	for _, row := range out {
		for k, e := range row {
			if int(e.Col) >= len(thresholds) {
				continue
			}
			if e.Val.GT(thresholds[e.Col]) {
				row[k].Val = thresholds[e.Col]
			}
		}
	}
	return out
}

// ColNonzeroCountSparse counts, per column, the rows holding a nonzero entry.
func ColNonzeroCountSparse(m SparseMatrix, columns int) []math.LegacyDec {
	counts := Zeros(columns)
	for _, row := range m {
		for _, e := range row {
			if int(e.Col) < columns && e.Val.IsPositive() {
				counts[e.Col] = SatAdd(counts[e.Col], One())
			}
		}
	}
	return counts
}

// MatEMASparse blends alpha*new + (1-alpha)*old over the union of both
// matrices' nonzero positions. Entries that come out exactly zero are dropped.
func MatEMASparse(newM, oldM SparseMatrix, alpha math.LegacyDec) SparseMatrix {
	return matEMA(newM, oldM, func(uint16) math.LegacyDec { return alpha })
}

// MatEMAAlphaVecSparse is MatEMASparse with a per-column alpha. Columns
// without an alpha use zero, keeping the old value.
func MatEMAAlphaVecSparse(newM, oldM SparseMatrix, alphas []math.LegacyDec) SparseMatrix {
	return matEMA(newM, oldM, func(col uint16) math.LegacyDec {
		if int(col) >= len(alphas) {
			return math.LegacyZeroDec()
		}
		return alphas[col]
	})
}

func matEMA(newM, oldM SparseMatrix, alphaFor func(col uint16) math.LegacyDec) SparseMatrix {
	rows := max(len(newM), len(oldM))
	out := make(SparseMatrix, rows)
	for i := 0; i < rows; i++ {
		var order []uint16
		acc := make(map[uint16]math.LegacyDec)
		add := func(col uint16, v math.LegacyDec) {
			prev, ok := acc[col]
			if !ok {
				order = append(order, col)
				prev = math.LegacyZeroDec()
			}
			acc[col] = SatAdd(prev, v)
		}
		if i < len(newM) {
			for _, e := range newM[i] {
				add(e.Col, SatMul(alphaFor(e.Col), e.Val))
			}
		}
		if i < len(oldM) {
			for _, e := range oldM[i] {
				keep := SatSub(One(), alphaFor(e.Col))
				add(e.Col, SatMul(keep, e.Val))
			}
		}
		out[i] = make([]SparseEntry, 0, len(order))
		for _, col := range order {
			if v := acc[col]; !v.IsZero() {
				out[i] = append(out[i], SparseEntry{Col: col, Val: v})
			}
		}
	}
	return out
}
