package calculations

import (
	"cosmossdk.io/math"
)

// WeightedMedian returns the stake-weighted median of score over the indices
// in partition. The pivot is always the middle index of the partition, and
// scores equal to the pivot join neither side.
func WeightedMedian(
	stake, score []math.LegacyDec,
	partition []int,
	minority, partitionLo, partitionHi math.LegacyDec,
) math.LegacyDec {
	n := len(partition)
	if n == 0 {
		return math.LegacyZeroDec()
	}
	if n == 1 {
		return score[partition[0]]
	}
	pivot := score[partition[n/2]]
	loStake := math.LegacyZeroDec()
	hiStake := math.LegacyZeroDec()
	var lower, upper []int
	for _, idx := range partition {
		switch {
		case score[idx].Equal(pivot):
			continue
		case score[idx].LT(pivot):
			loStake = SatAdd(loStake, stake[idx])
			lower = append(lower, idx)
		default:
			hiStake = SatAdd(hiStake, stake[idx])
			upper = append(upper, idx)
		}
	}
	loBound := SatAdd(partitionLo, loStake)
	hiBound := SatSub(partitionHi, hiStake)
	switch {
	case loBound.LTE(minority) && minority.LT(hiBound):
		return pivot
	case minority.LT(loBound) && len(lower) > 0:
		return WeightedMedian(stake, score, lower, minority, partitionLo, loBound)
	case hiBound.LTE(minority) && len(upper) > 0:
		return WeightedMedian(stake, score, upper, minority, hiBound, partitionHi)
	}
	return pivot
}

// WeightedMedianColSparse computes, for every column, the stake-weighted
// median of the scores given by rows with positive stake. majority is the
// share of stake that must sit at or above the median.
func WeightedMedianColSparse(stake []math.LegacyDec, score SparseMatrix, columns int, majority math.LegacyDec) []math.LegacyDec {
	useStake := make([]math.LegacyDec, 0, len(stake))
	for _, s := range stake {
		if s.IsPositive() {
			useStake = append(useStake, s)
		}
	}
	InplaceNormalize(useStake)
	stakeSum := Sum(useStake)
	minority := SatSub(stakeSum, majority)

	useScore := make([][]math.LegacyDec, columns)
	for c := range useScore {
		useScore[c] = Zeros(len(useStake))
	}
	k := 0
	for r, s := range stake {
		if !s.IsPositive() {
			continue
		}
		if r < len(score) {
			for _, e := range score[r] {
				if int(e.Col) < columns {
					useScore[e.Col][k] = e.Val
				}
			}
		}
		k++
	}

	partition := make([]int, len(useStake))
	for i := range partition {
		partition[i] = i
	}
	median := Zeros(columns)
	for c := 0; c < columns; c++ {
		median[c] = WeightedMedian(useStake, useScore[c], partition, minority, math.LegacyZeroDec(), stakeSum)
	}
	return median
}
