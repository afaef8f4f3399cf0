package consensus

import (
	"cosmossdk.io/log"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/calculations"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// RunLinear computes one epoch without consensus clipping or bond smoothing.
func RunLinear(params types.ConsensusParams, logger log.Logger) (*types.ConsensusOutput, error) {
	out := &types.ConsensusOutput{
		Netuid:        params.Netuid,
		ConsensusType: types.ConsensusLinear,
		EmissionMap:   make(types.EmissionMap),
	}
	if params.ModuleCount == 0 {
		logger.Debug("Linear epoch skipped, no modules", "netuid", params.Netuid)
		return out, nil
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := int(params.ModuleCount)

	stake := calculations.Normalize(stakeVector(params.Stakes))

	rows, pruned := linearWeightRows(params)
	out.PrunedWeights = pruned
	if len(pruned) > 0 {
		logger.Info("Pruning invalid weight rows", "netuid", params.Netuid, "uids", pruned)
	}
	weights := calculations.RowNormalizeSparse(weightMatrix(rows, n))

	incentive := withFallback(calculations.MatmulSparse(weights, stake, n), calculations.Ones(n))

	trust := calculations.Normalize(calculations.ColNonzeroCountSparse(weights, n))
	if params.TrustRatio > 0 {
		incentive = calculations.Blend(incentive, trust, percent(params.TrustRatio))
	}

	bonds := calculations.ColNormalizeSparse(calculations.RowHadamardSparse(weights, stake), n)
	dividends := withFallback(calculations.MatmulTransposeSparse(bonds, incentive), calculations.Ones(n))

	out.Incentive = calculations.VecProportionsToU16(incentive)
	out.Dividends = calculations.VecProportionsToU16(dividends)
	out.Trust = calculations.VecProportionsToU16(trust)

	if err := finalize(params, incentive, dividends, out, logger); err != nil {
		return nil, err
	}
	return out, nil
}

// linearWeightRows keeps the weight rows that may vote this epoch. A row
// survives when it was set after registration, is at most MaxWeightAge old
// and still holds MinAllowedWeights targets once self weight is removed and
// the row is cut at MaxAllowedWeights. A row pointing at a missing uid is
// rejected whole. Rejected non-empty rows are reported for pruning.
func linearWeightRows(params types.ConsensusParams) ([][]types.WeightEntry, []uint16) {
	n := int(params.ModuleCount)
	rows := make([][]types.WeightEntry, n)
	var pruned []uint16
	for i := 0; i < n; i++ {
		original := params.Weights[i]
		if len(original) == 0 {
			continue
		}
		if row, ok := validLinearRow(params, i); ok {
			rows[i] = row
			continue
		}
		pruned = append(pruned, uint16(i))
	}
	return rows, pruned
}

func validLinearRow(params types.ConsensusParams, i int) ([]types.WeightEntry, bool) {
	n := int(params.ModuleCount)
	lastUpdate := params.LastUpdate[i]
	if lastUpdate <= params.RegistrationBlock[i] {
		return nil, false
	}
	if params.CurrentBlock > lastUpdate && params.CurrentBlock-lastUpdate > params.MaxWeightAge {
		return nil, false
	}
	row := make([]types.WeightEntry, 0, len(params.Weights[i]))
	for _, w := range params.Weights[i] {
		if int(w.Uid) >= n {
			return nil, false
		}
		if int(w.Uid) == i {
			continue
		}
		row = append(row, w)
	}
	if params.MaxAllowedWeights > 0 && len(row) > int(params.MaxAllowedWeights) {
		row = row[:params.MaxAllowedWeights]
	}
	if len(row) < int(params.MinAllowedWeights) {
		return nil, false
	}
	return row, true
}
