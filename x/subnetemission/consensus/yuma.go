package consensus

import (
	"errors"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/calculations"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// RunYuma computes one epoch with activity masking, permit re-election,
// weighted-median clipping and bond EMA.
func RunYuma(params types.ConsensusParams, logger log.Logger) (*types.ConsensusOutput, error) {
	out := &types.ConsensusOutput{
		Netuid:        params.Netuid,
		ConsensusType: types.ConsensusYuma,
		EmissionMap:   make(types.EmissionMap),
	}
	if params.ModuleCount == 0 {
		logger.Debug("Yuma epoch skipped, no modules", "netuid", params.Netuid)
		return out, nil
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := int(params.ModuleCount)

	inactive := inactiveMask(params)
	active := make([]bool, n)
	for i := range active {
		active[i] = !inactive[i]
	}

	rawStake := stakeVector(params.Stakes)
	newPermits := make([]bool, n)
	for i := range newPermits {
		newPermits[i] = true
	}
	if params.MaxAllowedValidators > 0 {
		newPermits = calculations.IsTopK(rawStake, int(params.MaxAllowedValidators))
	}
	forbidden := make([]bool, n)
	for i := range forbidden {
		forbidden[i] = !newPermits[i]
	}

	activeStake := calculations.Normalize(rawStake)
	calculations.InplaceMask(inactive, activeStake)
	calculations.InplaceMask(forbidden, activeStake)
	calculations.InplaceNormalize(activeStake)

	weights := weightMatrix(params.Weights, n)
	weights = calculations.MaskRowsSparse(forbidden, weights)
	weights = calculations.MaskDiagSparse(weights)
	weights = calculations.MaskOutdatedSparse(weights, params.LastUpdate, params.RegistrationBlock)
	weights = calculations.RowNormalizeSparse(weights)

	// Preranks use the masked weights before clipping; ranks use the clipped ones.
	preranks := calculations.MatmulSparse(weights, activeStake, n)

	consensus := calculations.WeightedMedianColSparse(activeStake, weights, n, params.Kappa)
	clipped := calculations.ColClipSparse(weights, consensus)
	validatorTrust := calculations.RowSumSparse(clipped)

	ranks := calculations.MatmulSparse(clipped, activeStake, n)
	trust := calculations.ElementwiseDiv(ranks, preranks)
	// raw stake, not active stake, backs the fallback; zero total stake emits nothing
	incentive := withFallback(ranks, rawStake)

	oldBonds := bondsMatrix(params.Bonds, n)
	oldBonds = calculations.MaskOutdatedSparse(oldBonds, params.LastUpdate, params.RegistrationBlock)
	oldBonds = calculations.ColNormalizeSparse(oldBonds, n)

	bondsDelta := calculations.ColNormalizeSparse(calculations.RowHadamardSparse(clipped, activeStake), n)
	emaBonds := blendBonds(params, bondsDelta, oldBonds, consensus, logger)
	emaBonds = calculations.ColNormalizeSparse(emaBonds, n)

	dividends := withFallback(calculations.MatmulTransposeSparse(emaBonds, incentive), rawStake)

	out.Active = active
	out.Consensus = calculations.VecProportionsToU16(consensus)
	out.Incentive = calculations.VecProportionsToU16(incentive)
	out.Dividends = calculations.VecProportionsToU16(dividends)
	out.Trust = calculations.VecProportionsToU16(trust)
	out.ValidatorTrust = calculations.VecProportionsToU16(validatorTrust)
	out.Ranks = calculations.VecProportionsToU16(ranks)
	out.PruningScores = calculations.VecMaxUpscaleToU16(ranks)
	out.ValidatorPermits = newPermits
	out.BondsUpdates = bondsUpdates(params, newPermits, bondRows(calculations.ColMaxUpscaleSparse(emaBonds, n)))

	if err := finalize(params, incentive, dividends, out, logger); err != nil {
		return nil, err
	}
	return out, nil
}

// inactiveMask flags modules that never set weights since registration or
// whose last update is older than the activity cutoff.
func inactiveMask(params types.ConsensusParams) []bool {
	inactive := make([]bool, params.ModuleCount)
	for i := range inactive {
		lastUpdate := params.LastUpdate[i]
		inactive[i] = lastUpdate <= params.RegistrationBlock[i] ||
			saturatingAdd(lastUpdate, params.MaxWeightAge) < params.CurrentBlock
	}
	return inactive
}

// blendBonds applies the bond EMA. Subnets with liquid alpha get one alpha per
// column, falling back to the flat moving-average alpha when consensus
// collapses to a single value.
func blendBonds(
	params types.ConsensusParams,
	delta, old calculations.SparseMatrix,
	consensus []math.LegacyDec,
	logger log.Logger,
) calculations.SparseMatrix {
	if params.LiquidAlpha != nil {
		alphas, err := calculations.LiquidAlpha(consensus, params.LiquidAlpha.Low, params.LiquidAlpha.High)
		if err == nil {
			return calculations.MatEMAAlphaVecSparse(delta, old, alphas)
		}
		if !errors.Is(err, calculations.ErrCollapsedConsensus) {
			logger.Warn("Liquid alpha unavailable, using flat alpha", "netuid", params.Netuid, "error", err)
		}
	}
	return calculations.MatEMASparse(delta, old, flatAlpha(params.BondsMovingAverage))
}

// flatAlpha is 1 - bondsMovingAverage / 1_000_000.
func flatAlpha(bondsMovingAverage uint64) math.LegacyDec {
	ma := calculations.SafeDiv(
		calculations.FromU64(min(bondsMovingAverage, types.BondsMovingAverageScale)),
		calculations.FromU64(types.BondsMovingAverageScale),
	)
	return calculations.SatSub(calculations.One(), ma)
}

// bondsUpdates writes the new bonds of every permitted validator. A module
// that held a permit and lost it under a validator cap has its bonds cleared;
// all other rows are left untouched.
func bondsUpdates(params types.ConsensusParams, newPermits []bool, rows [][]types.BondEntry) []types.BondsUpdate {
	var updates []types.BondsUpdate
	for uid, permitted := range newPermits {
		switch {
		case permitted:
			updates = append(updates, types.BondsUpdate{Uid: uint16(uid), Row: rows[uid]})
		case params.MaxAllowedValidators > 0 && params.ValidatorPermits[uid]:
			updates = append(updates, types.BondsUpdate{Uid: uint16(uid), Row: []types.BondEntry{}})
		}
	}
	return updates
}
