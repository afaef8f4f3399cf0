package keeper

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/calculations"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/consensus"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// BuildConsensusParams reads everything one epoch of netuid needs into a
// snapshot. It only reads; toBeEmitted is split into the founder share and
// the participants' budget here.
func (k Keeper) BuildConsensusParams(ctx context.Context, netuid uint16, toBeEmitted uint64) (types.ConsensusParams, error) {
	subnet, found := k.GetSubnetParams(ctx, netuid)
	if !found {
		return types.ConsensusParams{}, errorsmod.Wrapf(types.ErrSubnetNotFound, "netuid %d", netuid)
	}
	params := k.GetParams(ctx)
	n := k.GetModuleCount(ctx, netuid)
	remaining, founderEmission := consensus.SplitFounderShare(toBeEmitted, subnet.FounderShare)

	founderAddr, err := sdk.AccAddressFromBech32(subnet.Founder)
	if err != nil {
		return types.ConsensusParams{}, errorsmod.Wrapf(types.ErrInvalidParams, "founder of netuid %d: %s", netuid, err)
	}
	treasuryAddr, err := sdk.AccAddressFromBech32(params.TreasuryAddress)
	if err != nil {
		return types.ConsensusParams{}, errorsmod.Wrapf(types.ErrInvalidParams, "treasury: %s", err)
	}

	snapshot := types.ConsensusParams{
		Netuid:               netuid,
		ConsensusType:        subnet.ConsensusType,
		IsLinearNetuid:       netuid == params.LinearNetuid,
		CurrentBlock:         uint64(sdk.UnwrapSDKContext(ctx).BlockHeight()),
		ModuleCount:          n,
		Keys:                 make([]types.ModuleKey, 0, n),
		Stakes:               make([]uint64, 0, n),
		Delegations:          make([][]types.Delegation, 0, n),
		DelegationFees:       make([]uint16, 0, n),
		LastUpdate:           k.GetLastUpdates(ctx, netuid),
		RegistrationBlock:    k.GetRegistrationBlocks(ctx, netuid),
		ValidatorPermits:     k.GetValidatorPermits(ctx, netuid),
		Weights:              make([][]types.WeightEntry, n),
		Bonds:                make([][]types.BondEntry, n),
		Kappa:                calculations.U16ToProportion(subnet.Kappa),
		MaxWeightAge:         subnet.MaxWeightAge,
		MinAllowedWeights:    subnet.MinAllowedWeights,
		MaxAllowedWeights:    subnet.MaxAllowedWeights,
		MaxAllowedValidators: subnet.MaxAllowedValidators,
		TrustRatio:           subnet.TrustRatio,
		IncentiveRatio:       subnet.IncentiveRatio,
		BondsMovingAverage:   subnet.BondsMovingAverage,
		Founder:              types.NewAccountKey(founderAddr),
		Treasury:             types.NewAccountKey(treasuryAddr),
		FounderEmission:      founderEmission,
		ToBeEmitted:          remaining,
	}
	if subnet.UseWeightsEncryption {
		snapshot.LiquidAlpha = &types.LiquidAlphaBounds{
			Low:  calculations.U16ToProportion(subnet.AlphaLow),
			High: calculations.U16ToProportion(subnet.AlphaHigh),
		}
	}

	for uid := uint16(0); uid < n; uid++ {
		addr, found := k.GetModuleKey(ctx, netuid, uid)
		if !found {
			return types.ConsensusParams{}, errorsmod.Wrapf(types.ErrStructural, "unequal number of keys and modules on netuid %d", netuid)
		}
		delegations, err := k.GetDelegations(ctx, netuid, addr)
		if err != nil {
			return types.ConsensusParams{}, err
		}
		snapshot.Keys = append(snapshot.Keys, types.NewModuleKey(addr))
		snapshot.Delegations = append(snapshot.Delegations, delegations)
		snapshot.Stakes = append(snapshot.Stakes, sumDelegations(delegations))
		snapshot.DelegationFees = append(snapshot.DelegationFees, k.GetDelegationFee(ctx, addr))
		snapshot.Weights[uid] = k.GetWeights(ctx, netuid, uid)
		snapshot.Bonds[uid] = k.GetBonds(ctx, netuid, uid)
	}

	if err := snapshot.Validate(); err != nil {
		return types.ConsensusParams{}, err
	}
	return snapshot, nil
}
