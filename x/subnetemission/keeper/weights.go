package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// SetWeights stores the weight row of the module at addr and marks it updated
// at the current block.
func (k Keeper) SetWeights(ctx context.Context, netuid uint16, addr sdk.AccAddress, uids, weights []uint16) error {
	params, found := k.GetSubnetParams(ctx, netuid)
	if !found {
		return errorsmod.Wrapf(types.ErrSubnetNotFound, "netuid %d", netuid)
	}
	uid, found := k.GetUid(ctx, netuid, addr)
	if !found {
		return errorsmod.Wrapf(types.ErrModuleNotFound, "%s on netuid %d", addr, netuid)
	}
	if len(uids) != len(weights) {
		return errorsmod.Wrapf(types.ErrInvalidWeights, "%d uids but %d weights", len(uids), len(weights))
	}
	if len(uids) < int(params.MinAllowedWeights) || len(uids) > int(params.MaxAllowedWeights) {
		return errorsmod.Wrapf(types.ErrInvalidWeights, "%d weights outside [%d, %d]", len(uids), params.MinAllowedWeights, params.MaxAllowedWeights)
	}

	count := k.GetModuleCount(ctx, netuid)
	seen := make(map[uint16]struct{}, len(uids))
	row := make([]types.WeightEntry, len(uids))
	for i, target := range uids {
		if target >= count {
			return errorsmod.Wrapf(types.ErrInvalidWeights, "uid %d is not registered", target)
		}
		if target == uid {
			return errorsmod.Wrap(types.ErrInvalidWeights, "self weight is not allowed")
		}
		if _, dup := seen[target]; dup {
			return errorsmod.Wrapf(types.ErrInvalidWeights, "duplicate uid %d", target)
		}
		seen[target] = struct{}{}
		row[i] = types.WeightEntry{Uid: target, Weight: weights[i]}
	}

	if err := k.Weights.Set(ctx, collections.Join(netuid, uid), row); err != nil {
		return err
	}
	lastUpdate := k.GetLastUpdates(ctx, netuid)
	if int(uid) >= len(lastUpdate) {
		return errorsmod.Wrapf(types.ErrStructural, "unequal number of last update and modules on netuid %d", netuid)
	}
	lastUpdate[uid] = uint64(sdk.UnwrapSDKContext(ctx).BlockHeight())
	if err := k.LastUpdate.Set(ctx, netuid, lastUpdate); err != nil {
		return err
	}
	k.LogDebug("Weights set", types.Weights, "netuid", netuid, "uid", uid, "targets", len(row))
	return nil
}

func (k Keeper) GetWeights(ctx context.Context, netuid, uid uint16) []types.WeightEntry {
	row, err := k.Weights.Get(ctx, collections.Join(netuid, uid))
	if err != nil {
		return nil
	}
	return row
}

func (k Keeper) GetBonds(ctx context.Context, netuid, uid uint16) []types.BondEntry {
	row, err := k.Bonds.Get(ctx, collections.Join(netuid, uid))
	if err != nil {
		return nil
	}
	return row
}

// SetBonds replaces a bond row; an empty row removes it.
func (k Keeper) SetBonds(ctx context.Context, netuid, uid uint16, row []types.BondEntry) error {
	key := collections.Join(netuid, uid)
	if len(row) == 0 {
		return k.Bonds.Remove(ctx, key)
	}
	return k.Bonds.Set(ctx, key, row)
}
