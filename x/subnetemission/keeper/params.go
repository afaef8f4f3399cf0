package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// GetParams returns the module params, or the defaults when none are stored.
func (k Keeper) GetParams(ctx context.Context) types.Params {
	params, err := k.params.Get(ctx)
	if err != nil {
		if !errors.Is(err, collections.ErrNotFound) {
			k.LogError("Failed to read params", types.Settings, "error", err)
		}
		return types.DefaultParams()
	}
	return params
}

// SetParams set the params
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return errorsmod.Wrap(types.ErrInvalidParams, err.Error())
	}
	return k.params.Set(ctx, params)
}

// UpdateParams replaces the module params on behalf of the authority.
func (k Keeper) UpdateParams(ctx context.Context, authority string, params types.Params) error {
	if k.GetAuthority() != authority {
		return errorsmod.Wrapf(types.ErrInvalidSigner, "invalid authority; expected %s, got %s", k.GetAuthority(), authority)
	}
	if err := k.SetParams(ctx, params); err != nil {
		return err
	}
	k.LogInfo("Params updated", types.Settings, "linear_netuid", params.LinearNetuid, "unit_emission", params.UnitEmission)
	return nil
}

func (k Keeper) GetSubnetParams(ctx context.Context, netuid uint16) (types.SubnetParams, bool) {
	params, err := k.SubnetParams.Get(ctx, netuid)
	return params, err == nil
}

// UpdateSubnetParams replaces the params of an existing subnet on behalf of the authority.
func (k Keeper) UpdateSubnetParams(ctx context.Context, authority string, netuid uint16, params types.SubnetParams) error {
	if k.GetAuthority() != authority {
		return errorsmod.Wrapf(types.ErrInvalidSigner, "invalid authority; expected %s, got %s", k.GetAuthority(), authority)
	}
	if _, found := k.GetSubnetParams(ctx, netuid); !found {
		return errorsmod.Wrapf(types.ErrSubnetNotFound, "netuid %d", netuid)
	}
	if err := params.Validate(); err != nil {
		return errorsmod.Wrapf(types.ErrInvalidParams, "netuid %d: %s", netuid, err)
	}
	if err := k.SubnetParams.Set(ctx, netuid, params); err != nil {
		return err
	}
	k.LogInfo("Subnet params updated", types.Settings, "netuid", netuid, "consensus_type", params.ConsensusType, "tempo", params.Tempo)
	return nil
}
