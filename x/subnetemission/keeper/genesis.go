package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// ImportSubnet registers a subnet and its modules exactly as described in genesis.
func (k Keeper) ImportSubnet(ctx context.Context, subnet types.GenesisSubnet) error {
	if err := k.RegisterSubnet(ctx, subnet.Netuid, subnet.Params); err != nil {
		return err
	}
	if err := k.PendingEmission.Set(ctx, subnet.Netuid, subnet.PendingEmission); err != nil {
		return err
	}
	for _, module := range subnet.Modules {
		addr, err := sdk.AccAddressFromBech32(module.Address)
		if err != nil {
			return err
		}
		uid, err := k.appendModule(ctx, subnet.Netuid, addr, module.RegistrationBlock, module.LastUpdate, module.ValidatorPermit)
		if err != nil {
			return err
		}
		if err := k.SetDelegationFee(ctx, addr, module.DelegationFee); err != nil {
			return err
		}
		if len(module.Weights) > 0 {
			if err := k.Weights.Set(ctx, collections.Join(subnet.Netuid, uid), module.Weights); err != nil {
				return err
			}
		}
		if err := k.SetBonds(ctx, subnet.Netuid, uid, module.Bonds); err != nil {
			return err
		}
		for _, stake := range module.Stake {
			delegator, err := sdk.AccAddressFromBech32(stake.Delegator)
			if err != nil {
				return err
			}
			if err := k.IncreaseStake(ctx, subnet.Netuid, addr, delegator, stake.Amount); err != nil {
				return err
			}
		}
	}
	k.LogInfo("Subnet imported", types.Genesis, "netuid", subnet.Netuid, "modules", len(subnet.Modules))
	return nil
}

// ExportSubnets returns every subnet in the form ImportSubnet accepts.
func (k Keeper) ExportSubnets(ctx context.Context) ([]types.GenesisSubnet, error) {
	netuids, err := k.GetSubnetNetuids(ctx)
	if err != nil {
		return nil, err
	}
	subnets := make([]types.GenesisSubnet, 0, len(netuids))
	for _, netuid := range netuids {
		params, _ := k.GetSubnetParams(ctx, netuid)
		registration := k.GetRegistrationBlocks(ctx, netuid)
		lastUpdate := k.GetLastUpdates(ctx, netuid)
		permits := k.GetValidatorPermits(ctx, netuid)
		n := k.GetModuleCount(ctx, netuid)
		if len(registration) != int(n) || len(lastUpdate) != int(n) || len(permits) != int(n) {
			return nil, errorsmod.Wrapf(types.ErrStructural, "per-module vectors do not match the module count on netuid %d", netuid)
		}

		subnet := types.GenesisSubnet{
			Netuid:          netuid,
			Params:          params,
			PendingEmission: k.GetPendingEmission(ctx, netuid),
			Modules:         make([]types.GenesisModule, 0, n),
		}
		for uid := uint16(0); uid < n; uid++ {
			addr, found := k.GetModuleKey(ctx, netuid, uid)
			if !found {
				return nil, errorsmod.Wrapf(types.ErrStructural, "missing key for uid %d on netuid %d", uid, netuid)
			}
			delegations, err := k.GetDelegations(ctx, netuid, addr)
			if err != nil {
				return nil, err
			}
			stake := make([]types.GenesisStake, len(delegations))
			for i, d := range delegations {
				stake[i] = types.GenesisStake{Delegator: string(d.Account), Amount: d.Amount}
			}
			subnet.Modules = append(subnet.Modules, types.GenesisModule{
				Address:           addr.String(),
				RegistrationBlock: registration[uid],
				LastUpdate:        lastUpdate[uid],
				ValidatorPermit:   permits[uid],
				DelegationFee:     k.GetDelegationFee(ctx, addr),
				Weights:           k.GetWeights(ctx, netuid, uid),
				Bonds:             k.GetBonds(ctx, netuid, uid),
				Stake:             stake,
			})
		}
		subnets = append(subnets, subnet)
	}
	return subnets, nil
}
