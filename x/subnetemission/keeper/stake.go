package keeper

import (
	"context"
	"errors"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// OwnershipRatio is a delegator's share of a module's stake.
type OwnershipRatio struct {
	Delegator sdk.AccAddress
	Ratio     math.LegacyDec
}

// IncreaseStake adds amount to the stake delegator holds on module.
func (k Keeper) IncreaseStake(ctx context.Context, netuid uint16, module, delegator sdk.AccAddress, amount uint64) error {
	if _, found := k.GetUid(ctx, netuid, module); !found {
		return errorsmod.Wrapf(types.ErrModuleNotFound, "%s on netuid %d", module, netuid)
	}
	if amount == 0 {
		return nil
	}
	key := collections.Join3(netuid, module, delegator)
	current, err := k.StakeTo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, collections.ErrNotFound) {
			return err
		}
		current = 0
	}
	updated := current + amount
	if updated < current {
		updated = ^uint64(0)
	}
	if err := k.StakeTo.Set(ctx, key, updated); err != nil {
		return err
	}
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeStakeIncreased,
			sdk.NewAttribute(types.AttributeKeyNetuid, strconv.FormatUint(uint64(netuid), 10)),
			sdk.NewAttribute(types.AttributeKeyModule, module.String()),
			sdk.NewAttribute(types.AttributeKeyDelegator, delegator.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(amount, 10)),
		),
	)
	return nil
}

// GetDelegations lists every delegator of module ordered by address.
func (k Keeper) GetDelegations(ctx context.Context, netuid uint16, module sdk.AccAddress) ([]types.Delegation, error) {
	var delegations []types.Delegation
	rng := collections.NewSuperPrefixedTripleRange[uint16, sdk.AccAddress, sdk.AccAddress](netuid, module)
	err := k.StakeTo.Walk(ctx, rng, func(key collections.Triple[uint16, sdk.AccAddress, sdk.AccAddress], amount uint64) (bool, error) {
		delegations = append(delegations, types.Delegation{
			Account: types.NewAccountKey(key.K3()),
			Amount:  amount,
		})
		return false, nil
	})
	return delegations, err
}

// GetStake returns the total stake delegated to module, saturating at MaxUint64.
func (k Keeper) GetStake(ctx context.Context, netuid uint16, module sdk.AccAddress) (uint64, error) {
	delegations, err := k.GetDelegations(ctx, netuid, module)
	if err != nil {
		return 0, err
	}
	return sumDelegations(delegations), nil
}

// GetStakeFrom returns the stake a single delegator holds on module.
func (k Keeper) GetStakeFrom(ctx context.Context, netuid uint16, module, delegator sdk.AccAddress) uint64 {
	amount, err := k.StakeTo.Get(ctx, collections.Join3(netuid, module, delegator))
	if err != nil {
		return 0
	}
	return amount
}

// GetSubnetStake sums the stake of every module of the subnet.
func (k Keeper) GetSubnetStake(ctx context.Context, netuid uint16) (uint64, error) {
	var total uint64
	rng := collections.NewPrefixedTripleRange[uint16, sdk.AccAddress, sdk.AccAddress](netuid)
	err := k.StakeTo.Walk(ctx, rng, func(_ collections.Triple[uint16, sdk.AccAddress, sdk.AccAddress], amount uint64) (bool, error) {
		total = saturatingAdd(total, amount)
		return false, nil
	})
	return total, err
}

// GetOwnershipRatios returns each delegator's fraction of the stake on module.
func (k Keeper) GetOwnershipRatios(ctx context.Context, netuid uint16, module sdk.AccAddress) ([]OwnershipRatio, error) {
	delegations, err := k.GetDelegations(ctx, netuid, module)
	if err != nil {
		return nil, err
	}
	total := math.LegacyNewDecFromInt(math.NewIntFromUint64(sumDelegations(delegations)))
	ratios := make([]OwnershipRatio, 0, len(delegations))
	for _, d := range delegations {
		addr, err := d.Account.Address()
		if err != nil {
			return nil, err
		}
		ratio := math.LegacyZeroDec()
		if total.IsPositive() {
			ratio = math.LegacyNewDecFromInt(math.NewIntFromUint64(d.Amount)).QuoTruncate(total)
		}
		ratios = append(ratios, OwnershipRatio{Delegator: addr, Ratio: ratio})
	}
	return ratios, nil
}

// SetDelegationFee sets the percentage of delegated dividends module keeps.
func (k Keeper) SetDelegationFee(ctx context.Context, module sdk.AccAddress, fee uint16) error {
	if fee > 100 {
		return errorsmod.Wrapf(types.ErrInvalidDelegationFee, "fee %d exceeds 100", fee)
	}
	if err := k.DelegationFee.Set(ctx, module, fee); err != nil {
		return err
	}
	k.LogDebug("Delegation fee set", types.Stake, "module", module.String(), "fee", fee)
	return nil
}

func (k Keeper) GetDelegationFee(ctx context.Context, module sdk.AccAddress) uint16 {
	fee, err := k.DelegationFee.Get(ctx, module)
	if err != nil {
		return types.DefaultDelegationFee
	}
	return fee
}

func sumDelegations(delegations []types.Delegation) uint64 {
	var total uint64
	for _, d := range delegations {
		total = saturatingAdd(total, d.Amount)
	}
	return total
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}
