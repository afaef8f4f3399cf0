package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// ApplyConsensusOutput persists an epoch result and consumes the subnet's
// pending emission. All writes go through a cached context that is committed
// only when every write succeeded.
func (k Keeper) ApplyConsensusOutput(ctx context.Context, out *types.ConsensusOutput) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()
	if err := k.applyConsensusOutput(cacheCtx, out); err != nil {
		return err
	}
	write()
	return nil
}

func (k Keeper) applyConsensusOutput(ctx sdk.Context, out *types.ConsensusOutput) error {
	netuid := out.Netuid
	if err := k.writeVectors(ctx, out); err != nil {
		return err
	}

	for _, update := range out.BondsUpdates {
		if err := k.SetBonds(ctx, netuid, update.Uid, update.Row); err != nil {
			return err
		}
	}
	for _, uid := range out.PrunedWeights {
		if err := k.Weights.Remove(ctx, collections.Join(netuid, uid)); err != nil {
			return err
		}
	}

	for _, credit := range out.EmissionMap.Credits() {
		module, err := credit.Module.Address()
		if err != nil {
			return errorsmod.Wrapf(types.ErrStructural, "module key %s: %s", credit.Module, err)
		}
		delegator, err := credit.Account.Address()
		if err != nil {
			return errorsmod.Wrapf(types.ErrStructural, "account key %s: %s", credit.Account, err)
		}
		if err := k.IncreaseStake(ctx, netuid, module, delegator, credit.Amount); err != nil {
			return err
		}
	}

	denom := k.GetParams(ctx).Denom
	for _, credit := range out.BalanceCredits {
		if err := k.creditBalance(ctx, denom, credit); err != nil {
			return err
		}
	}

	if err := k.PendingEmission.Set(ctx, netuid, 0); err != nil {
		return err
	}
	if err := k.LastEpochBlock.Set(ctx, netuid, uint64(ctx.BlockHeight())); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSubnetEpoch,
			sdk.NewAttribute(types.AttributeKeyNetuid, strconv.FormatUint(uint64(netuid), 10)),
			sdk.NewAttribute(types.AttributeKeyConsensusType, string(out.ConsensusType)),
			sdk.NewAttribute(types.AttributeKeyTotalEmitted, strconv.FormatUint(out.TotalEmitted, 10)),
			sdk.NewAttribute(types.AttributeKeyFounderEmission, strconv.FormatUint(out.FounderEmission, 10)),
			sdk.NewAttribute(types.AttributeKeyToBeEmitted, strconv.FormatUint(out.ToBeEmitted, 10)),
		),
	)
	return nil
}

func (k Keeper) writeVectors(ctx context.Context, out *types.ConsensusOutput) error {
	netuid := out.Netuid
	for _, w := range []func() error{
		func() error { return setVector(ctx, k.Active, netuid, out.Active) },
		func() error { return setVector(ctx, k.Consensus, netuid, out.Consensus) },
		func() error { return setVector(ctx, k.Incentive, netuid, out.Incentive) },
		func() error { return setVector(ctx, k.Dividends, netuid, out.Dividends) },
		func() error { return setVector(ctx, k.Trust, netuid, out.Trust) },
		func() error { return setVector(ctx, k.ValidatorTrust, netuid, out.ValidatorTrust) },
		func() error { return setVector(ctx, k.Rank, netuid, out.Ranks) },
		func() error { return setVector(ctx, k.PruningScores, netuid, out.PruningScores) },
		func() error { return setVector(ctx, k.Emission, netuid, out.Emission) },
		func() error { return setVector(ctx, k.ValidatorPermits, netuid, out.ValidatorPermits) },
	} {
		if err := w(); err != nil {
			return err
		}
	}
	return nil
}

// creditBalance mints the credit to the module account and sends it on.
func (k Keeper) creditBalance(ctx context.Context, denom string, credit types.BalanceCredit) error {
	coins, err := types.BalanceCoins(denom, credit.Amount)
	if err != nil {
		return err
	}
	if coins.IsZero() {
		return nil
	}
	recipient, err := credit.Account.Address()
	if err != nil {
		return errorsmod.Wrapf(types.ErrBalanceConversionFailed, "recipient %s: %s", credit.Account, err)
	}
	if err := k.bankKeeper.MintCoins(ctx, types.ModuleName, coins); err != nil {
		return err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, recipient, coins); err != nil {
		return err
	}
	k.LogInfo("Balance credited", types.Emission, "recipient", recipient.String(), "amount", credit.Amount, "reason", credit.Reason)
	return nil
}
