package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"golang.org/x/sync/errgroup"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/consensus"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// RunEpoch runs one epoch of netuid on its pending emission and applies the
// result. Pending emission is reset only when the epoch succeeds.
func (k Keeper) RunEpoch(ctx context.Context, netuid uint16) (*types.ConsensusOutput, error) {
	snapshot, err := k.BuildConsensusParams(ctx, netuid, k.GetPendingEmission(ctx, netuid))
	if err != nil {
		k.failEpoch(ctx, netuid, err)
		return nil, err
	}
	out, err := consensus.Run(snapshot, k.Logger())
	if err != nil {
		k.failEpoch(ctx, netuid, err)
		return nil, err
	}
	if err := k.finishEpoch(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsEpochDue reports whether netuid runs its epoch at height.
func IsEpochDue(height uint64, netuid, tempo uint16) bool {
	if tempo == 0 {
		return false
	}
	return (height+uint64(netuid)+1)%uint64(tempo) == 0
}

// AccumulatePendingEmission splits one block's unit emission across subnets
// proportionally to their stake. The floor remainder goes to the subnet with
// the most stake. Nothing accrues while no subnet holds stake.
func (k Keeper) AccumulatePendingEmission(ctx context.Context) error {
	netuids, err := k.GetSubnetNetuids(ctx)
	if err != nil {
		return err
	}
	stakes := make([]uint64, len(netuids))
	total := math.ZeroInt()
	largest := -1
	for i, netuid := range netuids {
		stakes[i], err = k.GetSubnetStake(ctx, netuid)
		if err != nil {
			return err
		}
		total = total.Add(math.NewIntFromUint64(stakes[i]))
		if stakes[i] > 0 && (largest < 0 || stakes[i] > stakes[largest]) {
			largest = i
		}
	}
	if !total.IsPositive() {
		return nil
	}

	unit := math.NewIntFromUint64(k.GetParams(ctx).UnitEmission)
	shares := make([]uint64, len(netuids))
	distributed := math.ZeroInt()
	for i := range netuids {
		share := unit.Mul(math.NewIntFromUint64(stakes[i])).Quo(total)
		shares[i] = share.Uint64()
		distributed = distributed.Add(share)
	}
	shares[largest] += unit.Sub(distributed).Uint64()

	for i, netuid := range netuids {
		if shares[i] == 0 {
			continue
		}
		pending := saturatingAdd(k.GetPendingEmission(ctx, netuid), shares[i])
		if err := k.PendingEmission.Set(ctx, netuid, pending); err != nil {
			return err
		}
	}
	return nil
}

// RunDueEpochs runs every subnet whose epoch falls on the current block.
// Snapshots are read and results applied one subnet at a time in netuid
// order; the engines run concurrently in between. A failing subnet keeps
// its pending emission and does not affect the others.
func (k Keeper) RunDueEpochs(ctx context.Context) error {
	height := uint64(sdk.UnwrapSDKContext(ctx).BlockHeight())
	netuids, err := k.GetSubnetNetuids(ctx)
	if err != nil {
		return err
	}
	var due []uint16
	for _, netuid := range netuids {
		if params, found := k.GetSubnetParams(ctx, netuid); found && IsEpochDue(height, netuid, params.Tempo) {
			due = append(due, netuid)
		}
	}
	if len(due) == 0 {
		return nil
	}

	snapshots := make([]types.ConsensusParams, len(due))
	errs := make([]error, len(due))
	for i, netuid := range due {
		snapshots[i], errs[i] = k.BuildConsensusParams(ctx, netuid, k.GetPendingEmission(ctx, netuid))
	}

	outputs := make([]*types.ConsensusOutput, len(due))
	logger := k.Logger()
	var g errgroup.Group
	for i := range due {
		if errs[i] != nil {
			continue
		}
		g.Go(func() error {
			outputs[i], errs[i] = consensus.Run(snapshots[i], logger)
			return nil
		})
	}
	_ = g.Wait()

	for i, netuid := range due {
		if errs[i] != nil {
			k.failEpoch(ctx, netuid, errs[i])
			continue
		}
		// failures are logged and reported by finishEpoch
		_ = k.finishEpoch(ctx, outputs[i])
	}
	return nil
}

func (k Keeper) finishEpoch(ctx context.Context, out *types.ConsensusOutput) error {
	if err := k.ApplyConsensusOutput(ctx, out); err != nil {
		k.failEpoch(ctx, out.Netuid, err)
		return err
	}
	k.LogInfo("Epoch applied", types.Epoch,
		"netuid", out.Netuid,
		"consensus_type", out.ConsensusType,
		"total_emitted", out.TotalEmitted,
		"founder_emission", out.FounderEmission,
		"pruned_weights", len(out.PrunedWeights))
	return nil
}

func (k Keeper) failEpoch(ctx context.Context, netuid uint16, err error) {
	k.LogError("Epoch failed, pending emission kept", types.Epoch, "netuid", netuid, "error", err)
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeEmissionFailed,
			sdk.NewAttribute(types.AttributeKeyNetuid, strconv.FormatUint(uint64(netuid), 10)),
			sdk.NewAttribute(types.AttributeKeyError, err.Error()),
		),
	)
}
