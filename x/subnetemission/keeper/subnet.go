package keeper

import (
	"context"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// RegisterSubnet creates an empty subnet under netuid.
func (k Keeper) RegisterSubnet(ctx context.Context, netuid uint16, params types.SubnetParams) error {
	if _, found := k.GetSubnetParams(ctx, netuid); found {
		return errorsmod.Wrapf(types.ErrSubnetAlreadyExists, "netuid %d", netuid)
	}
	if err := params.Validate(); err != nil {
		return errorsmod.Wrapf(types.ErrInvalidParams, "netuid %d: %s", netuid, err)
	}
	if err := k.SubnetParams.Set(ctx, netuid, params); err != nil {
		return err
	}
	if err := k.ModuleCount.Set(ctx, netuid, 0); err != nil {
		return err
	}
	if err := k.PendingEmission.Set(ctx, netuid, 0); err != nil {
		return err
	}
	k.LogInfo("Subnet registered", types.Settings, "netuid", netuid, "name", params.Name, "consensus_type", params.ConsensusType)
	return nil
}

// GetSubnetNetuids returns every registered netuid in ascending order.
func (k Keeper) GetSubnetNetuids(ctx context.Context) ([]uint16, error) {
	iter, err := k.SubnetParams.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	return iter.Keys()
}

// RegisterModule appends addr to the subnet and returns its uid. The module
// is registered at the current block and counts as inactive until it sets
// weights in a later block.
func (k Keeper) RegisterModule(ctx context.Context, netuid uint16, addr sdk.AccAddress) (uint16, error) {
	if _, found := k.GetSubnetParams(ctx, netuid); !found {
		return 0, errorsmod.Wrapf(types.ErrSubnetNotFound, "netuid %d", netuid)
	}
	if _, found := k.GetUid(ctx, netuid, addr); found {
		return 0, errorsmod.Wrapf(types.ErrModuleAlreadyRegistered, "%s on netuid %d", addr, netuid)
	}
	block := uint64(sdk.UnwrapSDKContext(ctx).BlockHeight())
	uid, err := k.appendModule(ctx, netuid, addr, block, block, false)
	if err != nil {
		return 0, err
	}
	k.LogInfo("Module registered", types.Stake, "netuid", netuid, "uid", uid, "address", addr.String())
	return uid, nil
}

func (k Keeper) appendModule(ctx context.Context, netuid uint16, addr sdk.AccAddress, registrationBlock, lastUpdate uint64, permit bool) (uint16, error) {
	uid := k.GetModuleCount(ctx, netuid)
	if uid == ^uint16(0) {
		return 0, errorsmod.Wrapf(types.ErrStructural, "netuid %d is full", netuid)
	}
	if err := k.ModuleKeys.Set(ctx, collections.Join(netuid, uid), addr); err != nil {
		return 0, err
	}
	if err := k.ModuleUids.Set(ctx, collections.Join(netuid, addr), uid); err != nil {
		return 0, err
	}
	if err := k.ModuleCount.Set(ctx, netuid, uid+1); err != nil {
		return 0, err
	}
	if err := k.RegistrationBlock.Set(ctx, netuid, append(k.GetRegistrationBlocks(ctx, netuid), registrationBlock)); err != nil {
		return 0, err
	}
	if err := k.LastUpdate.Set(ctx, netuid, append(k.GetLastUpdates(ctx, netuid), lastUpdate)); err != nil {
		return 0, err
	}
	if err := k.ValidatorPermits.Set(ctx, netuid, append(k.GetValidatorPermits(ctx, netuid), permit)); err != nil {
		return 0, err
	}
	return uid, nil
}

func (k Keeper) GetModuleCount(ctx context.Context, netuid uint16) uint16 {
	count, err := k.ModuleCount.Get(ctx, netuid)
	if err != nil {
		return 0
	}
	return count
}

func (k Keeper) GetModuleKey(ctx context.Context, netuid, uid uint16) (sdk.AccAddress, bool) {
	addr, err := k.ModuleKeys.Get(ctx, collections.Join(netuid, uid))
	return addr, err == nil
}

func (k Keeper) GetUid(ctx context.Context, netuid uint16, addr sdk.AccAddress) (uint16, bool) {
	uid, err := k.ModuleUids.Get(ctx, collections.Join(netuid, addr))
	return uid, err == nil
}

func (k Keeper) GetRegistrationBlocks(ctx context.Context, netuid uint16) []uint64 {
	return getVector(ctx, k.RegistrationBlock, netuid)
}

func (k Keeper) GetLastUpdates(ctx context.Context, netuid uint16) []uint64 {
	return getVector(ctx, k.LastUpdate, netuid)
}

func (k Keeper) GetValidatorPermits(ctx context.Context, netuid uint16) []bool {
	return getVector(ctx, k.ValidatorPermits, netuid)
}

func (k Keeper) GetActive(ctx context.Context, netuid uint16) []bool {
	return getVector(ctx, k.Active, netuid)
}

func (k Keeper) GetConsensus(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.Consensus, netuid)
}

func (k Keeper) GetIncentive(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.Incentive, netuid)
}

func (k Keeper) GetDividends(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.Dividends, netuid)
}

func (k Keeper) GetTrust(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.Trust, netuid)
}

func (k Keeper) GetValidatorTrust(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.ValidatorTrust, netuid)
}

func (k Keeper) GetRank(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.Rank, netuid)
}

func (k Keeper) GetPruningScores(ctx context.Context, netuid uint16) []uint16 {
	return getVector(ctx, k.PruningScores, netuid)
}

func (k Keeper) GetEmission(ctx context.Context, netuid uint16) []uint64 {
	return getVector(ctx, k.Emission, netuid)
}

func (k Keeper) GetPendingEmission(ctx context.Context, netuid uint16) uint64 {
	pending, err := k.PendingEmission.Get(ctx, netuid)
	if err != nil {
		return 0
	}
	return pending
}

func (k Keeper) GetLastEpochBlock(ctx context.Context, netuid uint16) (uint64, bool) {
	block, err := k.LastEpochBlock.Get(ctx, netuid)
	return block, err == nil
}

// getVector reads a per-subnet vector, treating a missing entry as empty.
func getVector[T any](ctx context.Context, m collections.Map[uint16, []T], netuid uint16) []T {
	v, err := m.Get(ctx, netuid)
	if err != nil {
		return nil
	}
	return v
}

// setVector writes a per-subnet vector unless it is nil.
func setVector[T any](ctx context.Context, m collections.Map[uint16, []T], netuid uint16, v []T) error {
	if v == nil {
		return nil
	}
	return m.Set(ctx, netuid, v)
}
