package keeper_test

import (
	"fmt"
	"testing"

	"cosmossdk.io/collections"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/commune-ai/subspace-sub000/testutil/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

var founder = sdk.AccAddress("founder_____________")

func moduleAddr(i int) sdk.AccAddress {
	return sdk.AccAddress(fmt.Sprintf("module_%013d", i))
}

func subnetParams(consensusType types.ConsensusType) types.SubnetParams {
	params := types.DefaultSubnetParams(founder.String())
	params.ConsensusType = consensusType
	params.FounderShare = 0
	return params
}

// setupSubnet registers n modules at block 0, each self-staking stake.
func setupSubnet(t *testing.T, k keeper.Keeper, ctx sdk.Context, netuid uint16, params types.SubnetParams, n int, stake uint64) {
	t.Helper()
	require.NoError(t, k.RegisterSubnet(ctx, netuid, params))
	for i := 0; i < n; i++ {
		addr := moduleAddr(i)
		uid, err := k.RegisterModule(ctx, netuid, addr)
		require.NoError(t, err)
		require.Equal(t, uint16(i), uid)
		require.NoError(t, k.IncreaseStake(ctx, netuid, addr, addr, stake))
	}
}

func stakeOf(t *testing.T, k keeper.Keeper, ctx sdk.Context, netuid uint16, i int) uint64 {
	t.Helper()
	stake, err := k.GetStake(ctx, netuid, moduleAddr(i))
	require.NoError(t, err)
	return stake
}

func TestRegisterSubnet(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)

	require.NoError(t, k.RegisterSubnet(ctx, 1, subnetParams(types.ConsensusYuma)))
	require.ErrorIs(t, k.RegisterSubnet(ctx, 1, subnetParams(types.ConsensusYuma)), types.ErrSubnetAlreadyExists)

	invalid := subnetParams(types.ConsensusYuma)
	invalid.Tempo = 0
	require.ErrorIs(t, k.RegisterSubnet(ctx, 2, invalid), types.ErrInvalidParams)

	netuids, err := k.GetSubnetNetuids(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint16{1}, netuids)
	require.Zero(t, k.GetModuleCount(ctx, 1))
}

func TestRegisterModule(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	require.NoError(t, k.RegisterSubnet(ctx, 1, subnetParams(types.ConsensusYuma)))

	ctx = ctx.WithBlockHeight(7)
	uid, err := k.RegisterModule(ctx, 1, moduleAddr(0))
	require.NoError(t, err)
	require.Equal(t, uint16(0), uid)
	uid, err = k.RegisterModule(ctx, 1, moduleAddr(1))
	require.NoError(t, err)
	require.Equal(t, uint16(1), uid)

	_, err = k.RegisterModule(ctx, 1, moduleAddr(0))
	require.ErrorIs(t, err, types.ErrModuleAlreadyRegistered)
	_, err = k.RegisterModule(ctx, 9, moduleAddr(0))
	require.ErrorIs(t, err, types.ErrSubnetNotFound)

	require.Equal(t, uint16(2), k.GetModuleCount(ctx, 1))
	require.Equal(t, []uint64{7, 7}, k.GetRegistrationBlocks(ctx, 1))
	require.Equal(t, []uint64{7, 7}, k.GetLastUpdates(ctx, 1))
	require.Equal(t, []bool{false, false}, k.GetValidatorPermits(ctx, 1))

	addr, found := k.GetModuleKey(ctx, 1, 1)
	require.True(t, found)
	require.Equal(t, moduleAddr(1), addr)
	got, found := k.GetUid(ctx, 1, moduleAddr(1))
	require.True(t, found)
	require.Equal(t, uint16(1), got)
}

func TestSetWeights(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	params := subnetParams(types.ConsensusYuma)
	params.MinAllowedWeights = 2
	params.MaxAllowedWeights = 3
	setupSubnet(t, k, ctx, 1, params, 5, 100)

	tests := []struct {
		name    string
		addr    sdk.AccAddress
		uids    []uint16
		weights []uint16
		err     error
	}{
		{"unregistered module", moduleAddr(9), []uint16{1, 2}, []uint16{1, 1}, types.ErrModuleNotFound},
		{"length mismatch", moduleAddr(0), []uint16{1, 2}, []uint16{1}, types.ErrInvalidWeights},
		{"too few", moduleAddr(0), []uint16{1}, []uint16{1}, types.ErrInvalidWeights},
		{"too many", moduleAddr(0), []uint16{1, 2, 3, 4}, []uint16{1, 1, 1, 1}, types.ErrInvalidWeights},
		{"self weight", moduleAddr(0), []uint16{0, 1}, []uint16{1, 1}, types.ErrInvalidWeights},
		{"duplicate uid", moduleAddr(0), []uint16{1, 1}, []uint16{1, 1}, types.ErrInvalidWeights},
		{"unknown uid", moduleAddr(0), []uint16{1, 5}, []uint16{1, 1}, types.ErrInvalidWeights},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, k.SetWeights(ctx, 1, tt.addr, tt.uids, tt.weights), tt.err)
		})
	}
	require.Nil(t, k.GetWeights(ctx, 1, 0))

	ctx = ctx.WithBlockHeight(12)
	require.NoError(t, k.SetWeights(ctx, 1, moduleAddr(0), []uint16{3, 1}, []uint16{10, 20}))
	require.Equal(t, []types.WeightEntry{{Uid: 3, Weight: 10}, {Uid: 1, Weight: 20}}, k.GetWeights(ctx, 1, 0))
	require.Equal(t, []uint64{12, 0, 0, 0, 0}, k.GetLastUpdates(ctx, 1))
}

func TestStakeAndOwnership(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	setupSubnet(t, k, ctx, 1, subnetParams(types.ConsensusYuma), 1, 1_000)
	delegator := sdk.AccAddress("delegator___________")

	require.NoError(t, k.IncreaseStake(ctx, 1, moduleAddr(0), delegator, 3_000))
	require.NoError(t, k.IncreaseStake(ctx, 1, moduleAddr(0), delegator, 0))
	require.ErrorIs(t, k.IncreaseStake(ctx, 1, moduleAddr(5), delegator, 1), types.ErrModuleNotFound)

	require.Equal(t, uint64(4_000), stakeOf(t, k, ctx, 1, 0))
	require.Equal(t, uint64(3_000), k.GetStakeFrom(ctx, 1, moduleAddr(0), delegator))
	subnetStake, err := k.GetSubnetStake(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(4_000), subnetStake)

	ratios, err := k.GetOwnershipRatios(ctx, 1, moduleAddr(0))
	require.NoError(t, err)
	require.Len(t, ratios, 2)
	byDelegator := make(map[string]string)
	for _, r := range ratios {
		byDelegator[r.Delegator.String()] = r.Ratio.String()
	}
	require.Equal(t, "0.250000000000000000", byDelegator[moduleAddr(0).String()])
	require.Equal(t, "0.750000000000000000", byDelegator[delegator.String()])

	require.Equal(t, types.DefaultDelegationFee, k.GetDelegationFee(ctx, moduleAddr(0)))
	require.NoError(t, k.SetDelegationFee(ctx, moduleAddr(0), 20))
	require.Equal(t, uint16(20), k.GetDelegationFee(ctx, moduleAddr(0)))
	require.ErrorIs(t, k.SetDelegationFee(ctx, moduleAddr(0), 101), types.ErrInvalidDelegationFee)
}

func TestIncreaseStakeErrors(t *testing.T) {
	delegator := sdk.AccAddress("delegator___________")

	tests := []struct {
		name      string
		stored    []byte
		expected  uint64
		expectErr bool
	}{
		{name: "missing entry starts from zero", expected: 500},
		{name: "existing entry accumulates", stored: []byte{0, 0, 0, 0, 0, 0, 0x03, 0xe8}, expected: 1_500},
		{name: "undecodable entry is returned", stored: []byte{0x01, 0x02, 0x03}, expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k, ctx, storeKey := keepertest.SubnetEmissionKeeperWithStoreKey(t)
			setupSubnet(t, k, ctx, 1, subnetParams(types.ConsensusYuma), 1, 0)

			key := collections.Join3(uint16(1), moduleAddr(0), delegator)
			if tc.stored != nil {
				raw, err := collections.EncodeKeyWithPrefix(types.StakeToPrefix.Bytes(), k.StakeTo.KeyCodec(), key)
				require.NoError(t, err)
				ctx.KVStore(storeKey).Set(raw, tc.stored)
			}

			err := k.IncreaseStake(ctx, 1, moduleAddr(0), delegator, 500)
			if tc.expectErr {
				require.Error(t, err)
				require.NotErrorIs(t, err, collections.ErrNotFound)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, k.GetStakeFrom(ctx, 1, moduleAddr(0), delegator))
		})
	}
}

func TestIsEpochDue(t *testing.T) {
	require.True(t, keeper.IsEpochDue(99, 0, 100))
	require.False(t, keeper.IsEpochDue(100, 0, 100))
	require.True(t, keeper.IsEpochDue(97, 2, 100))
	require.True(t, keeper.IsEpochDue(0, 0, 1))
	require.False(t, keeper.IsEpochDue(5, 0, 0))
}
