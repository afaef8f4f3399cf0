package keeper_test

import (
	"errors"
	"testing"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	keepertest "github.com/commune-ai/subspace-sub000/testutil/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

func hasEvent(ctx sdk.Context, eventType string) bool {
	for _, event := range ctx.EventManager().Events() {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func TestRunEpochLinearCycle(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	setupSubnet(t, k, ctx, 1, subnetParams(types.ConsensusLinear), 4, 1_000_000_000)

	ctx = ctx.WithBlockHeight(1)
	for i := 0; i < 4; i++ {
		require.NoError(t, k.SetWeights(ctx, 1, moduleAddr(i), []uint16{uint16((i + 1) % 4)}, []uint16{65535}))
	}
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 1_000_000_000))

	ctx = ctx.WithBlockHeight(2)
	out, err := k.RunEpoch(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), out.TotalEmitted)

	for i := 0; i < 4; i++ {
		require.Equal(t, uint64(1_250_000_000), stakeOf(t, k, ctx, 1, i))
	}
	require.Equal(t, []uint16{16383, 16383, 16383, 16383}, k.GetIncentive(ctx, 1))
	require.Equal(t, []uint16{16383, 16383, 16383, 16383}, k.GetDividends(ctx, 1))
	require.Equal(t, []uint16{16383, 16383, 16383, 16383}, k.GetTrust(ctx, 1))
	require.Equal(t, []uint64{250_000_000, 250_000_000, 250_000_000, 250_000_000}, k.GetEmission(ctx, 1))
	// linear epochs do not touch yuma-only state
	require.Nil(t, k.GetActive(ctx, 1))
	require.Nil(t, k.GetBonds(ctx, 1, 0))

	require.Zero(t, k.GetPendingEmission(ctx, 1))
	block, found := k.GetLastEpochBlock(ctx, 1)
	require.True(t, found)
	require.Equal(t, uint64(2), block)
	require.True(t, hasEvent(ctx, types.EventTypeSubnetEpoch))
}

func TestRunEpochYumaTwoValidators(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	setupSubnet(t, k, ctx, 3, subnetParams(types.ConsensusYuma), 10, 1_000_000_000)

	ctx = ctx.WithBlockHeight(1)
	require.NoError(t, k.SetWeights(ctx, 3, moduleAddr(0), []uint16{2, 3}, []uint16{65535, 65535}))
	require.NoError(t, k.SetWeights(ctx, 3, moduleAddr(1), []uint16{2, 3}, []uint16{65535, 65535}))
	require.NoError(t, k.PendingEmission.Set(ctx, 3, 1_000_000_000))

	ctx = ctx.WithBlockHeight(2)
	_, err := k.RunEpoch(ctx, 3)
	require.NoError(t, err)

	incentive := k.GetIncentive(ctx, 3)
	dividends := k.GetDividends(ctx, 3)
	require.Equal(t, incentive[2], incentive[3])
	require.Equal(t, dividends[2], dividends[3])
	require.Equal(t, incentive[0], incentive[1])
	require.Equal(t, dividends[0], dividends[1])
	require.Positive(t, incentive[2])
	require.Positive(t, dividends[0])

	require.Equal(t, stakeOf(t, k, ctx, 3, 2), stakeOf(t, k, ctx, 3, 3))
	require.Equal(t, stakeOf(t, k, ctx, 3, 0), stakeOf(t, k, ctx, 3, 1))
	require.Equal(t, uint64(1_250_000_000), stakeOf(t, k, ctx, 3, 2))
	require.Equal(t, uint64(1_250_000_000), stakeOf(t, k, ctx, 3, 0))
	require.Equal(t, uint64(1_000_000_000), stakeOf(t, k, ctx, 3, 5))

	active := k.GetActive(ctx, 3)
	require.True(t, active[0])
	require.False(t, active[4])
	require.Equal(t, []types.BondEntry{{Uid: 2, Bond: 65535}, {Uid: 3, Bond: 65535}}, k.GetBonds(ctx, 3, 0))
	require.Len(t, k.GetValidatorPermits(ctx, 3), 10)
}

func TestRunEpochSingleZeroStakeModule(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	setupSubnet(t, k, ctx, 1, subnetParams(types.ConsensusYuma), 1, 0)
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 1_000))

	ctx = ctx.WithBlockHeight(5)
	out, err := k.RunEpoch(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, out.TotalEmitted)
	require.Equal(t, []uint16{0}, k.GetIncentive(ctx, 1))
	require.Equal(t, []uint16{0}, k.GetDividends(ctx, 1))
	require.Equal(t, []uint64{0}, k.GetEmission(ctx, 1))
	require.Zero(t, stakeOf(t, k, ctx, 1, 0))
}

func TestRunEpochDelegationFee(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	params := subnetParams(types.ConsensusLinear)
	params.IncentiveRatio = 0
	setupSubnet(t, k, ctx, 1, params, 2, 1_000)
	delegator := sdk.AccAddress("delegator___________")
	require.NoError(t, k.IncreaseStake(ctx, 1, moduleAddr(0), delegator, 3_000))
	require.NoError(t, k.SetDelegationFee(ctx, moduleAddr(0), 10))
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 2_002))

	ctx = ctx.WithBlockHeight(3)
	_, err := k.RunEpoch(ctx, 1)
	require.NoError(t, err)

	// no weights: dividends fall back to uniform, 1001 each
	fromDelegate := uint64(1_001 * 3_000 / 4_000)
	toDelegate := fromDelegate - fromDelegate*10/100
	require.Equal(t, 3_000+toDelegate, k.GetStakeFrom(ctx, 1, moduleAddr(0), delegator))
	require.Equal(t, 1_000+1_001-toDelegate, k.GetStakeFrom(ctx, 1, moduleAddr(0), moduleAddr(0)))
	require.Equal(t, uint64(2_001), stakeOf(t, k, ctx, 1, 1))
}

func TestRunEpochPaysUnregisteredFounder(t *testing.T) {
	k, ctx, mocks := keepertest.SubnetEmissionKeeperWithMocks(t)
	params := subnetParams(types.ConsensusLinear)
	params.FounderShare = 10
	setupSubnet(t, k, ctx, 1, params, 2, 100)
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 1_000_000))

	coins := sdk.NewCoins(sdk.NewInt64Coin(types.DefaultDenom, 100_000))
	gomock.InOrder(
		mocks.BankKeeper.EXPECT().MintCoins(gomock.Any(), types.ModuleName, coins).Return(nil),
		mocks.BankKeeper.EXPECT().SendCoinsFromModuleToAccount(gomock.Any(), types.ModuleName, founder, coins).Return(nil),
	)

	ctx = ctx.WithBlockHeight(3)
	out, err := k.RunEpoch(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000), out.FounderEmission)
	require.Equal(t, uint64(900_000), out.ToBeEmitted)
}

func TestRunEpochBankFailureWritesNothing(t *testing.T) {
	k, ctx, mocks := keepertest.SubnetEmissionKeeperWithMocks(t)
	params := subnetParams(types.ConsensusLinear)
	params.FounderShare = 10
	setupSubnet(t, k, ctx, 1, params, 2, 100)
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 1_000_000))

	mocks.BankKeeper.EXPECT().MintCoins(gomock.Any(), types.ModuleName, gomock.Any()).Return(errors.New("mint disabled"))

	ctx = ctx.WithBlockHeight(3)
	_, err := k.RunEpoch(ctx, 1)
	require.Error(t, err)

	require.Nil(t, k.GetIncentive(ctx, 1))
	require.Nil(t, k.GetEmission(ctx, 1))
	require.Equal(t, uint64(100), stakeOf(t, k, ctx, 1, 0))
	require.Equal(t, uint64(1_000_000), k.GetPendingEmission(ctx, 1))
	_, found := k.GetLastEpochBlock(ctx, 1)
	require.False(t, found)
	require.True(t, hasEvent(ctx, types.EventTypeEmissionFailed))
}

func TestBuildConsensusParams(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	params := subnetParams(types.ConsensusYuma)
	params.FounderShare = 8
	params.UseWeightsEncryption = true
	setupSubnet(t, k, ctx, 2, params, 3, 500)
	require.NoError(t, k.SetWeights(ctx, 2, moduleAddr(0), []uint16{1}, []uint16{7}))

	snapshot, err := k.BuildConsensusParams(ctx.WithBlockHeight(9), 2, 1_000)
	require.NoError(t, err)
	require.Equal(t, uint16(3), snapshot.ModuleCount)
	require.True(t, snapshot.IsLinearNetuid)
	require.Equal(t, uint64(9), snapshot.CurrentBlock)
	require.Equal(t, uint64(80), snapshot.FounderEmission)
	require.Equal(t, uint64(920), snapshot.ToBeEmitted)
	require.Equal(t, []uint64{500, 500, 500}, snapshot.Stakes)
	require.Equal(t, []types.WeightEntry{{Uid: 1, Weight: 7}}, snapshot.Weights[0])
	require.Equal(t, types.NewModuleKey(moduleAddr(1)), snapshot.Keys[1])
	require.NotNil(t, snapshot.LiquidAlpha)
	require.True(t, snapshot.LiquidAlpha.Low.LT(snapshot.LiquidAlpha.High))
	require.Equal(t, "0.499992370489051651", snapshot.Kappa.String())

	_, err = k.BuildConsensusParams(ctx, 9, 1_000)
	require.ErrorIs(t, err, types.ErrSubnetNotFound)
}

func TestRunEpochStructuralMismatch(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	setupSubnet(t, k, ctx, 1, subnetParams(types.ConsensusYuma), 2, 100)
	require.NoError(t, k.LastUpdate.Set(ctx, 1, []uint64{0}))
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 500))

	_, err := k.RunEpoch(ctx, 1)
	require.ErrorIs(t, err, types.ErrStructural)
	require.True(t, errorsmod.IsOf(err, types.ErrStructural))
	require.Equal(t, uint64(500), k.GetPendingEmission(ctx, 1))
	require.Nil(t, k.GetIncentive(ctx, 1))
}

func TestAccumulatePendingEmission(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	params := types.DefaultParams()
	params.UnitEmission = 1_001
	require.NoError(t, k.SetParams(ctx, params))

	require.NoError(t, k.RegisterSubnet(ctx, 0, subnetParams(types.ConsensusYuma)))
	require.NoError(t, k.RegisterSubnet(ctx, 1, subnetParams(types.ConsensusYuma)))
	require.NoError(t, k.AccumulatePendingEmission(ctx))
	require.Zero(t, k.GetPendingEmission(ctx, 0))

	_, err := k.RegisterModule(ctx, 0, moduleAddr(0))
	require.NoError(t, err)
	_, err = k.RegisterModule(ctx, 1, moduleAddr(1))
	require.NoError(t, err)
	require.NoError(t, k.IncreaseStake(ctx, 0, moduleAddr(0), moduleAddr(0), 3_000))
	require.NoError(t, k.IncreaseStake(ctx, 1, moduleAddr(1), moduleAddr(1), 1_000))

	require.NoError(t, k.AccumulatePendingEmission(ctx))
	require.Equal(t, uint64(751), k.GetPendingEmission(ctx, 0))
	require.Equal(t, uint64(250), k.GetPendingEmission(ctx, 1))

	require.NoError(t, k.AccumulatePendingEmission(ctx))
	require.Equal(t, uint64(1_502), k.GetPendingEmission(ctx, 0))
	require.Equal(t, uint64(500), k.GetPendingEmission(ctx, 1))
}

func TestRunDueEpochs(t *testing.T) {
	k, ctx := keepertest.SubnetEmissionKeeper(t)
	params := subnetParams(types.ConsensusLinear)
	params.Tempo = 10
	setupSubnet(t, k, ctx, 0, params, 2, 100)
	setupSubnet(t, k, ctx, 1, params, 2, 100)
	require.NoError(t, k.PendingEmission.Set(ctx, 0, 1_000))
	require.NoError(t, k.PendingEmission.Set(ctx, 1, 1_000))
	// a broken subnet must not stop the others
	setupSubnet(t, k, ctx, 5, params, 2, 100)
	require.NoError(t, k.RegistrationBlock.Set(ctx, 5, []uint64{0}))
	require.NoError(t, k.PendingEmission.Set(ctx, 5, 1_000))

	// (8 + 1 + 1) % 10 == 0 and (8 + 5 + 1) % 10 != 0
	ctx = ctx.WithBlockHeight(8)
	require.NoError(t, k.RunDueEpochs(ctx))
	require.Zero(t, k.GetPendingEmission(ctx, 1))
	require.Equal(t, uint64(1_000), k.GetPendingEmission(ctx, 0))
	require.Equal(t, uint64(600), stakeOf(t, k, ctx, 1, 0))

	// (4 + 5 + 1) % 10 == 0 and (4 + 0 + 1) % 10 != 0
	ctx = ctx.WithBlockHeight(4)
	require.NoError(t, k.RunDueEpochs(ctx))
	require.Equal(t, uint64(1_000), k.GetPendingEmission(ctx, 5))
	require.True(t, hasEvent(ctx, types.EventTypeEmissionFailed))

	ctx = ctx.WithBlockHeight(9)
	require.NoError(t, k.RunDueEpochs(ctx))
	require.Zero(t, k.GetPendingEmission(ctx, 0))
}
