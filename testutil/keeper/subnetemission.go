package keeper

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

type SubnetEmissionMocks struct {
	BankKeeper *MockBankKeeper
}

// SubnetEmissionKeeper returns a keeper whose bank accepts every mint and send.
func SubnetEmissionKeeper(t testing.TB) (keeper.Keeper, sdk.Context) {
	ctrl := gomock.NewController(t)
	bankKeeper := NewMockBankKeeper(ctrl)
	bankKeeper.EXPECT().MintCoins(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	bankKeeper.EXPECT().SendCoinsFromModuleToAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	k, ctx := subnetEmissionKeeper(t, bankKeeper)
	return k, ctx
}

// SubnetEmissionKeeperWithMocks returns a keeper with a bank mock that has no expectations set.
func SubnetEmissionKeeperWithMocks(t testing.TB) (keeper.Keeper, sdk.Context, SubnetEmissionMocks) {
	ctrl := gomock.NewController(t)
	bankKeeper := NewMockBankKeeper(ctrl)
	k, ctx := subnetEmissionKeeper(t, bankKeeper)
	return k, ctx, SubnetEmissionMocks{BankKeeper: bankKeeper}
}

// SubnetEmissionKeeperWithStoreKey also returns the store key so tests can
// write raw bytes under the module's prefixes.
func SubnetEmissionKeeperWithStoreKey(t testing.TB) (keeper.Keeper, sdk.Context, *storetypes.KVStoreKey) {
	ctrl := gomock.NewController(t)
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	k, ctx := newSubnetEmissionKeeper(t, NewMockBankKeeper(ctrl), storeKey)
	return k, ctx, storeKey
}

func subnetEmissionKeeper(t testing.TB, bankKeeper types.BankKeeper) (keeper.Keeper, sdk.Context) {
	return newSubnetEmissionKeeper(t, bankKeeper, storetypes.NewKVStoreKey(types.StoreKey))
}

func newSubnetEmissionKeeper(t testing.TB, bankKeeper types.BankKeeper, storeKey *storetypes.KVStoreKey) (keeper.Keeper, sdk.Context) {
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	authority := authtypes.NewModuleAddress(govtypes.ModuleName)

	k := keeper.NewKeeper(
		runtime.NewKVStoreService(storeKey),
		log.NewNopLogger(),
		authority.String(),
		bankKeeper,
	)

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())

	// Initialize params
	require.NoError(t, k.SetParams(ctx, types.DefaultParams()))

	return k, ctx
}
