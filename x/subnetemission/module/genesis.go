package subnetemission

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// InitGenesis initializes the module's state from a provided genesis state.
func InitGenesis(ctx sdk.Context, k keeper.Keeper, genState types.GenesisState) {
	if err := k.SetParams(ctx, genState.Params); err != nil {
		//nolint:forbidigo
		//Genesis code:
		panic(err)
	}

	for _, subnet := range genState.Subnets {
		if err := k.ImportSubnet(ctx, subnet); err != nil {
			//nolint:forbidigo
			//Genesis code:
			panic(err)
		}
	}
}

// ExportGenesis returns the module's exported genesis.
func ExportGenesis(ctx sdk.Context, k keeper.Keeper) *types.GenesisState {
	genesis := types.DefaultGenesis()
	genesis.Params = k.GetParams(ctx)

	subnets, err := k.ExportSubnets(ctx)
	if err != nil {
		//nolint:forbidigo
		//Genesis code:
		panic(err)
	}
	genesis.Subnets = subnets

	return genesis
}
