package subnetemission

import (
	"context"
	"time"

	"github.com/cosmos/cosmos-sdk/telemetry"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

// EndBlocker accrues this block's emission and runs the subnets whose epoch is due.
func EndBlocker(ctx context.Context, k keeper.Keeper) error {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), telemetry.MetricKeyEndBlocker)

	if err := k.AccumulatePendingEmission(ctx); err != nil {
		k.LogError("Failed to accumulate pending emission", types.Emission, "error", err)
		return err
	}
	return k.RunDueEpochs(ctx)
}
