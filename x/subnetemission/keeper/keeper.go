package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	collcodec "cosmossdk.io/collections/codec"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

type (
	Keeper struct {
		storeService store.KVStoreService
		logger       log.Logger

		// the address capable of updating module and subnet params. Typically, this
		// should be the x/gov module account.
		authority string

		bankKeeper types.BankKeeper

		Schema       collections.Schema
		params       collections.Item[types.Params]
		SubnetParams collections.Map[uint16, types.SubnetParams]

		// Registration and bookkeeping, keyed by netuid and uid.
		ModuleCount       collections.Map[uint16, uint16]
		ModuleKeys        collections.Map[collections.Pair[uint16, uint16], sdk.AccAddress]
		ModuleUids        collections.Map[collections.Pair[uint16, sdk.AccAddress], uint16]
		RegistrationBlock collections.Map[uint16, []uint64]
		LastUpdate        collections.Map[uint16, []uint64]
		ValidatorPermits  collections.Map[uint16, []bool]
		DelegationFee     collections.Map[sdk.AccAddress, uint16]
		Weights           collections.Map[collections.Pair[uint16, uint16], []types.WeightEntry]
		Bonds             collections.Map[collections.Pair[uint16, uint16], []types.BondEntry]
		// StakeTo is keyed by (netuid, module, delegator).
		StakeTo collections.Map[collections.Triple[uint16, sdk.AccAddress, sdk.AccAddress], uint64]

		// Epoch results, one vector per subnet.
		Active         collections.Map[uint16, []bool]
		Consensus      collections.Map[uint16, []uint16]
		Incentive      collections.Map[uint16, []uint16]
		Dividends      collections.Map[uint16, []uint16]
		Trust          collections.Map[uint16, []uint16]
		ValidatorTrust collections.Map[uint16, []uint16]
		Rank           collections.Map[uint16, []uint16]
		PruningScores  collections.Map[uint16, []uint16]
		Emission       collections.Map[uint16, []uint64]

		PendingEmission collections.Map[uint16, uint64]
		LastEpochBlock  collections.Map[uint16, uint64]
	}
)

func NewKeeper(
	storeService store.KVStoreService,
	logger log.Logger,
	authority string,

	bankKeeper types.BankKeeper,
) Keeper {
	if _, err := sdk.AccAddressFromBech32(authority); err != nil {
		//nolint:forbidigo
		//init code:
		panic(fmt.Sprintf("invalid authority address: %s", authority))
	}

	sb := collections.NewSchemaBuilder(storeService)
	addressValue := collcodec.KeyToValueCodec(sdk.AccAddressKey)
	uidKey := collections.PairKeyCodec(collections.Uint16Key, collections.Uint16Key)

	k := Keeper{
		storeService: storeService,
		logger:       logger,
		authority:    authority,
		bankKeeper:   bankKeeper,

		params:       collections.NewItem(sb, types.ParamsKey, "params", types.JSONValue[types.Params]()),
		SubnetParams: collections.NewMap(sb, types.SubnetParamsPrefix, "subnet_params", collections.Uint16Key, types.JSONValue[types.SubnetParams]()),

		ModuleCount:       collections.NewMap(sb, types.ModuleCountPrefix, "module_count", collections.Uint16Key, collections.Uint16Value),
		ModuleKeys:        collections.NewMap(sb, types.ModuleKeysPrefix, "module_keys", uidKey, addressValue),
		ModuleUids:        collections.NewMap(sb, types.ModuleUidsPrefix, "module_uids", collections.PairKeyCodec(collections.Uint16Key, sdk.AccAddressKey), collections.Uint16Value),
		RegistrationBlock: collections.NewMap(sb, types.RegistrationBlockPrefix, "registration_block", collections.Uint16Key, types.JSONValue[[]uint64]()),
		LastUpdate:        collections.NewMap(sb, types.LastUpdatePrefix, "last_update", collections.Uint16Key, types.JSONValue[[]uint64]()),
		ValidatorPermits:  collections.NewMap(sb, types.ValidatorPermitsPrefix, "validator_permits", collections.Uint16Key, types.JSONValue[[]bool]()),
		DelegationFee:     collections.NewMap(sb, types.DelegationFeePrefix, "delegation_fee", sdk.AccAddressKey, collections.Uint16Value),
		Weights:           collections.NewMap(sb, types.WeightsPrefix, "weights", uidKey, types.JSONValue[[]types.WeightEntry]()),
		Bonds:             collections.NewMap(sb, types.BondsPrefix, "bonds", uidKey, types.JSONValue[[]types.BondEntry]()),
		StakeTo: collections.NewMap(
			sb,
			types.StakeToPrefix,
			"stake_to",
			collections.TripleKeyCodec(collections.Uint16Key, sdk.AccAddressKey, sdk.AccAddressKey),
			collections.Uint64Value,
		),

		Active:         collections.NewMap(sb, types.ActivePrefix, "active", collections.Uint16Key, types.JSONValue[[]bool]()),
		Consensus:      collections.NewMap(sb, types.ConsensusPrefix, "consensus", collections.Uint16Key, types.JSONValue[[]uint16]()),
		Incentive:      collections.NewMap(sb, types.IncentivePrefix, "incentive", collections.Uint16Key, types.JSONValue[[]uint16]()),
		Dividends:      collections.NewMap(sb, types.DividendsPrefix, "dividends", collections.Uint16Key, types.JSONValue[[]uint16]()),
		Trust:          collections.NewMap(sb, types.TrustPrefix, "trust", collections.Uint16Key, types.JSONValue[[]uint16]()),
		ValidatorTrust: collections.NewMap(sb, types.ValidatorTrustPrefix, "validator_trust", collections.Uint16Key, types.JSONValue[[]uint16]()),
		Rank:           collections.NewMap(sb, types.RankPrefix, "rank", collections.Uint16Key, types.JSONValue[[]uint16]()),
		PruningScores:  collections.NewMap(sb, types.PruningScoresPrefix, "pruning_scores", collections.Uint16Key, types.JSONValue[[]uint16]()),
		Emission:       collections.NewMap(sb, types.EmissionPrefix, "emission", collections.Uint16Key, types.JSONValue[[]uint64]()),

		PendingEmission: collections.NewMap(sb, types.PendingEmissionPrefix, "pending_emission", collections.Uint16Key, collections.Uint64Value),
		LastEpochBlock:  collections.NewMap(sb, types.LastEpochBlockPrefix, "last_epoch_block", collections.Uint16Key, collections.Uint64Value),
	}
	schema, err := sb.Build()
	if err != nil {
		//nolint:forbidigo
		//init code:
		panic(err)
	}
	k.Schema = schema

	return k
}

// GetAuthority returns the module's authority.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// Logger returns a module-specific logger.
func (k Keeper) Logger() log.Logger {
	return k.logger.With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

func (k Keeper) LogInfo(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Info(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogError(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Error(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogWarn(msg string, subSystem types.SubSystem, keyvals ...interface{}) {
	k.Logger().Warn(msg, append(keyvals, "subsystem", subSystem.String())...)
}

func (k Keeper) LogDebug(msg string, subSystem types.SubSystem, keyVals ...interface{}) {
	k.Logger().Debug(msg, append(keyVals, "subsystem", subSystem.String())...)
}
