package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the module name
	ModuleName = "subnetemission"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// TreasuryAccName is the module account used as the default DAO treasury.
	TreasuryAccName = "dao_treasury"
)

var (
	ParamsKey               = collections.NewPrefix(0)
	SubnetParamsPrefix      = collections.NewPrefix(1)
	ModuleKeysPrefix        = collections.NewPrefix(2)
	ModuleUidsPrefix        = collections.NewPrefix(3)
	RegistrationBlockPrefix = collections.NewPrefix(4)
	LastUpdatePrefix        = collections.NewPrefix(5)
	ValidatorPermitsPrefix  = collections.NewPrefix(6)
	DelegationFeePrefix     = collections.NewPrefix(7)
	WeightsPrefix           = collections.NewPrefix(8)
	BondsPrefix             = collections.NewPrefix(9)
	StakeToPrefix           = collections.NewPrefix(10)
	ActivePrefix            = collections.NewPrefix(11)
	ConsensusPrefix         = collections.NewPrefix(12)
	IncentivePrefix         = collections.NewPrefix(13)
	DividendsPrefix         = collections.NewPrefix(14)
	TrustPrefix             = collections.NewPrefix(15)
	ValidatorTrustPrefix    = collections.NewPrefix(16)
	RankPrefix              = collections.NewPrefix(17)
	PruningScoresPrefix     = collections.NewPrefix(18)
	EmissionPrefix          = collections.NewPrefix(19)
	PendingEmissionPrefix   = collections.NewPrefix(20)
	LastEpochBlockPrefix    = collections.NewPrefix(21)
	ModuleCountPrefix       = collections.NewPrefix(22)
)
