package types

// Event types for subnetemission module
const (
	EventTypeSubnetEpoch    = "subnet_epoch"
	EventTypeEmissionFailed = "emission_failed"
	EventTypeStakeIncreased = "stake_increased"
)

// Event attributes
const (
	AttributeKeyNetuid          = "netuid"
	AttributeKeyConsensusType   = "consensus_type"
	AttributeKeyTotalEmitted    = "total_emitted"
	AttributeKeyFounderEmission = "founder_emission"
	AttributeKeyToBeEmitted     = "to_be_emitted"
	AttributeKeyModule          = "module"
	AttributeKeyDelegator       = "delegator"
	AttributeKeyAmount          = "amount"
	AttributeKeyError           = "error"
)
