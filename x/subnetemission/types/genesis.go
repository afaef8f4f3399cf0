package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

type GenesisStake struct {
	Delegator string `json:"delegator" yaml:"delegator"`
	Amount    uint64 `json:"amount" yaml:"amount"`
}

// GenesisModule is one registered module; its uid is its index in the subnet.
type GenesisModule struct {
	Address           string         `json:"address" yaml:"address"`
	RegistrationBlock uint64         `json:"registration_block" yaml:"registration_block"`
	LastUpdate        uint64         `json:"last_update" yaml:"last_update"`
	ValidatorPermit   bool           `json:"validator_permit" yaml:"validator_permit"`
	DelegationFee     uint16         `json:"delegation_fee" yaml:"delegation_fee"`
	Weights           []WeightEntry  `json:"weights" yaml:"weights"`
	Bonds             []BondEntry    `json:"bonds" yaml:"bonds"`
	Stake             []GenesisStake `json:"stake" yaml:"stake"`
}

type GenesisSubnet struct {
	Netuid          uint16          `json:"netuid" yaml:"netuid"`
	Params          SubnetParams    `json:"params" yaml:"params"`
	PendingEmission uint64          `json:"pending_emission" yaml:"pending_emission"`
	Modules         []GenesisModule `json:"modules" yaml:"modules"`
}

type GenesisState struct {
	Params  Params          `json:"params" yaml:"params"`
	Subnets []GenesisSubnet `json:"subnets" yaml:"subnets"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	seen := make(map[uint16]struct{}, len(gs.Subnets))
	for _, subnet := range gs.Subnets {
		if _, ok := seen[subnet.Netuid]; ok {
			return fmt.Errorf("duplicate subnet %d", subnet.Netuid)
		}
		seen[subnet.Netuid] = struct{}{}
		if err := subnet.Params.Validate(); err != nil {
			return fmt.Errorf("subnet %d: %w", subnet.Netuid, err)
		}
		addresses := make(map[string]struct{}, len(subnet.Modules))
		for uid, module := range subnet.Modules {
			if _, err := sdk.AccAddressFromBech32(module.Address); err != nil {
				return fmt.Errorf("subnet %d uid %d: %w", subnet.Netuid, uid, err)
			}
			if _, ok := addresses[module.Address]; ok {
				return fmt.Errorf("subnet %d: duplicate module %s", subnet.Netuid, module.Address)
			}
			addresses[module.Address] = struct{}{}
			if module.DelegationFee > 100 {
				return fmt.Errorf("subnet %d uid %d: delegation fee %d exceeds 100", subnet.Netuid, uid, module.DelegationFee)
			}
			for _, w := range module.Weights {
				if int(w.Uid) >= len(subnet.Modules) {
					return fmt.Errorf("subnet %d uid %d: weight target %d out of range", subnet.Netuid, uid, w.Uid)
				}
			}
			for _, s := range module.Stake {
				if _, err := sdk.AccAddressFromBech32(s.Delegator); err != nil {
					return fmt.Errorf("subnet %d uid %d: %w", subnet.Netuid, uid, err)
				}
			}
		}
	}
	return nil
}
