package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

type ConsensusType string

const (
	ConsensusLinear ConsensusType = "linear"
	ConsensusYuma   ConsensusType = "yuma"
)

func (c ConsensusType) Validate() error {
	switch c {
	case ConsensusLinear, ConsensusYuma:
		return nil
	default:
		return fmt.Errorf("unknown consensus type %q", string(c))
	}
}

const (
	DefaultLinearNetuid       uint16 = 2
	DefaultDenom                     = "ncomai"
	DefaultUnitEmission       uint64 = 23_148_148_148
	DefaultTempo              uint16 = 100
	DefaultKappa              uint16 = 32_767
	DefaultMaxWeightAge       uint64 = 3_600
	DefaultMinAllowedWeights  uint16 = 1
	DefaultMaxAllowedWeights  uint16 = 420
	DefaultFounderShare       uint16 = 8
	DefaultIncentiveRatio     uint16 = 50
	DefaultBondsMovingAverage uint64 = 900_000
	DefaultAlphaLow           uint16 = 45_875
	DefaultAlphaHigh          uint16 = 58_982
	DefaultDelegationFee      uint16 = 5

	// BondsMovingAverageScale is the denominator of SubnetParams.BondsMovingAverage.
	BondsMovingAverageScale uint64 = 1_000_000
)

// Params are the chain-wide settings of the module.
type Params struct {
	// LinearNetuid is the subnet whose founder share goes to the treasury.
	LinearNetuid    uint16 `json:"linear_netuid" yaml:"linear_netuid"`
	TreasuryAddress string `json:"treasury_address" yaml:"treasury_address"`
	Denom           string `json:"denom" yaml:"denom"`
	// UnitEmission is minted into pending subnet emission every block.
	UnitEmission uint64 `json:"unit_emission" yaml:"unit_emission"`
}

func DefaultParams() Params {
	return Params{
		LinearNetuid:    DefaultLinearNetuid,
		TreasuryAddress: authtypes.NewModuleAddress(TreasuryAccName).String(),
		Denom:           DefaultDenom,
		UnitEmission:    DefaultUnitEmission,
	}
}

func (p Params) Validate() error {
	if _, err := sdk.AccAddressFromBech32(p.TreasuryAddress); err != nil {
		return fmt.Errorf("invalid treasury address: %w", err)
	}
	if err := sdk.ValidateDenom(p.Denom); err != nil {
		return err
	}
	return nil
}

// SubnetParams configure the epoch of one subnet.
type SubnetParams struct {
	Name          string        `json:"name" yaml:"name"`
	Founder       string        `json:"founder" yaml:"founder"`
	FounderShare  uint16        `json:"founder_share" yaml:"founder_share"`
	Tempo         uint16        `json:"tempo" yaml:"tempo"`
	ConsensusType ConsensusType `json:"consensus_type" yaml:"consensus_type"`
	// Kappa is the consensus majority as a fraction of 65535.
	Kappa             uint16 `json:"kappa" yaml:"kappa"`
	MaxWeightAge      uint64 `json:"max_weight_age" yaml:"max_weight_age"`
	MinAllowedWeights uint16 `json:"min_allowed_weights" yaml:"min_allowed_weights"`
	MaxAllowedWeights uint16 `json:"max_allowed_weights" yaml:"max_allowed_weights"`
	// MaxAllowedValidators caps validator permits; zero means no cap.
	MaxAllowedValidators uint16 `json:"max_allowed_validators" yaml:"max_allowed_validators"`
	TrustRatio           uint16 `json:"trust_ratio" yaml:"trust_ratio"`
	IncentiveRatio       uint16 `json:"incentive_ratio" yaml:"incentive_ratio"`
	BondsMovingAverage   uint64 `json:"bonds_moving_average" yaml:"bonds_moving_average"`
	UseWeightsEncryption bool   `json:"use_weights_encryption" yaml:"use_weights_encryption"`
	AlphaLow             uint16 `json:"alpha_low" yaml:"alpha_low"`
	AlphaHigh            uint16 `json:"alpha_high" yaml:"alpha_high"`
}

func DefaultSubnetParams(founder string) SubnetParams {
	return SubnetParams{
		Founder:            founder,
		FounderShare:       DefaultFounderShare,
		Tempo:              DefaultTempo,
		ConsensusType:      ConsensusYuma,
		Kappa:              DefaultKappa,
		MaxWeightAge:       DefaultMaxWeightAge,
		MinAllowedWeights:  DefaultMinAllowedWeights,
		MaxAllowedWeights:  DefaultMaxAllowedWeights,
		IncentiveRatio:     DefaultIncentiveRatio,
		BondsMovingAverage: DefaultBondsMovingAverage,
		AlphaLow:           DefaultAlphaLow,
		AlphaHigh:          DefaultAlphaHigh,
	}
}

func (p SubnetParams) Validate() error {
	if _, err := sdk.AccAddressFromBech32(p.Founder); err != nil {
		return fmt.Errorf("invalid founder address: %w", err)
	}
	if err := p.ConsensusType.Validate(); err != nil {
		return err
	}
	if p.Tempo == 0 {
		return fmt.Errorf("tempo must be positive")
	}
	if p.FounderShare > 100 {
		return fmt.Errorf("founder share %d exceeds 100", p.FounderShare)
	}
	if p.TrustRatio > 100 {
		return fmt.Errorf("trust ratio %d exceeds 100", p.TrustRatio)
	}
	if p.IncentiveRatio > 100 {
		return fmt.Errorf("incentive ratio %d exceeds 100", p.IncentiveRatio)
	}
	if p.BondsMovingAverage > BondsMovingAverageScale {
		return fmt.Errorf("bonds moving average %d exceeds %d", p.BondsMovingAverage, BondsMovingAverageScale)
	}
	if p.MaxAllowedWeights < p.MinAllowedWeights {
		return fmt.Errorf("max allowed weights %d below min allowed weights %d", p.MaxAllowedWeights, p.MinAllowedWeights)
	}
	if p.UseWeightsEncryption && (p.AlphaLow == 0 || p.AlphaLow >= p.AlphaHigh || p.AlphaHigh == 65535) {
		return fmt.Errorf("liquid alpha bounds must satisfy 0 < low < high < 65535")
	}
	return nil
}
