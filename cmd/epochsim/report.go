package main

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/keeper"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

type Report struct {
	RunID    string          `json:"run_id"`
	Steps    []StepReport    `json:"steps"`
	Subnets  []SubnetReport  `json:"subnets"`
	Balances []balanceReport `json:"balances"`
	Minted   string          `json:"minted"`
}

type StepReport struct {
	Height   int64           `json:"height"`
	Epochs   []EpochReport   `json:"epochs"`
	Failures []FailureReport `json:"failures,omitempty"`
}

type EpochReport struct {
	Netuid          string `json:"netuid"`
	ConsensusType   string `json:"consensus_type"`
	TotalEmitted    string `json:"total_emitted"`
	FounderEmission string `json:"founder_emission"`
}

type FailureReport struct {
	Netuid string `json:"netuid"`
	Error  string `json:"error"`
}

type SubnetReport struct {
	Netuid          uint16         `json:"netuid"`
	PendingEmission uint64         `json:"pending_emission"`
	LastEpochBlock  uint64         `json:"last_epoch_block"`
	Modules         []ModuleReport `json:"modules"`
}

type ModuleReport struct {
	Uid             uint16               `json:"uid"`
	Address         string               `json:"address"`
	Stake           uint64               `json:"stake"`
	Emission        uint64               `json:"emission"`
	Incentive       uint16               `json:"incentive"`
	Dividends       uint16               `json:"dividends"`
	Trust           uint16               `json:"trust"`
	ValidatorTrust  uint16               `json:"validator_trust"`
	Consensus       uint16               `json:"consensus"`
	Rank            uint16               `json:"rank"`
	PruningScore    uint16               `json:"pruning_score"`
	Active          bool                 `json:"active"`
	ValidatorPermit bool                 `json:"validator_permit"`
	Bonds           []types.BondEntry    `json:"bonds,omitempty"`
	Delegations     []types.GenesisStake `json:"delegations"`
}

// stepReport collects the epoch outcomes a step emitted.
func stepReport(ctx sdk.Context) StepReport {
	step := StepReport{Height: ctx.BlockHeight(), Epochs: []EpochReport{}}
	for _, event := range ctx.EventManager().Events() {
		attrs := make(map[string]string, len(event.Attributes))
		for _, attr := range event.Attributes {
			attrs[attr.Key] = attr.Value
		}
		switch event.Type {
		case types.EventTypeSubnetEpoch:
			step.Epochs = append(step.Epochs, EpochReport{
				Netuid:          attrs[types.AttributeKeyNetuid],
				ConsensusType:   attrs[types.AttributeKeyConsensusType],
				TotalEmitted:    attrs[types.AttributeKeyTotalEmitted],
				FounderEmission: attrs[types.AttributeKeyFounderEmission],
			})
		case types.EventTypeEmissionFailed:
			step.Failures = append(step.Failures, FailureReport{
				Netuid: attrs[types.AttributeKeyNetuid],
				Error:  attrs[types.AttributeKeyError],
			})
		}
	}
	return step
}

func subnetState(ctx sdk.Context, k keeper.Keeper, netuid uint16) (SubnetReport, error) {
	lastEpoch, _ := k.GetLastEpochBlock(ctx, netuid)
	report := SubnetReport{
		Netuid:          netuid,
		PendingEmission: k.GetPendingEmission(ctx, netuid),
		LastEpochBlock:  lastEpoch,
	}
	var (
		emission       = k.GetEmission(ctx, netuid)
		incentive      = k.GetIncentive(ctx, netuid)
		dividends      = k.GetDividends(ctx, netuid)
		trust          = k.GetTrust(ctx, netuid)
		validatorTrust = k.GetValidatorTrust(ctx, netuid)
		consensus      = k.GetConsensus(ctx, netuid)
		rank           = k.GetRank(ctx, netuid)
		pruning        = k.GetPruningScores(ctx, netuid)
		active         = k.GetActive(ctx, netuid)
		permits        = k.GetValidatorPermits(ctx, netuid)
	)
	n := k.GetModuleCount(ctx, netuid)
	for uid := uint16(0); uid < n; uid++ {
		addr, found := k.GetModuleKey(ctx, netuid, uid)
		if !found {
			return SubnetReport{}, errorsmod.Wrapf(types.ErrStructural, "missing key for uid %d on netuid %d", uid, netuid)
		}
		delegations, err := k.GetDelegations(ctx, netuid, addr)
		if err != nil {
			return SubnetReport{}, err
		}
		module := ModuleReport{
			Uid:             uid,
			Address:         addr.String(),
			Emission:        at(emission, uid),
			Incentive:       at(incentive, uid),
			Dividends:       at(dividends, uid),
			Trust:           at(trust, uid),
			ValidatorTrust:  at(validatorTrust, uid),
			Consensus:       at(consensus, uid),
			Rank:            at(rank, uid),
			PruningScore:    at(pruning, uid),
			Active:          at(active, uid),
			ValidatorPermit: at(permits, uid),
			Bonds:           k.GetBonds(ctx, netuid, uid),
			Delegations:     make([]types.GenesisStake, 0, len(delegations)),
		}
		for _, d := range delegations {
			module.Stake += d.Amount
			module.Delegations = append(module.Delegations, types.GenesisStake{Delegator: string(d.Account), Amount: d.Amount})
		}
		report.Modules = append(report.Modules, module)
	}
	return report, nil
}

// at returns v[i], or the zero value when the vector was never written.
func at[T any](v []T, i uint16) T {
	var zero T
	if int(i) >= len(v) {
		return zero
	}
	return v[i]
}
