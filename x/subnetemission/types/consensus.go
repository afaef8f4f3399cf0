package types

import (
	"fmt"
	"sort"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ModuleKey identifies the module being credited. AccountKey identifies the
// account receiving the credit. Both wrap a bech32 address and are kept as
// distinct types so they cannot be swapped in an EmissionMap.
type (
	ModuleKey  string
	AccountKey string
)

func NewModuleKey(addr sdk.AccAddress) ModuleKey { return ModuleKey(addr.String()) }

func NewAccountKey(addr sdk.AccAddress) AccountKey { return AccountKey(addr.String()) }

func (k ModuleKey) Address() (sdk.AccAddress, error) { return sdk.AccAddressFromBech32(string(k)) }

// Account returns the module's own account, which receives its self emission.
func (k ModuleKey) Account() AccountKey { return AccountKey(k) }

func (k AccountKey) Address() (sdk.AccAddress, error) { return sdk.AccAddressFromBech32(string(k)) }

// WeightEntry is a validator's weight toward one target uid.
type WeightEntry struct {
	Uid    uint16 `json:"uid" yaml:"uid"`
	Weight uint16 `json:"weight" yaml:"weight"`
}

// BondEntry is a validator's bond toward one target uid, as a fraction of 65535.
type BondEntry struct {
	Uid  uint16 `json:"uid" yaml:"uid"`
	Bond uint16 `json:"bond" yaml:"bond"`
}

// Delegation is the stake one account holds on a module.
type Delegation struct {
	Account AccountKey
	Amount  uint64
}

type LiquidAlphaBounds struct {
	Low  math.LegacyDec
	High math.LegacyDec
}

// ConsensusParams is the read-only snapshot one epoch runs on. Every per-uid
// slice has exactly ModuleCount elements.
type ConsensusParams struct {
	Netuid         uint16
	ConsensusType  ConsensusType
	IsLinearNetuid bool
	CurrentBlock   uint64
	ModuleCount    uint16

	Keys              []ModuleKey
	Stakes            []uint64
	Delegations       [][]Delegation
	DelegationFees    []uint16
	LastUpdate        []uint64
	RegistrationBlock []uint64
	ValidatorPermits  []bool
	Weights           [][]WeightEntry
	Bonds             [][]BondEntry

	Kappa                math.LegacyDec
	MaxWeightAge         uint64
	MinAllowedWeights    uint16
	MaxAllowedWeights    uint16
	MaxAllowedValidators uint16
	TrustRatio           uint16
	IncentiveRatio       uint16
	BondsMovingAverage   uint64
	// LiquidAlpha is set only for subnets running with weight encryption.
	LiquidAlpha *LiquidAlphaBounds

	Founder         AccountKey
	Treasury        AccountKey
	FounderEmission uint64
	ToBeEmitted     uint64
}

// Validate checks that every per-uid vector matches the module count.
func (p ConsensusParams) Validate() error {
	n := int(p.ModuleCount)
	checks := []struct {
		name string
		len  int
	}{
		{"keys", len(p.Keys)},
		{"stakes", len(p.Stakes)},
		{"delegations", len(p.Delegations)},
		{"delegation fees", len(p.DelegationFees)},
		{"last update", len(p.LastUpdate)},
		{"registration blocks", len(p.RegistrationBlock)},
		{"validator permits", len(p.ValidatorPermits)},
		{"weights", len(p.Weights)},
		{"bonds", len(p.Bonds)},
	}
	for _, c := range checks {
		if c.len != n {
			return fmt.Errorf("%w: unequal number of %s and modules (%d != %d)", ErrStructural, c.name, c.len, n)
		}
	}
	return nil
}

// FounderUid returns the founder's uid when the founder is registered in the subnet.
func (p ConsensusParams) FounderUid() (uint16, bool) {
	for uid, key := range p.Keys {
		if key.Account() == p.Founder {
			return uint16(uid), true
		}
	}
	return 0, false
}

type BondsUpdate struct {
	Uid uint16
	Row []BondEntry
}

// BalanceCredit is a direct balance payment outside the stake ledger.
type BalanceCredit struct {
	Account AccountKey
	Amount  uint64
	Reason  string
}

type StakeCredit struct {
	Module  ModuleKey
	Account AccountKey
	Amount  uint64
}

// EmissionMap records how much stake each account gains on each module.
type EmissionMap map[ModuleKey]map[AccountKey]uint64

func (m EmissionMap) Add(module ModuleKey, account AccountKey, amount uint64) {
	if amount == 0 {
		return
	}
	inner, ok := m[module]
	if !ok {
		inner = make(map[AccountKey]uint64)
		m[module] = inner
	}
	inner[account] = saturatingAdd(inner[account], amount)
}

// Credits flattens the map in (module, account) order.
func (m EmissionMap) Credits() []StakeCredit {
	var credits []StakeCredit
	for module, inner := range m {
		for account, amount := range inner {
			credits = append(credits, StakeCredit{Module: module, Account: account, Amount: amount})
		}
	}
	sort.Slice(credits, func(i, j int) bool {
		if credits[i].Module != credits[j].Module {
			return credits[i].Module < credits[j].Module
		}
		return credits[i].Account < credits[j].Account
	})
	return credits
}

func (m EmissionMap) Total() uint64 {
	var total uint64
	for _, inner := range m {
		for _, amount := range inner {
			total = saturatingAdd(total, amount)
		}
	}
	return total
}

// ConsensusOutput is everything an epoch produces. Nil vectors are not persisted.
type ConsensusOutput struct {
	Netuid        uint16
	ConsensusType ConsensusType

	Active           []bool
	Consensus        []uint16
	Incentive        []uint16
	Dividends        []uint16
	Trust            []uint16
	ValidatorTrust   []uint16
	Ranks            []uint16
	PruningScores    []uint16
	Emission         []uint64
	ValidatorPermits []bool

	BondsUpdates  []BondsUpdate
	PrunedWeights []uint16

	EmissionMap    EmissionMap
	BalanceCredits []BalanceCredit

	FounderEmission uint64
	ToBeEmitted     uint64
	TotalEmitted    uint64
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}
