package consensus

import (
	"fmt"
	"sort"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/calculations"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

const (
	CreditReasonFounder  = "founder_emission"
	CreditReasonTreasury = "treasury_emission"
)

// Run dispatches the snapshot to the engine of its consensus type.
func Run(params types.ConsensusParams, logger log.Logger) (*types.ConsensusOutput, error) {
	switch params.ConsensusType {
	case types.ConsensusLinear:
		return RunLinear(params, logger)
	case types.ConsensusYuma:
		return RunYuma(params, logger)
	default:
		return nil, fmt.Errorf("%w: unknown consensus type %q", types.ErrStructural, params.ConsensusType)
	}
}

// SplitFounderShare takes floor(toBeEmitted * share / 100) out of the budget
// for the founder and leaves the rest to the participants.
func SplitFounderShare(toBeEmitted uint64, founderShare uint16) (remaining, founderEmission uint64) {
	share := min(founderShare, 100)
	founder := math.NewIntFromUint64(toBeEmitted).MulRaw(int64(share)).QuoRaw(100).Uint64()
	return toBeEmitted - founder, founder
}

func percent(p uint16) math.LegacyDec {
	return math.LegacyNewDecWithPrec(int64(min(p, 100)), 2)
}

// splitEmission converts normalized incentive and dividends into token
// amounts, giving incentiveRatio percent of the budget to incentive.
func splitEmission(incentive, dividends []math.LegacyDec, toBeEmitted uint64, incentiveRatio uint16) (incentiveEmission, dividendEmission []uint64) {
	budget := calculations.FromU64(toBeEmitted)
	incRatio := percent(incentiveRatio)
	divRatio := calculations.SatSub(calculations.One(), incRatio)

	incentiveEmission = make([]uint64, len(incentive))
	for i, v := range incentive {
		incentiveEmission[i] = calculations.ToU64(calculations.SatMul(calculations.SatMul(v, budget), incRatio))
	}
	dividendEmission = make([]uint64, len(dividends))
	for i, v := range dividends {
		dividendEmission[i] = calculations.ToU64(calculations.SatMul(calculations.SatMul(v, budget), divRatio))
	}
	return incentiveEmission, dividendEmission
}

// assignFounderEmission routes the founder share. Outside the linear netuid
// it is added to the founder's incentive slot, or paid to the founder's
// balance when the founder holds no uid. On the linear netuid it goes to the
// treasury.
func assignFounderEmission(params types.ConsensusParams, incentiveEmission []uint64, out *types.ConsensusOutput) {
	if params.FounderEmission == 0 {
		return
	}
	if params.IsLinearNetuid {
		out.BalanceCredits = append(out.BalanceCredits, types.BalanceCredit{
			Account: params.Treasury,
			Amount:  params.FounderEmission,
			Reason:  CreditReasonTreasury,
		})
		return
	}
	if uid, ok := params.FounderUid(); ok && int(uid) < len(incentiveEmission) {
		incentiveEmission[uid] = saturatingAdd(incentiveEmission[uid], params.FounderEmission)
		return
	}
	out.BalanceCredits = append(out.BalanceCredits, types.BalanceCredit{
		Account: params.Founder,
		Amount:  params.FounderEmission,
		Reason:  CreditReasonFounder,
	})
}

// distribute splits every module's emission between the module and the
// accounts delegating to it. Only the dividend part is shared; a delegate's
// share is floor(dividends * stake / total) and the module keeps
// floor(share * fee / 100) of it.
func distribute(params types.ConsensusParams, incentiveEmission, dividendEmission []uint64) types.EmissionMap {
	emissions := make(types.EmissionMap)
	for uid, key := range params.Keys {
		ownerEmission := saturatingAdd(incentiveEmission[uid], dividendEmission[uid])
		if ownerEmission == 0 {
			continue
		}
		delegations := sortedDelegations(params.Delegations[uid])
		total := math.ZeroInt()
		for _, d := range delegations {
			total = total.Add(math.NewIntFromUint64(d.Amount))
		}
		dividends := math.NewIntFromUint64(dividendEmission[uid])
		fee := math.NewIntFromUint64(uint64(min(params.DelegationFees[uid], 100)))
		for _, d := range delegations {
			if d.Account == key.Account() || d.Amount == 0 || !total.IsPositive() {
				continue
			}
			fromDelegate := dividends.Mul(math.NewIntFromUint64(d.Amount)).Quo(total)
			toModule := fromDelegate.Mul(fee).QuoRaw(100)
			toDelegate := fromDelegate.Sub(toModule).Uint64()
			emissions.Add(key, d.Account, toDelegate)
			ownerEmission -= toDelegate
		}
		emissions.Add(key, key.Account(), ownerEmission)
	}
	return emissions
}

func sortedDelegations(delegations []types.Delegation) []types.Delegation {
	out := append([]types.Delegation(nil), delegations...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// finalize performs the shared tail of both engines: emission split, founder
// routing, distribution and the conservation check.
func finalize(params types.ConsensusParams, incentive, dividends []math.LegacyDec, out *types.ConsensusOutput, logger log.Logger) error {
	incentiveEmission, dividendEmission := splitEmission(incentive, dividends, params.ToBeEmitted, params.IncentiveRatio)
	assignFounderEmission(params, incentiveEmission, out)

	out.Emission = make([]uint64, len(incentiveEmission))
	for i := range incentiveEmission {
		out.Emission[i] = saturatingAdd(incentiveEmission[i], dividendEmission[i])
	}
	out.EmissionMap = distribute(params, incentiveEmission, dividendEmission)

	total := out.EmissionMap.Total()
	for _, credit := range out.BalanceCredits {
		total = saturatingAdd(total, credit.Amount)
	}
	out.TotalEmitted = total
	out.FounderEmission = params.FounderEmission
	out.ToBeEmitted = params.ToBeEmitted

	expected := saturatingAdd(params.FounderEmission, params.ToBeEmitted)
	if total > expected {
		logger.Error("Emission exceeds budget", "netuid", params.Netuid, "emitted", total, "expected", expected)
		return &types.EmittedMoreThanExpectedError{Emitted: total, Expected: expected}
	}
	logger.Debug("Emission distributed", "netuid", params.Netuid, "emitted", total, "expected", expected)
	return nil
}

// withFallback returns normalize(v), or normalize(fallback) when v is all zero.
func withFallback(v, fallback []math.LegacyDec) []math.LegacyDec {
	if calculations.IsZeroVec(v) {
		return calculations.Normalize(fallback)
	}
	return calculations.Normalize(v)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

func stakeVector(stakes []uint64) []math.LegacyDec {
	out := make([]math.LegacyDec, len(stakes))
	for i, s := range stakes {
		out[i] = calculations.FromU64(s)
	}
	return out
}

func weightMatrix(rows [][]types.WeightEntry, columns int) calculations.SparseMatrix {
	m := make(calculations.SparseMatrix, len(rows))
	for i, row := range rows {
		m[i] = make([]calculations.SparseEntry, 0, len(row))
		for _, w := range row {
			if int(w.Uid) < columns {
				m[i] = append(m[i], calculations.SparseEntry{Col: w.Uid, Val: calculations.FromU16(w.Weight)})
			}
		}
	}
	return m
}

func bondsMatrix(rows [][]types.BondEntry, columns int) calculations.SparseMatrix {
	m := make(calculations.SparseMatrix, len(rows))
	for i, row := range rows {
		m[i] = make([]calculations.SparseEntry, 0, len(row))
		for _, b := range row {
			if int(b.Uid) < columns {
				m[i] = append(m[i], calculations.SparseEntry{Col: b.Uid, Val: calculations.U16ToProportion(b.Bond)})
			}
		}
	}
	return m
}

// bondRows encodes proportions as u16 rows, dropping entries that truncate to zero.
func bondRows(m calculations.SparseMatrix) [][]types.BondEntry {
	u16Max := calculations.FromU16(calculations.U16Max)
	rows := make([][]types.BondEntry, len(m))
	for i, row := range m {
		rows[i] = make([]types.BondEntry, 0, len(row))
		for _, e := range row {
			if v := calculations.ToU16(calculations.SatMul(e.Val, u16Max)); v > 0 {
				rows[i] = append(rows[i], types.BondEntry{Uid: e.Col, Bond: v})
			}
		}
	}
	return rows
}
