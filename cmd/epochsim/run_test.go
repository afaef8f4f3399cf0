package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

func moduleAddr(i int) sdk.AccAddress {
	return sdk.AccAddress(fmt.Sprintf("module_%013d", i))
}

// cycleConfig describes four self-staked modules on a linear subnet, each
// voting for the next one.
func cycleConfig(extra string) string {
	var b strings.Builder
	b.WriteString(extra)
	fmt.Fprintf(&b, `
log_level: error
genesis:
  params:
    unit_emission: 1000
  subnets:
    - netuid: 0
      params:
        founder: %s
        founder_share: 0
        tempo: 2
        consensus_type: linear
        kappa: 32767
        max_weight_age: 3600
        min_allowed_weights: 1
        max_allowed_weights: 420
        incentive_ratio: 50
        bonds_moving_average: 900000
      modules:
`, sdk.AccAddress("founder_____________").String())
	for i := 0; i < 4; i++ {
		addr := moduleAddr(i).String()
		fmt.Fprintf(&b, `        - address: %s
          registration_block: 0
          last_update: 1
          weights:
            - uid: %d
              weight: 65535
          stake:
            - delegator: %s
              amount: 1000000000
`, addr, (i+1)%4, addr)
	}
	return b.String()
}

func runCmd(t *testing.T, args ...string) Report {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(append([]string{"run"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.Execute())

	var report Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	return report
}

func TestRunEpochMode(t *testing.T) {
	path := writeConfig(t, cycleConfig("mode: epoch\nbudget: 1000000000\n"))

	report := runCmd(t, "--config", path)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Steps, 1)
	require.Equal(t, int64(2), report.Steps[0].Height)
	require.Len(t, report.Steps[0].Epochs, 1)
	require.Equal(t, "0", report.Steps[0].Epochs[0].Netuid)
	require.Equal(t, "linear", report.Steps[0].Epochs[0].ConsensusType)
	require.Equal(t, "1000000000", report.Steps[0].Epochs[0].TotalEmitted)
	require.Empty(t, report.Steps[0].Failures)

	require.Len(t, report.Subnets, 1)
	subnet := report.Subnets[0]
	require.Zero(t, subnet.PendingEmission)
	require.Equal(t, uint64(2), subnet.LastEpochBlock)
	require.Len(t, subnet.Modules, 4)
	for i, module := range subnet.Modules {
		require.Equal(t, moduleAddr(i).String(), module.Address)
		require.Equal(t, uint64(1_250_000_000), module.Stake)
		require.Equal(t, uint64(250_000_000), module.Emission)
		require.Equal(t, uint16(16383), module.Incentive)
		require.Equal(t, uint16(16383), module.Dividends)
		require.False(t, module.Active)
	}
	// no founder share and not the linear netuid: nothing is minted
	require.Empty(t, report.Balances)
}

func TestRunBlocksMode(t *testing.T) {
	path := writeConfig(t, cycleConfig("mode: blocks\n"))

	// heights 2 and 3; netuid 0 with tempo 2 is due at 3
	report := runCmd(t, "--config", path, "--steps", "2")
	require.Len(t, report.Steps, 2)
	require.Empty(t, report.Steps[0].Epochs)
	require.Len(t, report.Steps[1].Epochs, 1)
	require.Equal(t, int64(3), report.Steps[1].Height)
	require.Equal(t, "2000", report.Steps[1].Epochs[0].TotalEmitted)

	subnet := report.Subnets[0]
	require.Zero(t, subnet.PendingEmission)
	require.Equal(t, uint64(3), subnet.LastEpochBlock)
	for _, module := range subnet.Modules {
		require.Equal(t, uint64(1_000_000_500), module.Stake)
	}
}

func TestRunResumesHome(t *testing.T) {
	path := writeConfig(t, cycleConfig("mode: epoch\nbudget: 1000000000\n"))
	home := t.TempDir()

	first := runCmd(t, "--config", path, "--home", home)
	require.Equal(t, uint64(1_250_000_000), first.Subnets[0].Modules[0].Stake)

	second := runCmd(t, "--config", path, "--home", home)
	require.Equal(t, int64(3), second.Steps[0].Height)
	require.Equal(t, uint64(3), second.Subnets[0].LastEpochBlock)
	for _, module := range second.Subnets[0].Modules {
		require.Equal(t, uint64(1_500_000_000), module.Stake)
	}
}
