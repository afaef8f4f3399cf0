package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, ModeEpoch, cfg.Mode)
	require.Equal(t, 1, cfg.Steps)
	require.Equal(t, int64(1), cfg.Height)
	require.Equal(t, types.DefaultParams(), cfg.Genesis.Params)
	require.Empty(t, cfg.Genesis.Subnets)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
mode: blocks
steps: 3
genesis:
  params:
    unit_emission: 500
`)
	t.Setenv("EPOCHSIM_STEPS", "7")
	t.Setenv("EPOCHSIM_GENESIS__PARAMS__DENOM", "stake")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ModeBlocks, cfg.Mode)
	require.Equal(t, 7, cfg.Steps)
	require.Equal(t, uint64(500), cfg.Genesis.Params.UnitEmission)
	require.Equal(t, "stake", cfg.Genesis.Params.Denom)
	// untouched keys keep their defaults
	require.Equal(t, types.DefaultParams().TreasuryAddress, cfg.Genesis.Params.TreasuryAddress)
	require.Equal(t, types.DefaultLinearNetuid, cfg.Genesis.Params.LinearNetuid)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown mode", content: "mode: forever\n"},
		{name: "negative steps", content: "steps: -1\n"},
		{name: "bad denom", content: "genesis:\n  params:\n    denom: \"1\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	require.Equal(t, "steps", envKey("EPOCHSIM_STEPS"))
	require.Equal(t, "genesis.params.unit_emission", envKey("EPOCHSIM_GENESIS__PARAMS__UNIT_EMISSION"))
}
