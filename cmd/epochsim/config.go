package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

const (
	ModeEpoch  = "epoch"
	ModeBlocks = "blocks"

	envPrefix = "EPOCHSIM_"
)

type Config struct {
	// Mode "epoch" adds Budget to every subnet and runs its epoch once per
	// step. Mode "blocks" runs the block scheduler once per step.
	Mode     string             `yaml:"mode"`
	Steps    int                `yaml:"steps"`
	Height   int64              `yaml:"height"`
	Budget   uint64             `yaml:"budget"`
	LogLevel string             `yaml:"log_level"`
	Genesis  types.GenesisState `yaml:"genesis"`
}

func DefaultConfig() Config {
	return Config{
		Mode:     ModeEpoch,
		Steps:    1,
		Height:   1,
		Budget:   1_000_000_000,
		LogLevel: "info",
		Genesis:  *types.DefaultGenesis(),
	}
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeEpoch, ModeBlocks:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Steps < 0 {
		return fmt.Errorf("negative steps %d", c.Steps)
	}
	if c.Height < 0 {
		return fmt.Errorf("negative height %d", c.Height)
	}
	return c.Genesis.Validate()
}

// LoadConfig layers defaults, the YAML file at path (if any) and EPOCHSIM_
// environment variables. Nested keys use a double underscore in the
// environment, e.g. EPOCHSIM_GENESIS__PARAMS__DENOM.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "yaml"), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}
