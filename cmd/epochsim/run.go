package main

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/commune-ai/subspace-sub000/x/subnetemission/keeper"
	subnetemission "github.com/commune-ai/subspace-sub000/x/subnetemission/module"
	"github.com/commune-ai/subspace-sub000/x/subnetemission/types"
)

const (
	flagConfig = "config"
	flagHome   = "home"
	flagSteps  = "steps"

	dbName = "epochsim"
)

func CmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed a chain store from a subnet description and run epochs on it",
		Long: "Loads the description from --config and EPOCHSIM_ variables, seeds a fresh store\n" +
			"(or resumes the one under --home) and prints the persisted state as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(flagConfig)
			if err != nil {
				return err
			}
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(flagSteps) {
				if cfg.Steps, err = cmd.Flags().GetInt(flagSteps); err != nil {
					return err
				}
			}

			filter, err := log.ParseLogLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := log.NewLogger(cmd.ErrOrStderr(), log.FilterOption(filter))

			sim, err := newSimulator(cfg, home, logger)
			if err != nil {
				return err
			}
			defer sim.Close()

			report, err := sim.Run()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func addRunFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, "", "YAML subnet description")
	flags.String(flagHome, "", "directory of a persistent store; in-memory when empty")
	flags.Int(flagSteps, 1, "number of steps to run, overrides the config")
}

type simulator struct {
	cfg    Config
	db     dbm.DB
	cms    storetypes.CommitMultiStore
	keeper keeper.Keeper
	bank   *memBank
	logger log.Logger
}

func newSimulator(cfg Config, home string, logger log.Logger) (*simulator, error) {
	var (
		db  dbm.DB
		err error
	)
	if home == "" {
		db = dbm.NewMemDB()
	} else if db, err = dbm.NewGoLevelDB(dbName, home, nil); err != nil {
		return nil, err
	}

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := cms.LoadLatestVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}

	bank := newMemBank()
	k := keeper.NewKeeper(
		runtime.NewKVStoreService(storeKey),
		logger,
		authtypes.NewModuleAddress(govtypes.ModuleName).String(),
		bank,
	)
	return &simulator{cfg: cfg, db: db, cms: cms, keeper: k, bank: bank, logger: logger}, nil
}

func (s *simulator) Close() error {
	return s.db.Close()
}

// height is the block the next write happens at; every commit advances it.
func (s *simulator) height() int64 {
	return s.cfg.Height + s.cms.LastCommitID().Version
}

func (s *simulator) context() sdk.Context {
	return sdk.NewContext(s.cms, cmtproto.Header{Height: s.height()}, false, s.logger)
}

// seed writes the genesis description into an empty store. A resumed store
// keeps its own state.
func (s *simulator) seed() error {
	if s.cms.LastCommitID().Version > 0 {
		s.logger.Info("Resuming store", "version", s.cms.LastCommitID().Version)
		return nil
	}
	ctx := s.context()
	if err := s.keeper.SetParams(ctx, s.cfg.Genesis.Params); err != nil {
		return err
	}
	for _, subnet := range s.cfg.Genesis.Subnets {
		if err := s.keeper.ImportSubnet(ctx, subnet); err != nil {
			return fmt.Errorf("subnet %d: %w", subnet.Netuid, err)
		}
	}
	s.cms.Commit()
	return nil
}

func (s *simulator) Run() (*Report, error) {
	if err := s.seed(); err != nil {
		return nil, err
	}
	report := &Report{RunID: uuid.NewString()}
	for i := 0; i < s.cfg.Steps; i++ {
		step, err := s.step()
		if err != nil {
			return nil, err
		}
		report.Steps = append(report.Steps, step)
	}

	ctx := s.context()
	netuids, err := s.keeper.GetSubnetNetuids(ctx)
	if err != nil {
		return nil, err
	}
	for _, netuid := range netuids {
		subnet, err := subnetState(ctx, s.keeper, netuid)
		if err != nil {
			return nil, err
		}
		report.Subnets = append(report.Subnets, subnet)
	}
	report.Balances = s.bank.Balances()
	report.Minted = s.bank.Minted().String()
	return report, nil
}

func (s *simulator) step() (StepReport, error) {
	ctx := s.context()
	switch s.cfg.Mode {
	case ModeBlocks:
		if err := subnetemission.EndBlocker(ctx, s.keeper); err != nil {
			return StepReport{}, err
		}
	default:
		netuids, err := s.keeper.GetSubnetNetuids(ctx)
		if err != nil {
			return StepReport{}, err
		}
		for _, netuid := range netuids {
			pending := s.keeper.GetPendingEmission(ctx, netuid) + s.cfg.Budget
			if err := s.keeper.PendingEmission.Set(ctx, netuid, pending); err != nil {
				return StepReport{}, err
			}
			// failures are reported through the emission_failed event
			_, _ = s.keeper.RunEpoch(ctx, netuid)
		}
	}
	step := stepReport(ctx)
	s.cms.Commit()
	return step, nil
}
