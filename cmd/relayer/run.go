package main

import (
	"context"
	"fmt"

	"github.com/Meridian-Labs/porthmos/pkg/clients/ethereum"
	"github.com/Meridian-Labs/porthmos/pkg/complianceGate"
	"github.com/Meridian-Labs/porthmos/pkg/config"
	"github.com/Meridian-Labs/porthmos/pkg/ledger/evmLedger"
	"github.com/Meridian-Labs/porthmos/pkg/lifecycle"
	"github.com/Meridian-Labs/porthmos/pkg/logger"
	"github.com/Meridian-Labs/porthmos/pkg/metrics"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore"
	badgerStore "github.com/Meridian-Labs/porthmos/pkg/relayStore/badger"
	"github.com/Meridian-Labs/porthmos/pkg/relayStore/memory"
	"github.com/Meridian-Labs/porthmos/pkg/relayer"
	"github.com/Meridian-Labs/porthmos/pkg/relayer/relayerConfig"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relayer",
	RunE: func(cmd *cobra.Command, args []string) error {
		initRunCmd(cmd)

		log, _ := logger.NewLogger(&logger.LoggerConfig{Debug: Config.Debug})
		sugar := log.Sugar()

		if err := Config.Validate(); err != nil {
			sugar.Errorw("Invalid configuration", "error", err)
			return err
		}

		sugar.Infow("Starting relayer...")

		return lifecycle.RunWithShutdown(func(ctx context.Context) error {
			return startRelayer(ctx, Config, log)
		}, log)
	},
}

func initRunCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s': %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s': %+v\n", f.Name, err)
		}
	})
}

func buildLedgerClient(chain *relayerConfig.Chain, log *zap.Logger) (*evmLedger.EVMLedgerClient, error) {
	ethClient := ethereum.NewEthereumClient(&ethereum.EthereumClientConfig{
		BaseUrl: chain.RpcUrl,
	}, log)

	return evmLedger.NewEVMLedgerClient(&evmLedger.EVMLedgerClientConfig{
		ChainId:     chain.ChainId,
		ContractAbi: chain.ContractAbi,
	}, ethClient, log)
}

func buildRelayStore(cfg *relayerConfig.StorageConfig, log *zap.Logger) (relayStore.RelayStore, error) {
	switch cfg.Type {
	case relayerConfig.StorageTypeBadger:
		log.Sugar().Infow("Using badger relay store",
			"dir", cfg.BadgerConfig.Dir,
			"inMemory", cfg.BadgerConfig.InMemory,
		)
		return badgerStore.NewBadgerRelayStore(cfg.BadgerConfig)
	case relayerConfig.StorageTypeMemory:
		log.Sugar().Infow("Using in-memory relay store")
		return memory.NewInMemoryRelayStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func startRelayer(ctx context.Context, cfg *relayerConfig.RelayerConfig, log *zap.Logger) error {
	sourceClient, err := buildLedgerClient(cfg.SourceChain, log)
	if err != nil {
		return err
	}
	destinationClient, err := buildLedgerClient(cfg.DestinationChain, log)
	if err != nil {
		return err
	}

	gate, err := complianceGate.NewComplianceGateFromComplianceConfig(cfg.Compliance, log)
	if err != nil {
		return err
	}

	store, err := buildRelayStore(cfg.Storage, log)
	if err != nil {
		return err
	}

	components := []lifecycle.Lifecycle{
		metrics.NewMetricsServer(cfg.MetricsPort, log),
		relayer.NewRelayer(cfg, sourceClient, destinationClient, gate, store, log),
	}

	if err := lifecycle.StartAll(components, ctx, log, "relayer"); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		lifecycle.StopAll(components, log, "relayer")
		if err := store.Close(); err != nil {
			log.Sugar().Warnw("Failed to close relay store", "error", err)
		}
		_ = sourceClient.Close()
		_ = destinationClient.Close()
	}()

	return nil
}
