package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/liquidityfi/position-scanner/internal/blockinfo"
	"github.com/liquidityfi/position-scanner/internal/config"
	"github.com/liquidityfi/position-scanner/internal/events"
	"github.com/liquidityfi/position-scanner/internal/fetcher"
	"github.com/liquidityfi/position-scanner/internal/logger"
	"github.com/liquidityfi/position-scanner/internal/metrics"
	"github.com/liquidityfi/position-scanner/internal/rpc"
	"github.com/liquidityfi/position-scanner/internal/scanner"
	"github.com/liquidityfi/position-scanner/internal/store"
	pkgchain "github.com/liquidityfi/position-scanner/pkg/chain"
	pkgconfig "github.com/liquidityfi/position-scanner/pkg/config"
	pkgevents "github.com/liquidityfi/position-scanner/pkg/events"
)

const version = "1.0.0"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "scanner",
	Short:   "NFPM position-event scanner",
	Long:    `scanner watches a non-fungible position manager contract across one or more EVM chains and mirrors its IncreaseLiquidity, DecreaseLiquidity, and Collect events into a ledger, reconciling reorgs as they happen.`,
	Version: version,
	RunE:    runScanner,
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Load and validate the configuration file without starting the scanner",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		fmt.Println("config is valid")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(validateConfigCmd)
}

func runScanner(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel, false)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received, draining chain tasks")
		cancel()
	}()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(&cfg.Metrics, log)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := metricsServer.Stop(stopCtx); err != nil {
				log.Warnw("failed to stop metrics server", "error", err)
			}
		}()
		log.Infow("metrics server started", "address", cfg.Metrics.ListenAddress, "path", cfg.Metrics.Path)
	}

	st, err := store.Open(*cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if cfg.Maintenance != nil && cfg.Maintenance.Enabled {
		if err := st.Maintenance.Start(ctx); err != nil {
			log.Warnw("failed to start maintenance coordinator", "error", err)
		}
		defer st.Maintenance.Stop()
	}

	chainIDs, fetchers, blockInfoClients, rpcClients, err := startChains(ctx, *cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range rpcClients {
			c.Close()
		}
	}()

	blockInfoSvc := blockinfo.New(blockInfoClients, log)
	dispatcher := events.NewDispatcher(st.Sink, log)
	pollInterval := time.Duration(cfg.PollIntervalMS) * time.Millisecond

	ctrl, err := scanner.NewController(
		chainIDs, fetchers, blockInfoSvc, st.Watermark, st.Sink, dispatcher,
		pollInterval, cfg.WindowBlocks, cfg.SafetyBuffer, log,
	)
	if err != nil {
		return fmt.Errorf("create scanner controller: %w", err)
	}

	log.Infow("scanner starting", "chains", chainIDs, "poll_interval_ms", cfg.PollIntervalMS)

	if err := ctrl.Run(ctx); err != nil {
		return fmt.Errorf("scanner controller: %w", err)
	}

	log.Info("scanner stopped")
	return nil
}

// startChains connects to every configured chain's RPC endpoint. A chain
// that fails to connect is logged and skipped; the worker runs degraded
// on the remaining chains. Only if every chain fails to start does this
// return an error, which the caller surfaces as a fatal process exit.
func startChains(ctx context.Context, cfg pkgconfig.Config, log *logger.Logger) (
	[]pkgchain.ID,
	map[pkgchain.ID]*fetcher.LogFetcher,
	map[pkgchain.ID]blockinfo.ChainClient,
	[]*rpc.Client,
	error,
) {
	topics := []common.Hash{
		pkgevents.TopicIncreaseLiquidity,
		pkgevents.TopicDecreaseLiquidity,
		pkgevents.TopicCollect,
	}

	chainIDs := make([]pkgchain.ID, 0, len(cfg.EffectiveChains()))
	fetchers := make(map[pkgchain.ID]*fetcher.LogFetcher)
	blockInfoClients := make(map[pkgchain.ID]blockinfo.ChainClient)
	rpcClients := make([]*rpc.Client, 0, len(cfg.EffectiveChains()))

	for _, name := range cfg.EffectiveChains() {
		chainCfg := cfg.Chains[name]
		chainID := pkgchain.ID(name)

		rpcClient, err := rpc.NewClient(ctx, chainCfg.RPCURL, &cfg.Retry)
		if err != nil {
			log.Errorw("failed to start chain, skipping", "chain", chainID, "error", err)
			continue
		}

		fetchers[chainID] = fetcher.NewLogFetcher(fetcher.Config{
			ChunkMin:          cfg.ChunkMin,
			ChunkMax:          cfg.ChunkMax,
			TargetLogsPerCall: cfg.TargetLogsPerCall,
			NFPMAddress:       common.HexToAddress(chainCfg.NFPMAddress),
			Topics:            topics,
		}, rpcClient, log)

		blockInfoClients[chainID] = blockinfo.ChainClient{
			RPC:                  rpcClient,
			SupportsFinalizedTag: chainCfg.SupportsFinalizedTag,
		}

		chainIDs = append(chainIDs, chainID)
		rpcClients = append(rpcClients, rpcClient)
		log.Infow("chain started", "chain", chainID, "rpc_url", chainCfg.RPCURL)
	}

	if len(chainIDs) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("all configured chains failed to start")
	}

	return chainIDs, fetchers, blockInfoClients, rpcClients, nil
}
