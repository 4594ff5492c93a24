package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meadowhq/mdwd/client"
	"github.com/meadowhq/mdwd/config"
	"github.com/meadowhq/mdwd/events"
	"github.com/meadowhq/mdwd/jsonrpc"
	"github.com/meadowhq/mdwd/logx"
	"github.com/meadowhq/mdwd/monitoring"
	"github.com/meadowhq/mdwd/transaction"
	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "config/mdwd.yml"
	defaultLedgerPath = "config/mdwd.ini"

	shutdownTimeout = 5 * time.Second
)

var (
	configPath string
	ledgerPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transaction proxy daemon",
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon(configPath, ledgerPath)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to the daemon config file")
	runCmd.Flags().StringVar(&ledgerPath, "ledger-config", defaultLedgerPath, "Path to the ledger tuning file")
}

func runDaemon(configPath, ledgerPath string) {
	daemonCfg, err := config.LoadDaemonConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	ledgerCfg, err := config.LoadLedgerConfig(ledgerPath)
	if err != nil {
		logx.Warn("CMD", fmt.Sprintf("No ledger config at %s, using defaults: %v", ledgerPath, err))
		ledgerCfg = &config.LedgerConfig{}
	}
	signer, err := config.LoadEd25519PrivKey(daemonCfg.KeyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load key %s: %v\n", daemonCfg.KeyPath, err)
		os.Exit(1)
	}

	monitoring.InitMetrics()
	if daemonCfg.MetricsListenAddr != "" {
		monitoring.StartMetricsServer(daemonCfg.MetricsListenAddr)
	}

	chain, err := client.NewClient(client.Config{Endpoint: daemonCfg.NodeEndpoint})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build chain client: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus()
	ledger := transaction.NewLedger(ledgerCfg.Capacity, chain)
	refresher := transaction.NewRefresher(ledger, bus, time.Duration(ledgerCfg.RefreshIntervalMs)*time.Millisecond)
	refresher.Start()

	rpcServer := jsonrpc.NewServer(daemonCfg.RPCListenAddr, ledger, chain, bus, signer)
	if len(daemonCfg.AllowedOrigins) > 0 {
		rpcServer.SetCORSConfig(jsonrpc.CORSConfig{
			AllowedOrigins: daemonCfg.AllowedOrigins,
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         600,
		})
	}
	rpcServer.Start()

	logx.Info("CMD", fmt.Sprintf("mdwd running (ledger capacity: %d)", ledger.Capacity()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logx.Info("CMD", "Shutting down")
	refresher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rpcServer.Stop(ctx); err != nil {
		logx.Warn("CMD", "RPC server shutdown: ", err)
	}
	if err := chain.Close(); err != nil {
		logx.Warn("CMD", "Chain client close: ", err)
	}
}
