package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ponpaku/creators-file-manager/internal/config"
	"github.com/ponpaku/creators-file-manager/internal/log"
	"github.com/ponpaku/creators-file-manager/internal/metadata"
	"github.com/ponpaku/creators-file-manager/internal/ops"
	"github.com/ponpaku/creators-file-manager/internal/progress"
	"github.com/ponpaku/creators-file-manager/internal/settings"
	"github.com/ponpaku/creators-file-manager/internal/web"
	"github.com/ponpaku/creators-file-manager/pkg/types"
)

var appVersion = "0.1.0"

func main() {
	var cfgFile string
	var listenAddr string

	root := &cobra.Command{
		Use:     "cfm-server",
		Short:   "HTTP/WebSocket API server for the batch file-operations engine",
		Version: appVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if cfgFile != "" {
				loaded, err := config.LoadFromFile(cfgFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}

			logger, err := log.New(cfg.LogFile, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer logger.Close()

			store, err := settings.NewStore()
			if err != nil {
				return err
			}

			// Progress flows through the bus: the engine publishes, the
			// server drains a subscription into its websocket hub.
			bus := progress.NewBus()
			var server *web.Server
			opts := []ops.Option{
				ops.WithWorkers(cfg.Jobs),
				ops.WithLogger(logger),
				ops.WithProgress(bus.Callback()),
				ops.WithEstimateProgress(func(event types.EstimateProgressEvent) {
					server.BroadcastEstimateProgress(event)
				}),
			}
			if cfg.UseProbe {
				opts = append(opts, ops.WithProbe(metadata.NewFFProbe()))
			}
			engine := ops.New(opts...)
			server = web.NewServer(engine, store)
			server.SetVersion(appVersion)

			events, cancel := bus.Subscribe(256)
			defer cancel()
			go func() {
				for event := range events {
					server.BroadcastProgress(event)
				}
			}()

			return server.Start(cfg.ListenAddr)
		},
	}
	root.Flags().StringVar(&cfgFile, "config", "", "engine config file (YAML)")
	root.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
