package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/BTreeMap/PulseBot/internal/api"
	"github.com/BTreeMap/PulseBot/internal/metrics"
	"github.com/BTreeMap/PulseBot/internal/util"
)

type ServerFlags struct {
	Definitions DefinitionFlags
	Store       StoreFlags

	ListenAddr  string
	MetricsAddr string
}

func NewServerFlags(config Config) *ServerFlags {
	return &ServerFlags{
		Definitions: DefinitionFlags{
			QuestionnairePath: config.QuestionnairePath,
			KnowledgePath:     config.KnowledgePath,
		},
		Store:       StoreFlags{DSN: config.DatabaseURL},
		ListenAddr:  config.ListenAddr,
		MetricsAddr: config.MetricsAddr,
	}
}

func (f *ServerFlags) BindFlags(flagSet *pflag.FlagSet) {
	f.Definitions.BindFlags(flagSet)
	f.Store.BindFlags(flagSet)

	flagSet.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the survey API on (overrides $PORT)")
	flagSet.StringVar(&f.MetricsAddr, "listen-metrics", f.MetricsAddr, "The address to serve prometheus metrics on, empty disables (overrides $METRICS_ADDR)")
}

func NewServeCommand(config Config) *cobra.Command {
	f := NewServerFlags(config)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the survey HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := f.Store.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := buildEngine(f.Definitions, st)
			if err != nil {
				return err
			}
			server := api.NewServer(engine)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Run(gctx, util.ListenAddr(f.ListenAddr))
			})
			if f.MetricsAddr != "" {
				g.Go(func() error {
					slog.Info("serve: metrics listening", "addr", f.MetricsAddr)
					return api.ListenAndServe(gctx, util.ListenAddr(f.MetricsAddr), metrics.Handler())
				})
			}

			err = g.Wait()
			slog.Info("PulseBot exited", "error", err)
			return err
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
