package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelres/internal/server"
	"github.com/matzehuels/wheelres/pkg/trace"
)

const defaultAddr = ":8080"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolutions over HTTP",
		Long: `Serve resolutions over HTTP.

POST /v1/resolve takes {"requirements": [...], "environment": "<name>"}
and answers with the resolved graph. Environments come from the config
file. Prometheus metrics are exported at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	envs, err := cfg.BuildEnvironments()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := trace.NewMetricsSink(reg)
	if err != nil {
		return err
	}

	engine, store, err := cfg.NewEngine(ctx, c.Logger, trace.Multi{metrics, trace.NewLogSink(c.Logger)})
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := server.New(server.Config{
		Engine:       engine,
		Environments: envs,
		Policy:       cfg.Policy,
		Registry:     reg,
		Logger:       c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Listening on %s", StyleHighlight.Render(addr))
	printDetail("Environments: %v", cfg.EnvironmentNames())
	printDetail("Cache: %s", cfg.Cache.Backend)
	return srv.ListenAndServe(ctx, addr)
}
