package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/httputils/bootstrap"
	"github.com/kbukum/httputils/observability"
	"github.com/kbukum/httputils/server"
	"github.com/kbukum/httputils/version"
)

func newServeCommand(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the test upstream until interrupted",
		Long: `Runs an HTTP server with routes for exercising retries and backoff:

  /echo/*path          echo the request as JSON (?status=N to change the status)
  /status/:code        answer with the given status
  /flaky/:key          fail the first ?fail=N calls per key with ?status (503)
  /delay/:duration     answer after a delay
  /redirect/*path      redirect to /echo/*path
  /basic-auth/:u/:p    require basic auth
  /bearer              require a bearer token`,
		Example: `  httputils serve --addr 127.0.0.1:8080
  httputils request --retries 3 'http://127.0.0.1:8080/flaky/job?fail=2'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g, addr, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (default from config)")
	return cmd
}

func runServe(ctx context.Context, g *globals, addr string, out io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if addr != "" {
		host, port, err := parseHostPort(addr)
		if err != nil {
			return fmt.Errorf("--addr: %w", err)
		}
		cfg.Server.Host, cfg.Server.Port = host, port
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	srv := server.New(cfg.Server, app.Logger)
	if err := app.RegisterComponent(observability.NewComponent(cfg.Telemetry, cfg.Name, version.Version, cfg.Environment)); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	app.OnReady(func(context.Context) error {
		_, err := fmt.Fprintf(out, "listening on %s\n", srv.URL())
		return err
	})
	return app.Run(ctx)
}
