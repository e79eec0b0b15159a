package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"labelme/internal/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP dashboard",
	Long: `Start the dashboard web server. Query results are cached for the configured
TTL; the Refresh button clears the cache. Stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	app, err := newApplication(ctx, appConfig, obs)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := appConfig.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server, err := dashboard.NewServer(dashboard.ServerConfig{
		Addr:         addr,
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
		Info:         appConfig.Dashboard,
	}, app.composer, app.cache, obs)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
