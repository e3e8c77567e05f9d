package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview HTTP API",
	Long:  "Serve the interview session API and Prometheus metrics. The question countdown runs server-side.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := mustApp(cmd)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.Config.ListenAddr
		}

		srv := server.New(addr, a.Engine, a.Registry)
		ticker := interview.NewTicker(a.Engine, interview.DefaultTickInterval, nil)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(srv.Start)
		g.Go(func() error {
			return ticker.Run(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to listen_addr from the config)")
}
