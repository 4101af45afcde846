package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msalah0e/h2canvas/internal/api"
	"github.com/msalah0e/h2canvas/internal/live"
	"github.com/msalah0e/h2canvas/internal/server"
	"github.com/msalah0e/h2canvas/internal/ui"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plant service",
		Long: `Serve the plant graph and simulator over HTTP.

  h2canvas serve                # listen on the configured port (5000)
  h2canvas serve --port 8080

Endpoints:
  POST /add_component        {type, name}
  POST /connect_components   {source, target}
  POST /simulate
  POST /reset
  GET  /api/graph?format=json|dot
  GET  /api/live             websocket event stream
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger := newLogger(cmd.ErrOrStderr(), true)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := live.NewHub(logger)
			go hub.Run(ctx)

			srv := server.New(server.Options{Sim: simOptions(cfg), Hub: hub, Logger: logger})
			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			out := cmd.OutOrStdout()
			ui.Banner(out, "plant service")
			fmt.Fprintf(out, "  API:   %s\n", ui.Brand.Sprintf("http://localhost%s", addr))
			fmt.Fprintf(out, "  Live:  %s\n", ui.Brand.Sprintf("ws://localhost%s%s", addr, api.PathLive))
			fmt.Fprintf(out, "  Graph: %s\n\n", ui.Subtle.Sprintf("http://localhost%s%s?format=dot", addr, api.PathGraph))

			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen on %s: %w", addr, err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			ui.Good.Fprintf(out, "  %s Server stopped\n", ui.StatusIcon(true))
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5000, "Port to listen on")
	return cmd
}
