package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"crackhash/internal/manager"
	"crackhash/internal/potfile"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crack job API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ln, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// newRouter wires the job API, health and metrics endpoints.
func newRouter(mgr *manager.Manager, wordlistDir string, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), manager.RequestLogger(log))
	manager.NewHandler(mgr, wordlistDir, log).Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// serve runs the API on ln until ctx is done, then cancels the running jobs.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	var pot *potfile.Pot
	if a.cfg.Potfile != "" {
		p, err := potfile.Open(a.cfg.Potfile, a.log)
		if err != nil {
			return err
		}
		defer p.Close()
		pot = p
	}

	mgr := manager.NewManager(manager.Options{
		Search:           a.cfg.Search(),
		Pot:              pot,
		Timeout:          a.cfg.Server.JobTimeout,
		ProgressInterval: a.cfg.ProgressInterval,
		Logger:           a.log,
	})
	defer mgr.Close()

	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Handler:           newRouter(mgr, a.cfg.Server.WordlistDir, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.log.Info("manager started",
		slog.String("addr", ln.Addr().String()),
		slog.String("wordlist_dir", a.cfg.Server.WordlistDir))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
