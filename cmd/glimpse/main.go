package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"glimpse/internal/glimpse"
)

func main() {
	var configPath, listen string
	flag.StringVar(&configPath, "config", getenvDefault("GLIMPSE_CONFIG", "/glimpse.yaml"), "path to glimpse.yaml")
	flag.StringVar(&listen, "listen", "", "listen address (overrides server.port)")
	flag.Parse()

	cfg, err := glimpse.LoadConfig(configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	mgr, err := glimpse.NewManager(cfg)
	if err != nil {
		slog.Error("init manager", "error", err)
		os.Exit(1)
	}

	srv, err := glimpse.NewServer(mgr)
	if err != nil {
		slog.Error("init server", "error", err)
		os.Exit(1)
	}

	addr := listen
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Server.Port)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("listen", "addr", addr, "error", err)
		os.Exit(1)
	}

	mgr.Start()
	defer mgr.Close()

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("glimpse listening", "addr", addr)
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func getenvDefault(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}
