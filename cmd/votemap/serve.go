package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/votemap/pkg/api"
	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/chassis"
	"github.com/hazyhaar/votemap/pkg/importer"
)

type ServeCmd struct {
	Addr          string        `help:"Listen address (defaults to addr from the config)." env:"VOTEMAP_ADDR"`
	TLS           bool          `name:"tls" help:"Serve HTTPS, HTTP/3 and MCP over QUIC instead of plain HTTP."`
	Cert          string        `help:"TLS certificate file (self-signed when empty)." type:"path"`
	Key           string        `help:"TLS key file." type:"path"`
	Host          []string      `help:"Extra host names or addresses for the self-signed certificate."`
	CheckInterval time.Duration `help:"Probe the download sources on this interval (0 disables)." default:"0s"`
	RefreshEvery  time.Duration `help:"Minimum spacing between refresh requests." default:"10s"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	addr := c.Addr
	if addr == "" {
		addr = cfg.Addr
	}

	ctx, stop := signalContext()
	defer stop()

	data, err := atlas.Load(ctx, cfg, logger)
	if err != nil {
		return err
	}
	session := atlas.NewSession(data, logger)
	router := api.NewRouter(session, api.Options{RefreshEvery: c.RefreshEvery, Logger: logger})

	// SIGHUP drops the memoised results.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, results purged", "count", session.Purge())
		}
	}()

	if c.CheckInterval > 0 {
		sdb, err := openSources(cfg)
		if err != nil {
			logger.Warn("source checks disabled", "error", err)
		} else {
			defer sdb.Close()
			go importer.NewChecker(sdb, logger, c.CheckInterval).Start(ctx)
		}
	}

	if c.TLS {
		mcpSrv := server.NewMCPServer("votemap", "1.0.0", server.WithToolCapabilities(false))
		api.RegisterMCPTools(mcpSrv, session, logger)
		srv, err := chassis.New(chassis.Config{
			Addr:      addr,
			CertFile:  c.Cert,
			KeyFile:   c.Key,
			Hosts:     c.Host,
			Handler:   router,
			MCPServer: mcpSrv,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(ctx) }()
		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}

	srv := &http.Server{Addr: addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("votemap listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
