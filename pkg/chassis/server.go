// Package chassis serves the votemap API on one port over two transports.
//
//   - TCP: HTTP/1.1 and HTTP/2 over TLS
//   - UDP: QUIC, demultiplexed by ALPN. "h3" gets HTTP/3 with the same
//     handler, "votemap-mcp-v1" gets MCP JSON-RPC on a QUIC stream.
//
// HTTP responses advertise HTTP/3 with Alt-Svc. Without cert files a
// short-lived self-signed certificate is issued for Config.Hosts.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/hazyhaar/votemap/pkg/metrics"
)

const (
	alpnHTTP3   = "h3"
	DefaultAddr = ":8430"

	// Map renders and full GeoJSON exports are the slowest responses.
	DefaultWriteTimeout = 60 * time.Second
	readHeaderTimeout   = 10 * time.Second
)

const (
	connErrorMCPDisabled    quic.ApplicationErrorCode = 0x10
	connErrorUnsupportedApp quic.ApplicationErrorCode = 0x11
)

// Server runs the TCP and QUIC listeners.
type Server struct {
	cfg        Config
	tlsCfg     *tls.Config
	handler    http.Handler
	mcpHandler *MCPHandler

	mu        sync.Mutex
	tcpServer *http.Server
	h3Server  *http3.Server
	quicLn    *quic.Listener
}

// Config holds configuration for the chassis server.
type Config struct {
	Addr     string      // TCP and UDP listen address; DefaultAddr when empty
	TLS      *tls.Config // nil: load CertFile/KeyFile or self-sign for Hosts
	CertFile string
	KeyFile  string
	// Hosts are added to the self-signed certificate next to localhost.
	Hosts        []string
	WriteTimeout time.Duration
	Handler      http.Handler
	MCPServer    *server.MCPServer // nil disables MCP
	Logger       *slog.Logger
}

// New prepares a server; nothing listens until Start.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Handler == nil {
		return nil, errors.New("chassis: nil handler")
	}

	tlsCfg := cfg.TLS
	if tlsCfg == nil {
		var (
			selfSigned bool
			err        error
		)
		tlsCfg, selfSigned, err = LoadTLSConfig(cfg.CertFile, cfg.KeyFile, cfg.Hosts...)
		if err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
		if selfSigned {
			cfg.Logger.Warn("serving with a self-signed certificate", "hosts", cfg.Hosts, "valid_for", devCertLifetime)
		}
	}

	s := &Server{
		cfg:     cfg,
		tlsCfg:  tlsCfg,
		handler: securityHeaders(altSvcMiddleware(cfg.Addr, cfg.Handler)),
	}
	if cfg.MCPServer != nil {
		s.mcpHandler = NewMCPHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

// securityHeaders sets the headers of a JSON and image API that never
// serves HTML.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// altSvcMiddleware advertises HTTP/3 on the same port.
func altSvcMiddleware(addr string, next http.Handler) http.Handler {
	_, port, _ := net.SplitHostPort(addr)
	if port == "" {
		_, port, _ = net.SplitHostPort(DefaultAddr)
	}
	altSvc := fmt.Sprintf(`h3=":%s"; ma=86400`, port)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", altSvc)
		next.ServeHTTP(w, r)
	})
}

// Start serves until ctx ends or a listener fails.
func (s *Server) Start(ctx context.Context) error {
	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}

	ln, err := quic.ListenAddr(s.cfg.Addr, s.tlsCfg, &quic.Config{
		MaxStreamReceiveWindow:     10 << 20,
		MaxConnectionReceiveWindow: 50 << 20,
		MaxIdleTimeout:             DefaultIdleTimeout,
		KeepAlivePeriod:            DefaultKeepAlive,
	})
	if err != nil {
		return fmt.Errorf("quic listen: %w", err)
	}
	tcpLn, err := tls.Listen("tcp", s.cfg.Addr, tcpTLS)
	if err != nil {
		ln.Close()
		return fmt.Errorf("tcp listen: %w", err)
	}

	s.mu.Lock()
	s.quicLn = ln
	s.tcpServer = &http.Server{
		Handler:           s.handler,
		TLSConfig:         tcpTLS,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.cfg.Logger.Handler(), slog.LevelDebug),
	}
	s.h3Server = &http3.Server{Handler: s.handler}
	s.mu.Unlock()

	s.cfg.Logger.Info("votemap serving", "addr", s.cfg.Addr, "http3", true, "mcp", s.mcpHandler != nil)

	errCh := make(chan error, 2)
	go func() {
		if err := s.tcpServer.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("tcp: %w", err)
		}
	}()
	go func() {
		if err := s.acceptQUIC(ctx, ln); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// acceptQUIC hands every connection to the handler matching its ALPN.
func (s *Server) acceptQUIC(ctx context.Context, ln *quic.Listener) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}
		s.route(ctx, conn)
	}
}

func (s *Server) route(ctx context.Context, conn *quic.Conn) {
	alpn := conn.ConnectionState().TLS.NegotiatedProtocol
	switch {
	case alpn == alpnHTTP3:
		metrics.QUICConnections.WithLabelValues(alpnHTTP3).Inc()
		go func() {
			if err := s.h3Server.ServeQUICConn(conn); err != nil {
				s.cfg.Logger.Debug("http3 connection closed", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	case alpn == ALPNProtocolMCP && s.mcpHandler != nil:
		metrics.QUICConnections.WithLabelValues("mcp").Inc()
		go s.mcpHandler.ServeConn(ctx, conn)
	case alpn == ALPNProtocolMCP:
		metrics.QUICConnections.WithLabelValues("rejected").Inc()
		conn.CloseWithError(connErrorMCPDisabled, "MCP not enabled")
	default:
		metrics.QUICConnections.WithLabelValues("rejected").Inc()
		s.cfg.Logger.Warn("unsupported ALPN", "alpn", alpn, "remote", conn.RemoteAddr())
		conn.CloseWithError(connErrorUnsupportedApp, "unsupported ALPN: "+alpn)
	}
}

// Stop shuts both transports down; in-flight HTTP requests get until ctx
// ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.tcpServer != nil {
		errs = append(errs, s.tcpServer.Shutdown(ctx))
	}
	if s.h3Server != nil {
		errs = append(errs, s.h3Server.Close())
	}
	if s.quicLn != nil {
		errs = append(errs, s.quicLn.Close())
	}
	err := errors.Join(errs...)
	s.cfg.Logger.Info("votemap stopped", "error", err)
	return err
}
