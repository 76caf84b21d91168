package chassis

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/votemap/pkg/kit"
)

const (
	// ALPNProtocolMCP selects MCP JSON-RPC on a QUIC connection.
	ALPNProtocolMCP = "votemap-mcp-v1"
	// MagicBytesMCP must open the first client stream.
	MagicBytesMCP      = "MCP1"
	MaxMessageSize     = 10 * 1024 * 1024
	DefaultIdleTimeout = 5 * time.Minute
	DefaultKeepAlive   = 30 * time.Second
)

const (
	streamErrorProtocolConfusion quic.StreamErrorCode      = 0x02
	connErrorProtocolViolation   quic.ApplicationErrorCode = 0x03
)

var ErrInvalidMagicBytes = errors.New("invalid magic bytes: expected MCP1")

// ValidateMagicBytes reads and checks the stream preamble.
func ValidateMagicBytes(r io.Reader) error {
	magic := make([]byte, len(MagicBytesMCP))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("read magic bytes: %w", err)
	}
	if !bytes.Equal(magic, []byte(MagicBytesMCP)) {
		return fmt.Errorf("%w: got %q", ErrInvalidMagicBytes, string(magic))
	}
	return nil
}

// MCPHandler serves MCP sessions on QUIC connections accepted by the chassis.
type MCPHandler struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewMCPHandler wraps an MCP server for QUIC connections.
func NewMCPHandler(mcpSrv *server.MCPServer, logger *slog.Logger) *MCPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPHandler{mcpServer: mcpSrv, logger: logger}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ServeConn runs one MCP session on the first stream of conn.
func (h *MCPHandler) ServeConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		h.logger.Error("MCP accept stream failed", "remote", remote, "error", err)
		conn.CloseWithError(connErrorProtocolViolation, "stream accept failed")
		return
	}
	if err := ValidateMagicBytes(stream); err != nil {
		h.logger.Warn("MCP magic bytes invalid", "remote", remote, "error", err)
		stream.CancelWrite(streamErrorProtocolConfusion)
		stream.CancelRead(streamErrorProtocolConfusion)
		conn.CloseWithError(connErrorProtocolViolation, "invalid magic bytes")
		return
	}

	sessionID := "quic_" + randomHex(4)
	sess := newMCPSession(sessionID, stream)
	if err := h.mcpServer.RegisterSession(ctx, sess); err != nil {
		h.logger.Error("MCP session register failed", "session", sessionID, "error", err)
		stream.Close()
		return
	}
	defer h.mcpServer.UnregisterSession(ctx, sessionID)
	h.logger.Info("MCP session started", "session", sessionID, "remote", remote)

	ctx = kit.WithTransport(ctx, "mcp_quic")
	ctx = kit.WithRequestID(ctx, sessionID)
	ctx = h.mcpServer.WithContext(ctx, sess)

	go sess.writeNotifications(ctx)

	reader := bufio.NewReaderSize(stream, 64*1024)
	for {
		line, err := readLine(reader)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				h.logger.Error("MCP read error", "session", sessionID, "error", err)
			}
			break
		}
		if len(line) == 0 {
			continue
		}

		response := h.mcpServer.HandleMessage(ctx, json.RawMessage(line))
		if response == nil {
			continue
		}
		data, err := json.Marshal(response)
		if err != nil {
			h.logger.Error("MCP marshal failed", "session", sessionID, "error", err)
			continue
		}
		if err := sess.write(append(data, '\n')); err != nil {
			h.logger.Error("MCP write error", "session", sessionID, "error", err)
			break
		}
	}

	h.logger.Info("MCP session ended", "session", sessionID, "remote", remote)
}

// readLine returns one newline-terminated message without the newline.
// Messages larger than MaxMessageSize are rejected.
func readLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > MaxMessageSize {
			return nil, fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf, "\r\n"), nil
	}
}

// mcpSession implements server.ClientSession for a single QUIC stream.
type mcpSession struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool
	w             io.Writer
	mu            sync.Mutex
}

func newMCPSession(id string, w io.Writer) *mcpSession {
	return &mcpSession{
		id:            id,
		notifications: make(chan mcp.JSONRPCNotification, 100),
		w:             w,
	}
}

func (s *mcpSession) SessionID() string                                   { return s.id }
func (s *mcpSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *mcpSession) Initialize()                                         { s.initialized.Store(true) }
func (s *mcpSession) Initialized() bool                                   { return s.initialized.Load() }

func (s *mcpSession) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

func (s *mcpSession) writeNotifications(ctx context.Context) {
	for {
		select {
		case notif := <-s.notifications:
			data, err := json.Marshal(notif)
			if err != nil {
				continue
			}
			_ = s.write(append(data, '\n'))
		case <-ctx.Done():
			return
		}
	}
}
