package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestChainOrder(t *testing.T) {
	var trail []string
	mark := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				trail = append(trail, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mark("a"), mark("b"), mark("c"))(func(context.Context, any) (any, error) {
		trail = append(trail, "endpoint")
		return nil, nil
	})
	ep(context.Background(), nil)

	if got := strings.Join(trail, ","); got != "a,b,c,endpoint" {
		t.Errorf("order = %s", got)
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if GetTransport(ctx) != "http" || GetRequestID(ctx) != "" {
		t.Fatal("unexpected defaults")
	}
	ctx = WithRequestID(WithTransport(ctx, "mcp_quic"), "req-1")
	if GetTransport(ctx) != "mcp_quic" || GetRequestID(ctx) != "req-1" {
		t.Errorf("transport=%q id=%q", GetTransport(ctx), GetRequestID(ctx))
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fail := Logging(logger, "refresh")(func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	})
	if _, err := fail(WithRequestID(context.Background(), "r42"), nil); err == nil {
		t.Fatal("error swallowed")
	}
	out := buf.String()
	if !strings.Contains(out, "endpoint=refresh") || !strings.Contains(out, "request_id=r42") || !strings.Contains(out, "level=WARN") {
		t.Errorf("log = %s", out)
	}
}
