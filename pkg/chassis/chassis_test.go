package chassis

import (
	"bufio"
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValidateMagicBytes(t *testing.T) {
	if err := ValidateMagicBytes(strings.NewReader("MCP1{}")); err != nil {
		t.Fatalf("valid preamble: %v", err)
	}
	if err := ValidateMagicBytes(strings.NewReader("GET ")); !errors.Is(err, ErrInvalidMagicBytes) {
		t.Fatalf("err = %v, want ErrInvalidMagicBytes", err)
	}
	if err := ValidateMagicBytes(strings.NewReader("MC")); err == nil {
		t.Fatal("expected error for short preamble")
	}
}

func TestReadLine(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	r := bufio.NewReaderSize(strings.NewReader("{\"a\":1}\r\n\n"+long+"\n"), 64*1024)

	tests := []string{`{"a":1}`, "", long}
	for i, want := range tests {
		got, err := readLine(r)
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("line %d: got %d bytes, want %d", i, len(got), len(want))
		}
	}
}

func TestHeaders(t *testing.T) {
	h := securityHeaders(altSvcMiddleware(":9443", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if got := rec.Header().Get("Alt-Svc"); got != `h3=":9443"; ma=86400` {
		t.Errorf("Alt-Svc = %q", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != "default-src 'none'; frame-ancestors 'none'" {
		t.Errorf("CSP = %q", got)
	}
}

func TestLoadTLSConfig_SelfSigned(t *testing.T) {
	cfg, selfSigned, err := LoadTLSConfig("", "", "votemap.lan", "192.168.1.20", "localhost")
	if err != nil {
		t.Fatal(err)
	}
	if !selfSigned {
		t.Error("expected a self-signed certificate")
	}
	if len(cfg.NextProtos) != 2 || cfg.NextProtos[0] != "h3" || cfg.NextProtos[1] != ALPNProtocolMCP {
		t.Errorf("ALPN = %q", cfg.NextProtos)
	}
	leaf := cfg.Certificates[0].Leaf
	if err := leaf.VerifyHostname("votemap.lan"); err != nil {
		t.Errorf("VerifyHostname: %v", err)
	}
	if err := leaf.VerifyHostname("192.168.1.20"); err != nil {
		t.Errorf("VerifyHostname(ip): %v", err)
	}
	if n := len(leaf.DNSNames); n != 2 {
		t.Errorf("DNS names = %q, want localhost and votemap.lan", leaf.DNSNames)
	}
	if leaf.NotAfter.Sub(leaf.NotBefore) > devCertLifetime+time.Minute {
		t.Errorf("lifetime = %v", leaf.NotAfter.Sub(leaf.NotBefore))
	}
}

func TestLoadTLSConfig_MissingFiles(t *testing.T) {
	if _, _, err := LoadTLSConfig("none.pem", "none.key"); err == nil {
		t.Error("expected error for missing cert files")
	}
}

func TestNew_Defaults(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without handler")
	}
	s, err := New(Config{Handler: http.NotFoundHandler()})
	if err != nil {
		t.Fatal(err)
	}
	if s.cfg.Addr != DefaultAddr || s.cfg.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("cfg = %+v", s.cfg)
	}
	if s.mcpHandler != nil {
		t.Error("MCP should be disabled without an MCP server")
	}
}

func TestMCPSessionWrite(t *testing.T) {
	var buf bytes.Buffer
	s := newMCPSession("quic_test", &buf)
	if s.Initialized() {
		t.Fatal("initialized before Initialize")
	}
	s.Initialize()
	if !s.Initialized() || s.SessionID() != "quic_test" {
		t.Fatal("session state")
	}
	if err := s.write([]byte("{}\n")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{}\n" {
		t.Errorf("written = %q", buf.String())
	}
}
