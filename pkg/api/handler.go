// Package api exposes a Session over HTTP and MCP. Both transports dispatch
// to the same kit.Endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/kit"
	"github.com/hazyhaar/votemap/pkg/render"
	"github.com/hazyhaar/votemap/pkg/tally"
)

// Options tunes the router. Zero values select defaults.
type Options struct {
	// RefreshEvery and RefreshBurst throttle POST /v1/results/refresh.
	RefreshEvery time.Duration
	RefreshBurst int
	Logger       *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.RefreshEvery == 0 {
		o.RefreshEvery = 10 * time.Second
	}
	if o.RefreshBurst == 0 {
		o.RefreshBurst = 3
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// NewRouter returns an http.Handler with all votemap API routes.
func NewRouter(s *atlas.Session, opts Options) http.Handler {
	opts = opts.withDefaults()
	mux := http.NewServeMux()
	h := &handler{
		titles:  kit.Logging(opts.Logger, "titles")(listTitlesEndpoint(s)),
		result:  kit.Logging(opts.Logger, "results")(resultEndpoint(s)),
		refresh: kit.Logging(opts.Logger, "refresh")(refreshEndpoint(s)),
		session: s,
		limiter: rate.NewLimiter(rate.Every(opts.RefreshEvery), opts.RefreshBurst),
	}

	mux.HandleFunc("GET /v1/titles", h.handleTitles)
	mux.HandleFunc("GET /v1/results", h.handleResult)
	mux.HandleFunc("GET /v1/results/refresh", methodNotAllowed)
	mux.HandleFunc("POST /v1/results/refresh", h.handleRefresh)
	mux.HandleFunc("GET /v1/results/geojson", h.handleGeoJSON)
	mux.HandleFunc("GET /v1/results/map.png", h.handlePNG)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return requestID(cors(mux))
}

type handler struct {
	titles  kit.Endpoint
	result  kit.Endpoint
	refresh kit.Endpoint
	session *atlas.Session
	limiter *rate.Limiter
}

// --- titles ---

func (h *handler) handleTitles(w http.ResponseWriter, r *http.Request) {
	resp, err := h.titles(r.Context(), &titlesReq{Query: r.URL.Query().Get("q")})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- results ---

func (h *handler) handleResult(w http.ResponseWriter, r *http.Request) {
	req, ok := parseResultReq(w, r)
	if !ok {
		return
	}
	resp, err := h.result(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "refresh rate exceeded")
		return
	}
	req, ok := parseResultReq(w, r)
	if !ok {
		return
	}
	resp, err := h.refresh(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- geojson / png ---

func (h *handler) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := h.session.WriteGeoJSON(w, res.Title); err != nil {
		slog.Error("write geojson", "title", res.Title, "error", err)
	}
}

func (h *handler) handlePNG(w http.ResponseWriter, r *http.Request) {
	res, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := h.session.RenderPNG(w, res.Title, render.Options{}); err != nil {
		slog.Error("render png", "title", res.Title, "error", err)
	}
}

// lookup resolves the title and builds the result before any body is written,
// so that errors still get a JSON status.
func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*atlas.Result, bool) {
	req, ok := parseResultReq(w, r)
	if !ok {
		return nil, false
	}
	resp, err := h.result(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return resp.(*atlas.Result), true
}

// --- health ---

type healthResponse struct {
	Status  string `json:"status"`
	Titles  int    `json:"titles"`
	Regions int    `json:"regions"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Titles:  len(h.session.Titles()),
		Regions: len(h.session.Data().Regions),
	})
}

// --- helpers ---

func parseResultReq(w http.ResponseWriter, r *http.Request) (*resultReq, bool) {
	q := r.URL.Query()
	req := &resultReq{Title: q.Get("title")}
	if v := q.Get("index"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "index must be an integer")
			return nil, false
		}
		req.Index = i
	}
	return req, true
}

// statusOf maps pipeline errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, tally.ErrNoTitleMatch):
		return http.StatusNotFound
	case errors.Is(err, tally.ErrTitleIndex):
		return http.StatusBadRequest
	case errors.Is(err, tally.ErrNoRegionRows):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err.Error())
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID tags each request with an X-Request-ID, reusing the client's.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
