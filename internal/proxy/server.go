// Package proxy runs the single-route scrape proxy that forwards a URL to the
// upstream scraping service and relays its JSON response.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adda-Baaj/khobor-dash/internal/logger"
	"github.com/Adda-Baaj/khobor-dash/internal/metrics"
	"github.com/Adda-Baaj/khobor-dash/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-dash/pkg/scrapeapi"
)

// DefaultUpstreamURL is the scraping service the proxy forwards to.
const DefaultUpstreamURL = "https://api.firecrawl.dev/v1/scrape"

const maxRequestBody = 64 << 10

// Config controls the proxy server.
type Config struct {
	Addr        string
	UpstreamURL string
	// APIKey is sent upstream as a bearer token. When empty, the caller's
	// Authorization header is forwarded unchanged.
	APIKey string
}

// Server is the scrape proxy HTTP server.
type Server struct {
	cfg    Config
	client httpclient.Client
	log    logger.Logger
	server *http.Server
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// New builds a Server. client is used for upstream calls.
func New(cfg Config, client httpclient.Client, log logger.Logger) *Server {
	if strings.TrimSpace(cfg.UpstreamURL) == "" {
		cfg.UpstreamURL = DefaultUpstreamURL
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = ":5000"
	}

	s := &Server{
		cfg:    cfg,
		client: client,
		log:    logger.Ensure(log),
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.logging(cors(mux))
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.InfoObj("starting scrape proxy", "proxy_start", map[string]any{
		"addr":     s.cfg.Addr,
		"upstream": s.cfg.UpstreamURL,
	})
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.InfoObj("shutting down scrape proxy", "proxy_stop", nil)
	return s.server.Shutdown(ctx)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		metrics.RecordProxyRequest("bad_request")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		metrics.RecordProxyRequest("bad_request")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	headers := map[string]string{"Accept": "application/json"}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	} else if auth := r.Header.Get("Authorization"); auth != "" {
		headers["Authorization"] = auth
	}

	resp, err := s.client.PostJSON(r.Context(), s.cfg.UpstreamURL, req, headers)
	if err != nil {
		s.fail(w, req.URL, map[string]any{"error": err.Error()})
		return
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		s.fail(w, req.URL, map[string]any{
			"status": resp.StatusCode(),
			"body":   scrapeapi.Snippet(resp.Body()),
		})
		return
	}

	metrics.RecordProxyRequest("ok")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body())
}

func (s *Server) fail(w http.ResponseWriter, target string, fields map[string]any) {
	fields["url"] = target
	s.log.ErrorObj("upstream scrape failed", "proxy_upstream_error", fields)
	metrics.RecordProxyRequest("error")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Scraping failed"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cors allows any origin, which is what a local browser front end needs.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
			h.Add("Vary", "Access-Control-Request-Headers")
		}
		if r.Method == http.MethodOptions {
			h.Set("Content-Length", "0")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.log.DebugObj("request handled", "proxy_request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      strconv.Itoa(rw.status),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   r.RemoteAddr,
		})
	})
}
