// Package httpapi serves the sentiment endpoint the dashboard consumes, backed
// by a directory of JSON fixtures. It is a development stand-in for the real
// ingestion and scoring backend.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketpulse/internal/sentiment"
	"marketpulse/pkg/marketpulse"
)

// fetchFailedDetail is the body detail of every failed snapshot request.
const fetchFailedDetail = "Failed to fetch sentiment data"

// defaultFixture is served when a symbol has no fixture of its own.
const defaultFixture = "default.json"

// maxArticles caps the articles served per snapshot.
const maxArticles = 20

// cryptoSymbols maps short crypto tickers to their exchange symbols.
var cryptoSymbols = map[string]string{
	"BTC": "BINANCE:BTCUSDT",
	"ETH": "BINANCE:ETHUSDT",
	"SOL": "BINANCE:SOLUSDT",
	"ADA": "BINANCE:ADAUSDT",
}

// NormalizeSymbol trims and uppercases a query symbol and expands crypto
// aliases. Blank input stays blank.
func NormalizeSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if mapped, ok := cryptoSymbols[symbol]; ok {
		return mapped
	}
	return symbol
}

var fixtureNameReplacer = strings.NewReplacer(":", "_", "/", "_", `\`, "_")

// fixtureName returns the file name holding symbol's fixture.
func fixtureName(symbol string) string {
	if symbol == "" {
		return defaultFixture
	}
	return fixtureNameReplacer.Replace(symbol) + ".json"
}

// SentimentServer serves snapshots from a fixtures directory.
type SentimentServer struct {
	fixturesDir string
	log         *slog.Logger
	now         func() time.Time
}

// NewSentimentServer creates a server reading fixtures from fixturesDir.
func NewSentimentServer(fixturesDir string, log *slog.Logger) *SentimentServer {
	if log == nil {
		log = slog.Default()
	}
	return &SentimentServer{
		fixturesDir: fixturesDir,
		log:         log,
		now:         time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *SentimentServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sentiment", s.handleSentiment)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns an http.Handler with CORS and request logging middleware.
func (s *SentimentServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(s.logRequests(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+marketpulse.RequestIDHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request, tagged with the caller's request ID
// or a fresh one, which is echoed back in the response headers.
func (s *SentimentServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(marketpulse.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(marketpulse.RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", rec.status,
			"request_id", id,
			"elapsed", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Detail: msg})
}

// handleSentiment serves GET /api/sentiment?symbol=.
func (s *SentimentServer) handleSentiment(w http.ResponseWriter, r *http.Request) {
	symbol := NormalizeSymbol(r.URL.Query().Get("symbol"))

	snap, err := s.Snapshot(symbol)
	if err != nil {
		s.log.Error("loading snapshot", "symbol", symbol, "error", err)
		writeError(w, http.StatusBadGateway, fetchFailedDetail)
		return
	}
	writeJSON(w, snap)
}

// handleHealth serves GET /health.
func (s *SentimentServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

// Snapshot loads the snapshot for an already normalized symbol, falling back
// to the default fixture when the symbol has none.
func (s *SentimentServer) Snapshot(symbol string) (*marketpulse.Snapshot, error) {
	name := fixtureName(symbol)
	data, err := os.ReadFile(filepath.Join(s.fixturesDir, name))
	if errors.Is(err, fs.ErrNotExist) && name != defaultFixture {
		s.log.Debug("no fixture for symbol, using default", "symbol", symbol)
		name = defaultFixture
		data, err = os.ReadFile(filepath.Join(s.fixturesDir, name))
	}
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", name, err)
	}
	if len(fx.Articles) > maxArticles {
		fx.Articles = fx.Articles[:maxArticles]
	}

	if !fx.complete() {
		snap := sentiment.Aggregate(fx.Articles, s.now().UTC())
		return &snap, nil
	}

	snap := &marketpulse.Snapshot{
		OverallLabel: string(sentiment.Neutral),
		Articles:     fx.Articles,
	}
	if snap.Articles == nil {
		snap.Articles = []marketpulse.Article{}
	}
	if fx.AsOf != nil && !fx.AsOf.IsZero() {
		snap.AsOf = *fx.AsOf
	} else {
		snap.AsOf = marketpulse.NewTimestamp(s.now().UTC())
	}
	if fx.OverallLabel != nil {
		snap.OverallLabel = *fx.OverallLabel
	}
	if fx.AverageScore != nil {
		snap.AverageScore = *fx.AverageScore
	}
	if fx.Breakdown != nil {
		snap.Breakdown = *fx.Breakdown
	}
	return snap, nil
}
