// Package api serves the RoadEye HTTP surface: sample submission and
// retrieval, report generation and download, and operator charts.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/config"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/db"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/fsutil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/httputil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db         *db.DB
	cfg        *config.Config
	fs         fsutil.FileSystem
	thresholds road.Thresholds
}

func NewServer(database *db.DB, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	return &Server{
		db:  database,
		cfg: cfg,
		fs:  fsutil.OSFileSystem{},
		thresholds: road.Thresholds{
			GoodMaxDefects: cfg.GetGoodMaxDefects(),
			FairMaxDefects: cfg.GetFairMaxDefects(),
		},
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/samples", s.handleSamples)
	mux.HandleFunc("/api/samples/", s.handleSampleImage)
	mux.HandleFunc("/api/reports", s.listReports)
	mux.HandleFunc("/api/reports/generate", s.generateReport)
	mux.HandleFunc("/api/reports/download", s.downloadReport)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/healthz", s.healthz)
	mux.HandleFunc("/charts/quality", s.qualityCharts)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	httputil.WriteJSONError(w, status, msg)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfgOut := map[string]interface{}{
		"units":            s.cfg.GetUnits(),
		"timezone":         s.cfg.GetTimezone(),
		"capture_interval": s.cfg.GetCaptureInterval().String(),
		"good_max_defects": s.thresholds.GoodMaxDefects,
		"fair_max_defects": s.thresholds.FairMaxDefects,
		"rows_per_page":    s.cfg.GetReportRowsPerPage(),
	}

	if err := json.NewEncoder(w).Encode(cfgOut); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := "ok"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "database unreachable"
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
