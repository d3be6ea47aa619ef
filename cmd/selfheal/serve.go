package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the healing HTTP API",
	Long: `Exposes the engine over HTTP:

  POST /api/v1/heal             heal one request
  GET  /api/v1/history          full attempt history
  GET  /api/v1/history/summary  aggregate statistics
  GET  /api/v1/patterns         failure recurrence aggregates
  GET  /healthz                 liveness probe`,
	RunE: runServe,
}

const readHeaderTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srvLogger := logger.Named("server")
	h := &apiHandler{app: a, logger: srvLogger, maxBody: cfg.Server.MaxBodyBytes}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/heal", h.handleHeal)
	mux.HandleFunc("/api/v1/history", h.handleHistory)
	mux.HandleFunc("/api/v1/history/summary", h.handleSummary)
	mux.HandleFunc("/api/v1/patterns", h.handlePatterns)
	mux.HandleFunc("/healthz", h.handleHealthz)

	read, write, idle := cfg.Server.Durations()
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           securityHeaders(h.logRequests(mux)),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       idle,
		MaxHeaderBytes:    1 << 20,
	}

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		srvLogger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			srvLogger.Error("shutdown failed", zap.Error(err))
		}
		close(done)
	}()

	srvLogger.Info("healing API listening", zap.String("addr", cfg.Server.Addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

type apiHandler struct {
	app     *app
	logger  *zap.Logger
	maxBody int64
}

func (h *apiHandler) handleHeal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && ct != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "application/json required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var req healer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}
	if req.TestName == "" {
		writeError(w, http.StatusBadRequest, "test_name is required")
		return
	}

	result := h.app.engine.Heal(r.Context(), req)
	writeJSON(w, http.StatusOK, result.Wire())
}

func (h *apiHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, h.app.history.Summary().Attempts)
}

func (h *apiHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	s := h.app.history.Summary()
	// The full attempt list has its own endpoint.
	s.Attempts = nil
	writeJSON(w, http.StatusOK, s)
}

func (h *apiHandler) handlePatterns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, h.app.history.Patterns())
}

func (h *apiHandler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
