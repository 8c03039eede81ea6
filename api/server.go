// Package api serves the pricers and analyzers over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bcdannyboy/gbmc/models"
	"github.com/gorilla/mux"
	"github.com/xhhuango/json"
)

type Server struct {
	// Defaults fills every field a request leaves out.
	Defaults models.SimulationParameters
	Contract models.OptionContract
	Workers  int
	// MaxPaths caps every requested path count. A sensitivity grid may simulate at most
	// 100·MaxPaths paths in total.
	MaxPaths int
	MaxSteps int
	// MaxPoints caps paths·(steps+1), the size of one simulated matrix.
	MaxPoints       int
	MaxSeedsPerCell int
	// SnapshotPaths caps the trajectories returned by /v1/paths.
	SnapshotPaths int
	Logger        *slog.Logger
}

func NewServer(defaults models.SimulationParameters, contract models.OptionContract, workers int) *Server {
	return &Server{
		Defaults:        defaults,
		Contract:        contract,
		Workers:         workers,
		MaxPaths:        1000000,
		MaxSteps:        2520,
		MaxPoints:       50000000,
		MaxSeedsPerCell: 16,
		SnapshotPaths:   100,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/price", s.PriceHandler).Methods("POST")
	r.HandleFunc("/v1/paths", s.PathsHandler).Methods("POST")
	r.HandleFunc("/v1/convergence", s.ConvergenceHandler).Methods("POST")
	r.HandleFunc("/v1/sensitivity", s.SensitivityHandler).Methods("POST")
	r.Use(s.logRequests)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("http server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger().Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger().Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, models.ErrNumericInstability):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidParameter), errors.Is(err, models.ErrEmptyInput),
		errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func (s *Server) decode(r *http.Request, req *Request) error {
	*req = s.defaultRequest()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
