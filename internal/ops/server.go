package ops

import (
	"context"
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports backing-store health. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the operational sidecar listener: liveness, readiness, and
// pprof. It binds separately from the public API so profiling endpoints
// never face the internet.
type Server struct {
	router chi.Router
	db     Pinger
}

// NewServer creates the ops server. db may be nil, in which case
// readiness only reports process liveness.
func NewServer(db Pinger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		db:     db,
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.HandleFunc("/debug/pprof/", pprof.Index)
	s.router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.router.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return s
}

// Router exposes the mux for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving the ops listener
func (s *Server) Start(port string) error {
	addr := ":" + port
	log.Printf("[Ops] Starting ops listener on %s (healthz, readyz, pprof)", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz checks the database within a short deadline so a wedged
// pool turns the pod unready instead of hanging probes.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			log.Printf("[Ops] ❌ Readiness check failed: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable","reason":"database unreachable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
