// Package httpapi exposes the HTTP surface: upload, database state,
// visualization, search, and download. Grounded on qzbxw-EGO's chi
// router/middleware wiring (chi.NewRouter, the
// chimiddleware.Logger/Recoverer stack, go-chi/cors setup) and this
// project's own app.New()/Start()/Run() boot sequence shape.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/brinkfield/multicore/internal/config"
	"github.com/brinkfield/multicore/internal/docstore"
	"github.com/brinkfield/multicore/internal/ingest"
	"github.com/brinkfield/multicore/internal/platform/ctxutil"
	"github.com/brinkfield/multicore/internal/platform/logger"
	"github.com/brinkfield/multicore/internal/search"
	"github.com/brinkfield/multicore/internal/storage"
)

// Server wires every handler dependency.
type Server struct {
	Config      *config.Config
	Coordinator *ingest.Coordinator
	DocStore    docstore.Store
	Storage     *storage.Store
	Searcher    *search.Searcher
	Log         *logger.Logger
	validate    *validator.Validate
}

// NewServer constructs a Server.
func NewServer(cfg *config.Config, coord *ingest.Coordinator, ds docstore.Store, st *storage.Store, sr *search.Searcher, log *logger.Logger) *Server {
	return &Server{
		Config:      cfg,
		Coordinator: coord,
		DocStore:    ds,
		Storage:     st,
		Searcher:    sr,
		Log:         log.With("component", "HTTPServer"),
		validate:    validator.New(),
	}
}

// Router builds the chi.Mux and registers every HTTP route this server
// exposes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(chimiddleware.Logger, chimiddleware.Recoverer, requestTrace)

	r.Post("/api/upload", s.handleUpload)
	r.Get("/api/database/state", s.handleDatabaseState)
	r.Get("/api/visualization", s.handleVisualization)
	r.Get("/api/search", s.handleSearchGet)
	r.Post("/api/search/semantic", s.handleSearchSemantic)
	r.Get("/api/download", s.handleDownload)

	return r
}

// requestTrace stamps every request with a fresh request ID, surfaced
// to the caller as X-Request-Id and read back out of context by
// Server.scopedLog so every log line a handler emits during this
// request carries the same ID.
func requestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		td := &ctxutil.TraceData{RequestID: uuid.NewString()}
		w.Header().Set("X-Request-Id", td.RequestID)
		next.ServeHTTP(w, r.WithContext(ctxutil.WithTraceData(r.Context(), td)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = encodeJSON(w, v)
}
