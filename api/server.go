package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"myfinance/handlers"
	"myfinance/middleware"
)

// Server represents the API server
type Server struct {
	router  *mux.Router
	handler *handlers.Handler
}

// Options configures cross-cutting middleware.
type Options struct {
	AllowedOrigins []string
	Permissive     bool
	Logger         *slog.Logger
}

// NewServer creates a new API server
func NewServer(h *handlers.Handler, opts Options) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		handler: h,
	}

	s.router.Use(middleware.RequestLogger(opts.Logger))
	s.router.Use(middleware.CORS(opts.AllowedOrigins, opts.Permissive, opts.Logger))

	// Register routes with both direct paths and /api prefix to maintain compatibility
	s.RegisterRoutes(s.router)
	s.RegisterRoutes(s.router.PathPrefix("/api").Subrouter())
	return s
}

// RegisterRoutes registers all API routes on r
func (s *Server) RegisterRoutes(r *mux.Router) {
	h := s.handler

	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "OPTIONS")

	// Transactions; the filtered view must precede /transactions/{id}
	r.HandleFunc("/transactions/filtered", h.GetFilteredTransactions).Methods("GET", "OPTIONS")
	r.HandleFunc("/transactions", h.GetTransactions).Methods("GET", "OPTIONS")
	r.HandleFunc("/transactions", h.AddTransaction).Methods("POST")
	r.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET", "OPTIONS")
	r.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PUT")
	r.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")

	// Categories
	r.HandleFunc("/categories", h.GetCategories).Methods("GET", "OPTIONS")
	r.HandleFunc("/categories", h.AddCategory).Methods("POST")
	r.HandleFunc("/categories/{id}", h.GetCategory).Methods("GET", "OPTIONS")
	r.HandleFunc("/categories/{id}", h.UpdateCategory).Methods("PUT")
	r.HandleFunc("/categories/{id}", h.DeleteCategory).Methods("DELETE")
	r.HandleFunc("/categories/{id}/restore", h.RestoreCategory).Methods("POST", "OPTIONS")

	// Active filters
	r.HandleFunc("/filters/active", h.GetActiveFilters).Methods("GET", "OPTIONS")
	r.HandleFunc("/filters/active", h.ClearFilters).Methods("DELETE")
	r.HandleFunc("/filters/active/{kind}", h.UpdateActiveFilter).Methods("PUT", "OPTIONS")

	// Saved presets
	r.HandleFunc("/filters/presets", h.GetPresets).Methods("GET", "OPTIONS")
	r.HandleFunc("/filters/presets", h.SavePreset).Methods("POST")
	r.HandleFunc("/filters/presets/{id}", h.DeletePreset).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/filters/presets/{id}/load", h.LoadPreset).Methods("POST", "OPTIONS")

	// Change stream
	r.HandleFunc("/filters/stream", h.StreamFilters).Methods("GET")
}

// Handler returns the HTTP handler for the API server
func (s *Server) Handler() http.Handler {
	return s.router
}
