package api

import (
	"github.com/gorilla/mux"

	"github.com/flowtide/progress/internal/api/recovery"
	"github.com/flowtide/progress/internal/auth"
	"github.com/flowtide/progress/internal/services"
)

// NewRouter wires the HTTP routes to handlers over pre-built services, so
// callers control the store, the clock, and the identity resolver.
func NewRouter(rec *services.Reconciler, agg *services.Aggregator, resolver auth.Resolver) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	progress := NewProgressHandler(rec, agg, resolver)

	root.HandleFunc("/api/projects/{projectId}/progress/{date}", progress.Replace).Methods("PUT")
	root.HandleFunc("/api/projects/{projectId}/progress/{date}", progress.Merge).Methods("PATCH")
	root.HandleFunc("/api/projects/{projectId}/progress", progress.Delete).Methods("DELETE")
	root.HandleFunc("/api/projects/{projectId}/progress", progress.Aggregate).Methods("GET")
	root.HandleFunc("/api/projects/{projectId}/sessions", progress.AppendSessions).Methods("POST")

	healthHandler := NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}
