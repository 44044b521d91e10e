package api

import (
	"net/http"

	"petalboard/internal/middleware"
	"petalboard/internal/services/realtime"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler, ws *realtime.WebSocketHandler) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	// Learning: Middleware runs in order - tracing first, then recovery, then CORS
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	// API routes
	api := r.PathPrefix("/api").Subrouter()

	// Collection endpoints
	api.HandleFunc("/collections/{collection}/documents", h.CreateDocument).Methods("POST")
	api.HandleFunc("/collections/{collection}/documents", h.ListDocuments).Methods("GET")
	api.HandleFunc("/collections/{collection}/documents/{id}", h.GetDocument).Methods("GET")
	api.HandleFunc("/collections/{collection}/documents/{id}", h.UpdateDocument).Methods("PATCH")
	api.HandleFunc("/collections/{collection}/documents/{id}", h.DeleteDocument).Methods("DELETE")

	// Auth endpoints
	api.HandleFunc("/auth/register", h.Register).Methods("POST")
	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	api.HandleFunc("/auth/google", h.LoginWithGoogle).Methods("POST")
	api.HandleFunc("/auth/reset/request", h.RequestPasswordReset).Methods("POST")
	api.HandleFunc("/auth/reset", h.ResetPassword).Methods("POST")
	api.HandleFunc("/auth/me", h.Me).Methods("GET")
	api.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	// Catalog endpoint
	api.HandleFunc("/products", h.ListProducts).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// WebSocket subscription route
	r.HandleFunc("/ws/collections/{collection}", ws.HandleCollectionSubscription)

	return r
}
