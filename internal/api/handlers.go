package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"petalboard/internal/catalog"
	"petalboard/internal/models"
	"petalboard/internal/repository"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests for collections, auth and the catalog.
type Handler struct {
	docs DocumentStore
	auth Authenticator
	hub  SnapshotPublisher
}

func NewHandler(docs DocumentStore, auth Authenticator, hub SnapshotPublisher) *Handler {
	return &Handler{
		docs: docs,
		auth: auth,
		hub:  hub,
	}
}

// Collection handlers

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	var create models.DocumentCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.docs.Create(r.Context(), collection, &create)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Every committed write re-pushes the collection snapshot, so the
	// writer sees its own write through the same channel as everyone else.
	h.hub.Publish(collection)

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]

	documents, err := h.docs.List(r.Context(), collection)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}

	writeJSON(w, http.StatusOK, models.Snapshot{
		Collection: collection,
		Documents:  documents,
	})
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doc, err := h.docs.GetByID(r.Context(), vars["collection"], vars["id"])
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var update models.DocumentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.docs.Update(r.Context(), vars["collection"], vars["id"], &update)
	if errors.Is(err, repository.ErrNotFound) {
		// Updating a vanished document is a client-visible race (edit while
		// someone else deletes); 404 lets the client surface it as a no-op.
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.Publish(vars["collection"])

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := h.docs.Delete(r.Context(), vars["collection"], vars["id"])
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.Publish(vars["collection"])

	w.WriteHeader(http.StatusNoContent)
}

// Catalog handler

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"products": catalog.Products(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
