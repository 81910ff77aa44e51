// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	producterrors "github.com/abgdnv/catalog/internal/product/errors"
	"github.com/abgdnv/catalog/internal/product/service"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
)

const (
	welcomeMessage  = "Hello WELCOME!"
	notFoundMessage = "Product not found"
	badBodyMessage  = "Invalid request body"

	maxBodyBytes = 1 << 20
)

type Handler struct {
	service           service.ProductService
	logger            *slog.Logger
	exposeErrorDetail bool
}

// NewHandler creates a new instance of the product REST handler.
// exposeErrorDetail adds the failure cause to 500 responses.
func NewHandler(service service.ProductService, logger *slog.Logger, exposeErrorDetail bool) *Handler {
	return &Handler{
		service:           service,
		logger:            logger.With("component", "rest"),
		exposeErrorDetail: exposeErrorDetail,
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Welcome)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// Welcome answers the root path with a plain greeting.
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	web.RespondText(w, http.StatusOK, welcomeMessage)
}

// FindAll lists products with optional category, page and limit query parameters.
// Invalid page or limit values fall back to their defaults.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	query := service.ListQuery{
		Category: r.URL.Query().Get("category"),
		Page:     web.QueryIntOr(r, "page", 1, web.Gte(1)),
		Limit:    web.QueryIntOr(r, "limit", 0, web.Gte(1)),
	}
	h.logger.DebugContext(r.Context(), "Received request to list products",
		"category", query.Category, "page", query.Page, "limit", query.Limit)

	list, err := h.service.FindAll(r.Context(), query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondInternalError(w, h.logger, err, nil, h.exposeErrorDetail)
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "total", list.Total, "count", len(list.Data))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, "Error retrieving product", id, err)
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "product", payload)

	created, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.respondServiceError(w, r, "Error creating product", "", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Update replaces the fields of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id)

	updated, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		h.respondServiceError(w, r, "Error updating product", id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.logger.DebugContext(r.Context(), "Received request to delete product", "ID", id)

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, "Error deleting product", id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodePayload reads a single JSON object body. An empty body is an empty payload;
// anything after the object other than whitespace is rejected.
func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	payload := make(map[string]any)
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(&payload)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("unexpected data after JSON body")
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, badBodyMessage)
		return nil, false
	}
	if payload == nil {
		// a literal null body
		payload = make(map[string]any)
	}
	return payload, true
}

// respondServiceError maps service failures to 400, 404 or 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, msg, id string, err error) {
	var validationErr *producterrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.WarnContext(r.Context(), "Validation failed", "ID", id, "error", validationErr.Error())
		web.RespondError(w, h.logger, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, producterrors.ErrProductNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, notFoundMessage)
	default:
		h.logger.ErrorContext(r.Context(), msg, "ID", id, "error", err)
		web.RespondInternalError(w, h.logger, err, nil, h.exposeErrorDetail)
	}
}
