package orderstatus_api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/portraitlane/statusboard/internal/models"
	"github.com/portraitlane/statusboard/internal/services/orders"
	"github.com/portraitlane/statusboard/internal/storage"
)

// API exposes the order-status facade over plain JSON HTTP. The storefront
// calls it cross-origin, hence the permissive CORS on every response and
// the empty-200 preflight answer.
type API struct {
	svc *orders.Service
}

func New(svc *orders.Service) *API {
	return &API{svc: svc}
}

func (a *API) Register(r chi.Router) {
	r.Use(corsMiddleware)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/order-status", a.getOrderStatus)
	r.Post("/order-status", a.updateOrderStatus)
	r.Get("/shopify-orders", a.listShopifyOrders)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Status responses must never be cached by browsers or proxies.
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (a *API) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	// net/http has already percent-decoded the query, so "%231001" arrives
	// here as "#1001".
	order := r.URL.Query().Get("order")
	if order == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "order query parameter is required")
		return
	}

	view, err := a.svc.Get(r.Context(), order)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type updateRequest struct {
	OrderNumber    string  `json:"order_number"`
	CurrentStatus  *string `json:"current_status,omitempty"`
	ProductName    *string `json:"product_name,omitempty"`
	ProjectID      *string `json:"project_id,omitempty"`
	LinkID         *string `json:"link_id,omitempty"`
	RevisionNumber *int    `json:"revision_number,omitempty"`
}

type updateResponse struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	Order           *models.OrderView `json:"order"`
	ShopifyTagAdded bool              `json:"shopify_tag_added"`
}

func (a *API) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	patch := models.TrackingPatch{
		CurrentStatus:  req.CurrentStatus,
		ProductName:    req.ProductName,
		ProjectID:      req.ProjectID,
		LinkID:         req.LinkID,
		RevisionNumber: req.RevisionNumber,
	}
	view, tagged, err := a.svc.Update(r.Context(), req.OrderNumber, patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		Success:         true,
		Message:         "order status updated",
		Order:           view,
		ShopifyTagAdded: tagged,
	})
}

type listResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Orders  []models.OrderSummary `json:"orders"`
}

func (a *API) listShopifyOrders(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	out, err := a.svc.List(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Count: len(out), Orders: out})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no tracking record for this order")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: kind, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
