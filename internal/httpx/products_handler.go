package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arpitjain111/grocery-orders/internal/orders"
)

type ProductsHandler struct {
	Catalog orders.CatalogStore
	Log     zerolog.Logger
}

type ProductReq struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantityAvailable"`
}

type ProductResp struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantityAvailable"`
}

type InventoryReq struct {
	Quantity *int `json:"quantityAvailable"`
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Post("/api/products", h.createProduct)
	r.Get("/api/products", h.listProducts)
	r.Put("/api/products/{id}", h.updateProduct)
	r.Delete("/api/products/{id}", h.deleteProduct)
	r.Put("/api/products/{id}/inventory", h.updateInventory)
}

func toResp(p orders.Product) ProductResp {
	return ProductResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
	}
}

// harga valid: non-negatif, maksimal 2 digit di belakang koma
func validPrice(d *decimal.Decimal) bool {
	return d != nil && !d.IsNegative() && d.Exponent() >= -2
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !Allow(r.Header.Get("role"), ActionManageCatalog) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied. Admins only."})
		return
	}

	var req ProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	if req.Name == "" || !validPrice(req.Price) || req.Quantity == nil || *req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p := orders.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Quantity:    *req.Quantity,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Catalog.CreateProduct(ctx, p); err != nil {
		h.Log.Error().Err(err).Msg("create product failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toResp(p))
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	out := make([]ProductResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !Allow(r.Header.Get("role"), ActionManageCatalog) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied. Admins only."})
		return
	}

	var req ProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}
	if req.Name == "" || !validPrice(req.Price) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), req.Name, req.Description, *req.Price)
	if errors.Is(err, orders.ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("update product failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toResp(p))
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !Allow(r.Header.Get("role"), ActionManageCatalog) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied. Admins only."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Catalog.DeleteProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *ProductsHandler) updateInventory(w http.ResponseWriter, r *http.Request) {
	if !Allow(r.Header.Get("role"), ActionManageCatalog) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied. Admins only."})
		return
	}

	var req InventoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil || *req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid inventory quantity"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.SetQuantity(ctx, chi.URLParam(r, "id"), *req.Quantity)
	if errors.Is(err, orders.ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toResp(p))
}
