package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/arpitjain111/grocery-orders/internal/kafka"
	"github.com/arpitjain111/grocery-orders/internal/orders"
	"github.com/arpitjain111/grocery-orders/internal/redisx"
)

type OrdersHandler struct {
	Service  *orders.Service
	Catalog  orders.CatalogStore
	Producer *kafkax.Producer
	Redis    *redis.Client
	Name     string // producer name di event envelope
	Log      zerolog.Logger
}

type PlaceOrderReq struct {
	Items []orders.LineRequest `json:"items"`
}

type PlaceOrderResp struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
}

type failureResp struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/api/orders", h.placeOrder)
	r.Get("/api/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	if !Allow(r.Header.Get("role"), ActionPlaceOrder) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied. Users only."})
		return
	}

	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failureResp{Kind: "invalid-input"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID, total, err := h.Service.PlaceOrder(ctx, req.Items)
	if err != nil {
		var stockErr *orders.InsufficientStockError
		switch {
		case errors.Is(err, orders.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, failureResp{Kind: "invalid-input"})
		case errors.As(err, &stockErr):
			writeJSON(w, http.StatusBadRequest, failureResp{Kind: "insufficient-stock", Detail: stockErr.ProductID})
		default:
			h.Log.Error().Err(err).Msg("place order failed")
			writeJSON(w, http.StatusInternalServerError, failureResp{Kind: "internal-failure"})
		}
		return
	}

	// Cache status supaya GET cepat
	if h.Redis != nil {
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		body := fmt.Sprintf(`{"status":%q,"total":%q}`, orders.StatusCompleted, total.StringFixed(2))
		_ = h.Redis.Set(ctx, statusKey, body, redisx.TTLStatusCache).Err()
	}

	// Publish event sesudah commit; gagal publish tidak mengubah hasil order.
	if h.Producer != nil {
		h.publishPlaced(orderID, total.StringFixed(2), req.Items, r.Header.Get("X-Request-Id"))
	}

	writeJSON(w, http.StatusCreated, PlaceOrderResp{OrderID: orderID, Total: total.StringFixed(2)})
}

func (h *OrdersHandler) publishPlaced(orderID, total string, lines []orders.LineRequest, trace string) {
	items := make([]orders.PlacedItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, orders.PlacedItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Name,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID: orderID,
			Items:   items,
			Total:   total,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback DB
	o, _, err := h.Catalog.GetOrder(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	body := map[string]any{"status": o.Status, "total": o.Total.StringFixed(2)}
	b, _ := json.Marshal(body)
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
