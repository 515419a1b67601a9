package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced = "OrderPlaced"
	EventStockLow    = "StockLow"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "grocery-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type PlacedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"` // decimal string, 2 digit
}

type OrderPlacedPayload struct {
	OrderID string       `json:"order_id"`
	Items   []PlacedItem `json:"items"`
	Total   string       `json:"total"`
}

type StockLowPayload struct {
	ProductID string `json:"product_id"`
	Remaining int    `json:"remaining"`
	Threshold int    `json:"threshold"`
}
