package lowstock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/arpitjain111/grocery-orders/internal/kafka"
	"github.com/arpitjain111/grocery-orders/internal/orders"
	"github.com/arpitjain111/grocery-orders/internal/redisx"
)

// Service mengawasi event order.placed dan publish alert stock.low kalau
// sisa stok product turun di bawah threshold. Murni observasi: tidak
// pernah menulis balik ke stok dan tidak mempengaruhi hasil order.
type Service struct {
	Catalog     orders.CatalogStore
	Redis       *redis.Client
	Producer    *kafkax.Producer // publish stock.low
	ServiceName string
	Threshold   int
	Log         zerolog.Logger
}

// HandleOrderPlaced: dipasang sebagai handler consumer.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil // ignore
	}

	// dedup via Redis (pakai event_id)
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "lowstock", env.EventID)
		exists, _ := redisx.Exists(ctx, s.Redis, dkey)
		if exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, it := range p.Items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true

		prod, err := s.Catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			// product bisa saja sudah dihapus setelah order; bukan error pipeline
			s.Log.Debug().Str("product_id", it.ProductID).Err(err).Msg("skip stock check")
			continue
		}
		if prod.Quantity >= s.Threshold {
			continue
		}

		s.Log.Warn().
			Str("product_id", prod.ID).
			Int("remaining", prod.Quantity).
			Int("threshold", s.Threshold).
			Msg("stock low")
		if s.Producer != nil {
			s.publishAlert(prod.ID, prod.Quantity, env.CorrelationID, env.TraceID)
		}
	}
	return nil
}

func (s *Service) publishAlert(productID string, remaining int, orderID, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockLow,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.StockLowPayload{
			ProductID: productID,
			Remaining: remaining,
			Threshold: s.Threshold,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockLow)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
