package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/inventory-service/internal/inventory"
	"github.com/shoplane/inventory-service/internal/inventory/dto"
	"github.com/shoplane/inventory-service/internal/model"
	"github.com/shoplane/inventory-service/pkg/broker"
	"github.com/shoplane/inventory-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	eventOrderCreated   = "OrderCreated"
	eventOrderCancelled = "OrderCancelled"
	eventOrderReturned  = "OrderReturned"
)

// EventPublisher is the outbound side of the listener. *broker.KafkaProducer
// satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

type InventoryListener struct {
	consumer *broker.KafkaConsumer
	producer EventPublisher
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewInventoryListener(consumer *broker.KafkaConsumer, producer EventPublisher, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		producer: producer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID     string             `json:"id"`
	UserID string             `json:"user_id"`
	Reason string             `json:"reason"` // optional restore override, e.g. DAMAGED
	Items  []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity"`
}

// InventoryProcessedEvent reports per-order stock processing back to the bus,
// correlated to the order event that triggered it.
type InventoryProcessedEvent struct {
	EventID       string            `json:"event_id"`
	CorrelationID string            `json:"correlation_id"`
	OrderID       string            `json:"order_id"`
	AllSucceeded  bool              `json:"all_succeeded"`
	Failed        []dto.ItemFailure `json:"failed,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal order event", zap.Error(err))
		return
	}

	switch event.EventType {
	case eventOrderCreated, eventOrderCancelled, eventOrderReturned:
	default:
		return
	}

	if event.Payload.ID == "" || len(event.Payload.Items) == 0 {
		l.logger.Error("Order event has no order id or items",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType))
		return
	}

	l.logger.Info("Processing order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID))

	input := &dto.OrderInventoryInput{
		OrderID: event.Payload.ID,
		UserID:  event.Payload.UserID,
		Items:   make([]dto.OrderItemInput, len(event.Payload.Items)),
	}
	for i, item := range event.Payload.Items {
		input.Items[i] = dto.OrderItemInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	var result *dto.OrderInventoryResult
	if event.EventType == eventOrderCreated {
		result = l.uc.ProcessOrderInventory(ctx, input)
	} else {
		input.Reason = model.ChangeReason(event.Payload.Reason)
		result = l.uc.RestoreOrderInventory(ctx, input)
	}

	l.publishResult(ctx, event.EventID, result)
}

func (l *InventoryListener) publishResult(ctx context.Context, correlationID string, result *dto.OrderInventoryResult) {
	out := InventoryProcessedEvent{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		OrderID:       result.OrderID,
		AllSucceeded:  result.AllSucceeded,
		Failed:        result.Failed,
		Timestamp:     time.Now(),
	}

	if err := l.producer.Publish(ctx, out.OrderID, out); err != nil {
		l.logger.Error("Failed to publish inventory processed event",
			zap.String("order_id", out.OrderID),
			zap.Error(err))
	}
}
