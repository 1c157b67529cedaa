package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/opshub/inventory-count-service/internal/auth"
	"github.com/opshub/inventory-count-service/internal/count"
	"github.com/opshub/inventory-count-service/internal/count/dto"
	"github.com/opshub/inventory-count-service/internal/item"
	"github.com/opshub/inventory-count-service/pkg/broker"
	"go.uber.org/zap"
)

type CountListener struct {
	consumer *broker.KafkaConsumer
	uc       count.UseCase
	itemUC   item.UseCase
	logger   *zap.Logger
}

func NewCountListener(consumer *broker.KafkaConsumer, uc count.UseCase, itemUC item.UseCase, logger *zap.Logger) *CountListener {
	return &CountListener{
		consumer: consumer,
		uc:       uc,
		itemUC:   itemUC,
		logger:   logger,
	}
}

func (l *CountListener) Start(ctx context.Context) {
	l.logger.Info("Starting count submission Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping count submission Kafka listener")
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

type CountSubmissionEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   CountSubmissionPayload `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

type CountSubmissionPayload struct {
	CountID        string          `json:"count_id"`
	OrganizationID string          `json:"organization_id"`
	CountedBy      string          `json:"counted_by"`
	Items          []SubmittedItem `json:"items"`
}

// SubmittedItem addresses a count line either by catalog item id or, for
// scanner clients, by barcode.
type SubmittedItem struct {
	ItemID         string  `json:"item_id"`
	Barcode        string  `json:"barcode"`
	ActualQuantity float64 `json:"actual_quantity"`
	Notes          *string `json:"notes"`
}

func (l *CountListener) processMessage(ctx context.Context, value []byte) {
	var event CountSubmissionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "inventory.count.submitted" {
		return
	}

	l.logger.Info("Processing count submission event",
		zap.String("event_id", event.EventID),
		zap.String("count_id", event.Payload.CountID),
		zap.Int("items", len(event.Payload.Items)),
	)

	ctx = auth.WithOrganization(ctx, event.Payload.OrganizationID)
	ctx = auth.WithUser(ctx, event.Payload.CountedBy)

	updates := make([]dto.ItemUpdate, 0, len(event.Payload.Items))
	for _, si := range event.Payload.Items {
		itemID := si.ItemID
		if itemID == "" && si.Barcode != "" {
			found, err := l.itemUC.GetByBarcode(ctx, event.Payload.OrganizationID, si.Barcode)
			if err != nil {
				l.logger.Warn("Dropping submission line with unresolvable barcode",
					zap.String("count_id", event.Payload.CountID),
					zap.String("barcode", si.Barcode),
					zap.Error(err),
				)
				continue
			}
			itemID = found.ID
		}

		upd := dto.ItemUpdate{
			ItemID:         itemID,
			ActualQuantity: si.ActualQuantity,
			Notes:          si.Notes,
		}
		if event.Payload.CountedBy != "" {
			countedBy := event.Payload.CountedBy
			upd.CountedBy = &countedBy
		}
		updates = append(updates, upd)
	}

	result, err := l.uc.SubmitBatch(ctx, event.Payload.CountID, updates)
	if err != nil {
		// Submissions against finished sessions arrive late all the time;
		// those are expected, everything else is not.
		if errors.Is(err, count.ErrCountNotActive) || errors.Is(err, count.ErrCountVoided) {
			l.logger.Warn("Dropping submission for inactive count",
				zap.String("count_id", event.Payload.CountID), zap.Error(err))
			return
		}
		l.logger.Error("Failed to apply count submission",
			zap.String("count_id", event.Payload.CountID), zap.Error(err))
		return
	}

	l.logger.Info("Count submission applied",
		zap.String("count_id", event.Payload.CountID),
		zap.Int("saved", result.Saved),
		zap.Int("failed", len(result.Failed)),
	)
}
