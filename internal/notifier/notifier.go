package notifier

import (
	"context"
	"time"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher is the fire-and-forget notification side channel. It is
// invoked only after an order transaction committed; a failed send must
// never be reported as an order failure.
type Dispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// KafkaDispatcher hands messages to the notification topic, where the
// delivery worker picks them up out-of-band.
type KafkaDispatcher struct {
	producer *broker.Producer
	logger   *zap.Logger
}

// NewKafkaDispatcher creates a dispatcher backed by a Kafka producer.
func NewKafkaDispatcher(producer *broker.Producer) *KafkaDispatcher {
	return &KafkaDispatcher{
		producer: producer,
		logger:   util.GetLogger(),
	}
}

// Send publishes one NotificationEvent. Cancellation of ctx propagates;
// other publish failures come back for the caller to log.
func (d *KafkaDispatcher) Send(ctx context.Context, recipient, subject, body string) error {
	event := &models.NotificationEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeNotificationRequested,
			Timestamp: time.Now(),
		},
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	}

	if err := d.producer.PublishEvent(ctx, "notify-"+recipient, event); err != nil {
		return err
	}

	util.NotificationsPublishedTotal.Inc()
	d.logger.Debug("Notification published",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return nil
}
