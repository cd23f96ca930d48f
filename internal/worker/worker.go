package worker

import (
	"context"
	"encoding/json"
	"log"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/notifier"

	"github.com/segmentio/kafka-go"
)

// NotificationWorker drains the notification topic and hands each
// message to the mailer. Delivery is best-effort: failures are logged
// and the message is committed regardless, never retried.
type NotificationWorker struct {
	consumer *broker.Consumer
	mailer   notifier.Mailer
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, mailer notifier.Mailer) *NotificationWorker {
	return &NotificationWorker{
		consumer: consumer,
		mailer:   mailer,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")

	return w.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var event models.NotificationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal notification event: %v", err)
			return err
		}

		if event.EventType != models.EventTypeNotificationRequested {
			return nil
		}

		return w.mailer.Deliver(ctx, event.Recipient, event.Subject, event.Body)
	})
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}
