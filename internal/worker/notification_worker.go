package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/infrastructure/mail"
	"github.com/linkstack-app/payment-service/internal/infrastructure/messaging"
)

// NotificationWorker drains the follow-up task queue and sends buyer emails.
// Webhook handlers enqueue tasks after their database transaction commits, so
// a crash between commit and enqueue loses at most the email, never the
// ledger write.
type NotificationWorker struct {
	queue  *messaging.TaskQueue
	sender *mail.Sender
	logger *zap.Logger
}

func NewNotificationWorker(queue *messaging.TaskQueue, sender *mail.Sender, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{
		queue:  queue,
		sender: sender,
		logger: logger,
	}
}

// Run blocks until ctx is cancelled, processing tasks one at a time.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("Notification worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Notification worker stopped")
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Notification worker stopped")
				return
			}
			w.logger.Error("Failed to dequeue task", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.handle(ctx, task)
	}
}

func (w *NotificationWorker) handle(ctx context.Context, task *messaging.Task) {
	var err error
	switch task.Type {
	case messaging.TaskOrderConfirmation:
		err = w.sender.SendOrderConfirmation(ctx, task.BuyerEmail, task.BuyerName, task.OrderID, task.AmountCents, task.Currency)
	case messaging.TaskRefundNotice:
		err = w.sender.SendRefundNotice(ctx, task.BuyerEmail, task.BuyerName, task.OrderID, task.AmountCents, task.Currency)
	default:
		w.logger.Warn("Unknown task type", zap.String("type", task.Type))
		return
	}

	if err != nil {
		// Email delivery is best effort, do not requeue.
		w.logger.Error("Failed to process task",
			zap.String("type", task.Type),
			zap.String("order_id", task.OrderID),
			zap.Error(err))
	}
}
