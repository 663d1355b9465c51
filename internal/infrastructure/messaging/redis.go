package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/config"
	"github.com/linkstack-app/payment-service/internal/domain/model"
)

const (
	TaskOrderConfirmation = "order_confirmation"
	TaskRefundNotice      = "refund_notice"

	defaultQueueKey = "payment:tasks"
)

// Task is the envelope pushed to the follow-up queue. The notification worker
// pops these and sends the buyer emails.
type Task struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	BuyerName   string    `json:"buyer_name,omitempty"`
	BuyerEmail  string    `json:"buyer_email,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// TaskQueue pushes follow-up work onto a Redis list. It implements the
// usecase Notifier interface.
type TaskQueue struct {
	client   *redis.Client
	queueKey string
	logger   *zap.Logger
}

// NewTaskQueue connects to Redis and verifies the connection.
func NewTaskQueue(cfg *config.RedisConfig, logger *zap.Logger) (*TaskQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	queueKey := cfg.TaskQueue
	if queueKey == "" {
		queueKey = defaultQueueKey
	}

	return &TaskQueue{
		client:   client,
		queueKey: queueKey,
		logger:   logger,
	}, nil
}

// EnqueueOrderConfirmation queues the buyer's purchase confirmation email.
func (q *TaskQueue) EnqueueOrderConfirmation(ctx context.Context, order *model.Order, tx *model.PaymentTransaction) error {
	return q.push(ctx, Task{
		Type:        TaskOrderConfirmation,
		OrderID:     order.OrderID,
		BuyerName:   order.BuyerName,
		BuyerEmail:  order.BuyerEmail,
		AmountCents: tx.TotalAmount,
		Currency:    tx.Currency,
		EnqueuedAt:  time.Now().UTC(),
	})
}

// EnqueueRefundNotice queues the buyer's refund notification email.
func (q *TaskQueue) EnqueueRefundNotice(ctx context.Context, order *model.Order, tx *model.PaymentTransaction, amountCents int64) error {
	return q.push(ctx, Task{
		Type:        TaskRefundNotice,
		OrderID:     order.OrderID,
		BuyerName:   order.BuyerName,
		BuyerEmail:  order.BuyerEmail,
		AmountCents: amountCents,
		Currency:    tx.Currency,
		EnqueuedAt:  time.Now().UTC(),
	})
}

func (q *TaskQueue) push(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.client.LPush(ctx, q.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	q.logger.Debug("Task enqueued",
		zap.String("type", task.Type),
		zap.String("order_id", task.OrderID))
	return nil
}

// Dequeue blocks until a task is available or the timeout elapses. Returns
// nil when the timeout passes with an empty queue. Used by the notification
// worker.
func (q *TaskQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	// BRPop returns [key, value]
	if len(result) < 2 {
		return nil, nil
	}

	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Close releases the Redis connection.
func (q *TaskQueue) Close() error {
	return q.client.Close()
}
