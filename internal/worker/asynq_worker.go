package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/provider"
	"github.com/afiliados-next/internal/queue"
	"github.com/afiliados-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskStorageCleanup, c.handleStorageCleanup)
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.EventType == "" {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "biz_type", payload.BizType, "biz_id", payload.BizID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "event_type", payload.EventType)
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		if errors.Is(err, service.ErrNotificationEventInvalid) {
			logger.Debugw("worker_notification_dispatch_skip_unknown_event", "event_type", payload.EventType)
			return nil
		}
		logger.Warnw("worker_notification_dispatch_failed",
			"event_type", payload.EventType,
			"biz_type", payload.BizType,
			"biz_id", payload.BizID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleStorageCleanup(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_storage_cleanup_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StorageCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_storage_cleanup_unmarshal_failed", "error", err)
		return err
	}
	if len(payload.URLs) == 0 {
		logger.Debugw("worker_storage_cleanup_skip_empty_payload")
		return nil
	}
	if c.Store == nil {
		logger.Warnw("worker_storage_cleanup_skip_store_nil", "url_count", len(payload.URLs))
		return nil
	}
	var firstErr error
	for _, rawURL := range payload.URLs {
		key, ok := c.Store.KeyFromPublicURL(rawURL)
		if !ok {
			logger.Debugw("worker_storage_cleanup_skip_foreign_url", "url", rawURL)
			continue
		}
		if err := c.Store.Delete(ctx, key); err != nil {
			logger.Warnw("worker_storage_cleanup_delete_failed", "key", key, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
