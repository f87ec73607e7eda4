package service

import (
	"context"

	"github.com/afiliados-next/internal/models"
	"github.com/afiliados-next/internal/queue"
)

// NotificationEvent 业务通知事件
type NotificationEvent struct {
	EventType string
	BizType   string
	BizID     uint
	Data      models.JSON
}

// Notifier 通知下发接口
// 业务服务只负责发出事件，投递方式由实现决定
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent) error
}

// QueueNotifier 基于任务队列的通知实现
type QueueNotifier struct {
	queueClient *queue.Client
}

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(queueClient *queue.Client) *QueueNotifier {
	return &QueueNotifier{queueClient: queueClient}
}

// Notify 将事件入队异步分发
func (n *QueueNotifier) Notify(_ context.Context, event NotificationEvent) error {
	if n == nil || n.queueClient == nil {
		return nil
	}
	return n.queueClient.EnqueueNotificationDispatch(queue.NotificationDispatchPayload{
		EventType: event.EventType,
		BizType:   event.BizType,
		BizID:     event.BizID,
		Data:      event.Data,
	})
}
