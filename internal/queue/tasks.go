package queue

import (
	"encoding/json"

	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 通知分发任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskStorageCleanup 对象存储清理任务
	TaskStorageCleanup = constants.TaskStorageCleanup
)

// NotificationDispatchPayload 通知分发任务载荷
type NotificationDispatchPayload struct {
	EventType string      `json:"event_type"`
	BizType   string      `json:"biz_type"`
	BizID     uint        `json:"biz_id"`
	Data      models.JSON `json:"data,omitempty"`
}

// StorageCleanupPayload 对象存储清理任务载荷
// URLs 为待删除文件的公开访问链接
type StorageCleanupPayload struct {
	URLs []string `json:"urls"`
}

// NewNotificationDispatchTask 创建通知分发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewStorageCleanupTask 创建对象存储清理任务
func NewStorageCleanupTask(payload StorageCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStorageCleanup, body), nil
}
