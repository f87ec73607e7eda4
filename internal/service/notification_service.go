package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/afiliados-next/internal/cache"
	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/queue"
)

var notificationTemplateVarPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

const notificationDedupeTTL = 5 * time.Minute

// notificationTemplate 通知文案模板
type notificationTemplate struct {
	Title string
	Body  string
}

// 各事件的运营通知模板，变量以 {{name}} 形式渲染
var notificationTemplates = map[string]notificationTemplate{
	constants.NotificationEventAffiliateRegistered: {
		Title: "Novo afiliado cadastrado: {{nome_completo}}",
		Body:  "O afiliado {{nome_completo}} ({{email}}) acabou de se cadastrar.\nCódigo de afiliado: {{codigo_afiliado}}\nOcorrido em: {{occurred_at}}",
	},
	constants.NotificationEventRegistrationReceived: {
		Title: "Novo cadastro de produto: {{nome_produto}}",
		Body:  "O agente {{nome_agente}} (código {{codigo_afiliado}}) enviou um novo cadastro de produto.\nProduto: {{nome_produto}}\nOcorrido em: {{occurred_at}}",
	},
	constants.NotificationEventRegistrationUpdated: {
		Title: "Cadastro de produto atualizado: {{nome_produto}}",
		Body:  "O agente {{nome_agente}} (código {{codigo_afiliado}}) atualizou o cadastro do produto {{nome_produto}}.\nOcorrido em: {{occurred_at}}",
	},
}

// NotificationService 通知分发服务
// 作为队列消费侧，将业务事件渲染为邮件发往运营收件人
type NotificationService struct {
	cfg          *config.EmailConfig
	emailService *EmailService
}

// NewNotificationService 创建通知分发服务
func NewNotificationService(cfg *config.EmailConfig, emailService *EmailService) *NotificationService {
	return &NotificationService{
		cfg:          cfg,
		emailService: emailService,
	}
}

// Dispatch 处理通知分发任务
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.NotificationDispatchPayload) error {
	if s == nil {
		return nil
	}
	eventType := strings.ToLower(strings.TrimSpace(payload.EventType))
	template, ok := notificationTemplates[eventType]
	if !ok {
		return ErrNotificationEventInvalid
	}
	if s.cfg == nil || !s.cfg.Enabled || len(s.cfg.Recipients) == 0 || s.emailService == nil {
		return nil
	}

	acquired, err := acquireNotificationDedupe(ctx, payload)
	if err != nil {
		logger.Warnw("notification_dedupe_failed", "event_type", eventType, "error", err)
	}
	if err == nil && !acquired {
		return nil
	}

	variables := buildNotificationTemplateVariables(payload)
	title := renderNotificationTemplate(template.Title, variables)
	body := renderNotificationTemplate(template.Body, variables)
	if strings.TrimSpace(body) == "" {
		body = title
	}

	var firstErr error
	for _, recipient := range s.cfg.Recipients {
		if err := s.emailService.SendCustomEmail(recipient, title, body); err != nil {
			logger.Warnw("notification_email_send_failed",
				"event_type", eventType,
				"biz_type", payload.BizType,
				"biz_id", payload.BizID,
				"recipient", recipient,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func acquireNotificationDedupe(ctx context.Context, payload queue.NotificationDispatchPayload) (bool, error) {
	key := buildNotificationDedupeKey(payload)
	return cache.SetNX(ctx, key, "1", notificationDedupeTTL)
}

func buildNotificationDedupeKey(payload queue.NotificationDispatchPayload) string {
	signature := strings.Builder{}
	signature.WriteString(strings.ToLower(strings.TrimSpace(payload.EventType)))
	signature.WriteString("|")
	signature.WriteString(strings.ToLower(strings.TrimSpace(payload.BizType)))
	signature.WriteString("|")
	signature.WriteString(fmt.Sprintf("%d", payload.BizID))
	signature.WriteString("|")

	keys := make([]string, 0, len(payload.Data))
	for key := range payload.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "occurred_at" {
			continue
		}
		signature.WriteString(key)
		signature.WriteString("=")
		signature.WriteString(strings.TrimSpace(fmt.Sprintf("%v", payload.Data[key])))
		signature.WriteString(";")
	}
	hash := sha1.Sum([]byte(signature.String()))
	return "notification:dedupe:" + hex.EncodeToString(hash[:])
}

func buildNotificationTemplateVariables(payload queue.NotificationDispatchPayload) map[string]interface{} {
	variables := make(map[string]interface{}, len(payload.Data)+4)
	for key, value := range payload.Data {
		variables[key] = value
	}
	variables["event_type"] = strings.ToLower(strings.TrimSpace(payload.EventType))
	variables["biz_type"] = strings.TrimSpace(payload.BizType)
	variables["biz_id"] = fmt.Sprintf("%d", payload.BizID)
	variables["occurred_at"] = time.Now().Format("2006-01-02 15:04:05")
	return variables
}

func renderNotificationTemplate(template string, variables map[string]interface{}) string {
	template = strings.TrimSpace(template)
	if template == "" {
		return ""
	}
	return notificationTemplateVarPattern.ReplaceAllStringFunc(template, func(matched string) string {
		submatch := notificationTemplateVarPattern.FindStringSubmatch(matched)
		if len(submatch) != 2 {
			return matched
		}
		key := strings.TrimSpace(submatch[1])
		value, ok := variables[key]
		if !ok {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	})
}
