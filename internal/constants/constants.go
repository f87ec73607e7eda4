package constants

// 上传分类常量
const (
	UploadCategoryVideos         = "videos"
	UploadCategoryImagensProduto = "imagens-produto"
	UploadCategoryImagensProva   = "imagens-prova"
	UploadCategoryDocumentos     = "documentos"
)

// 上传分类顺序（用于校验与展示）
var UploadCategories = []string{
	UploadCategoryVideos,
	UploadCategoryImagensProduto,
	UploadCategoryImagensProva,
	UploadCategoryDocumentos,
}

// 登录方式常量
const (
	LoginMethodCode          = "code"
	LoginMethodEmailPassword = "email_password"
)

// 登录日志状态常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"
)

// 登录日志失败原因常量
const (
	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonCaptchaRequired    = "captcha_required"
	LoginLogFailReasonCaptchaInvalid     = "captcha_invalid"
	LoginLogFailReasonInvalidEmail       = "invalid_email"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonCodeNotFound       = "code_not_found"
	LoginLogFailReasonInternalError      = "internal_error"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneAdminLogin = "admin_login"
)

// 通知中心事件常量
const (
	NotificationEventRegistrationReceived = "registration_received"
	NotificationEventRegistrationUpdated  = "registration_updated"
	NotificationEventAffiliateRegistered  = "affiliate_registered"
)

// 通知业务类型常量
const (
	NotificationBizTypeRegistration = "registration"
	NotificationBizTypeAffiliate    = "affiliate"
)

// 队列常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskNotificationDispatch = "notification:dispatch"
	TaskStorageCleanup       = "storage:cleanup"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "af"
)
