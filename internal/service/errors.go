package service

import "errors"

// 服务层通用错误定义
var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("record not found")
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPassword 密码错误
	ErrInvalidPassword = errors.New("invalid password")
	// ErrWeakPassword 密码强度不足
	ErrWeakPassword = errors.New("password too weak")
	// ErrEmailExists 邮箱已注册
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidEmail 邮箱格式非法
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrNoChanges 本次提交与现有档案完全一致
	ErrNoChanges = errors.New("no changes detected")
	// ErrOwnerNameMissing 上传归属人名称为空
	ErrOwnerNameMissing = errors.New("owner name required")
	// ErrUploadCategoryInvalid 上传分类非法
	ErrUploadCategoryInvalid = errors.New("invalid upload category")
	// ErrUploadFileInvalid 上传文件未通过预检
	ErrUploadFileInvalid = errors.New("invalid upload file")
	// ErrEmailServiceDisabled 邮件服务未启用
	ErrEmailServiceDisabled = errors.New("email service disabled")
	// ErrEmailServiceNotConfigured 邮件服务未配置
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	// ErrEmailRecipientRejected 收件人被拒绝
	ErrEmailRecipientRejected = errors.New("email recipient rejected")
	// ErrNotificationEventInvalid 通知事件非法
	ErrNotificationEventInvalid = errors.New("invalid notification event")
	// ErrCaptchaRequired 需要验证码
	ErrCaptchaRequired = errors.New("captcha required")
	// ErrCaptchaInvalid 验证码错误
	ErrCaptchaInvalid = errors.New("captcha invalid")
	// ErrCaptchaConfigInvalid 验证码配置非法
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

// DuplicateIdentityError 重复注册错误
// 携带已存在档案的推广码，便于前端直接提示用户使用该码登录
type DuplicateIdentityError struct {
	ExistingCode string
}

func (e *DuplicateIdentityError) Error() string {
	return "email already registered"
}

// Is 与 ErrEmailExists 对齐，方便 errors.Is 判定
func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrEmailExists
}

// FieldErrors 字段级校验错误集合
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return "validation failed"
}

// Has 判断是否存在字段错误
func (e FieldErrors) Has() bool {
	return len(e) > 0
}
