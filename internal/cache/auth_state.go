package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/afiliados-next/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// AffiliateAuthState 代理人鉴权快照
// 仅用于服务端 Redis 缓存，避免每次请求回查数据库
type AffiliateAuthState struct {
	AffiliateID uint   `json:"affiliate_id"`
	Email       string `json:"email"`
	Code        string `json:"code"`
	UpdatedAt   int64  `json:"updated_at"`
}

// AdminAuthState 管理员鉴权快照
type AdminAuthState struct {
	AdminID            uint   `json:"admin_id"`
	Username           string `json:"username"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	UpdatedAt          int64  `json:"updated_at"`
}

func affiliateAuthStateKey(affiliateID uint) string {
	return fmt.Sprintf("auth:affiliate:%d", affiliateID)
}

func adminAuthStateKey(adminID uint) string {
	return fmt.Sprintf("auth:admin:%d", adminID)
}

// BuildAffiliateAuthState 从代理人档案构建鉴权快照
func BuildAffiliateAuthState(profile *models.AffiliateProfile) *AffiliateAuthState {
	if profile == nil {
		return nil
	}
	return &AffiliateAuthState{
		AffiliateID: profile.ID,
		Email:       profile.Email,
		Code:        profile.AffiliateCode,
		UpdatedAt:   time.Now().Unix(),
	}
}

// BuildAdminAuthState 从管理员模型构建鉴权快照
func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	state := &AdminAuthState{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
	if admin.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = admin.TokenInvalidBefore.Unix()
	}
	return state
}

// GetAffiliateAuthState 获取代理人鉴权快照
func GetAffiliateAuthState(ctx context.Context, affiliateID uint) (*AffiliateAuthState, bool, error) {
	if affiliateID == 0 {
		return nil, false, nil
	}
	var state AffiliateAuthState
	hit, err := GetJSON(ctx, affiliateAuthStateKey(affiliateID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetAffiliateAuthState 写入代理人鉴权快照
func SetAffiliateAuthState(ctx context.Context, state *AffiliateAuthState) error {
	if state == nil || state.AffiliateID == 0 {
		return nil
	}
	return SetJSON(ctx, affiliateAuthStateKey(state.AffiliateID), state, authStateCacheTTL)
}

// DelAffiliateAuthState 删除代理人鉴权快照
func DelAffiliateAuthState(ctx context.Context, affiliateID uint) error {
	if affiliateID == 0 {
		return nil
	}
	return Del(ctx, affiliateAuthStateKey(affiliateID))
}

// GetAdminAuthState 获取管理员鉴权快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	if adminID == 0 {
		return nil, false, nil
	}
	var state AdminAuthState
	hit, err := GetJSON(ctx, adminAuthStateKey(adminID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetAdminAuthState 写入管理员鉴权快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, adminAuthStateKey(state.AdminID), state, authStateCacheTTL)
}

// DelAdminAuthState 删除管理员鉴权快照
func DelAdminAuthState(ctx context.Context, adminID uint) error {
	if adminID == 0 {
		return nil
	}
	return Del(ctx, adminAuthStateKey(adminID))
}
