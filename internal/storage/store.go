package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/afiliados-next/internal/config"
)

// ErrInvalidKey 对象键非法
var ErrInvalidKey = errors.New("invalid storage key")

// Store 对象存储接口
// key 为相对路径形式的对象键，例如 joao-silva/videos/1693000000000_a1b2c3d4.mp4
type Store interface {
	Put(ctx context.Context, key string, reader io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromPublicURL(rawURL string) (string, bool)
}

// NewStore 按配置创建存储实现
func NewStore(cfg *config.StorageConfig) (Store, error) {
	driver := "local"
	if cfg != nil && strings.TrimSpace(cfg.Driver) != "" {
		driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	}
	switch driver {
	case "local":
		return NewLocalStore(cfg), nil
	default:
		return nil, errors.New("unsupported storage driver: " + driver)
	}
}

func validateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
