package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/afiliados-next/internal/config"
)

const defaultLocalDir = "./uploads"

// LocalStore 本地磁盘存储实现
type LocalStore struct {
	baseDir       string
	publicBaseURL string
}

// NewLocalStore 创建本地存储
func NewLocalStore(cfg *config.StorageConfig) *LocalStore {
	baseDir := defaultLocalDir
	publicBaseURL := "/uploads"
	if cfg != nil {
		if strings.TrimSpace(cfg.LocalDir) != "" {
			baseDir = strings.TrimSpace(cfg.LocalDir)
		}
		if strings.TrimSpace(cfg.PublicBaseURL) != "" {
			publicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
		}
	}
	return &LocalStore{
		baseDir:       baseDir,
		publicBaseURL: publicBaseURL,
	}
}

// Put 写入对象并返回公开访问链接
func (s *LocalStore) Put(_ context.Context, key string, reader io.Reader) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		_ = os.Remove(fullPath)
		return "", err
	}
	return s.PublicURL(key), nil
}

// Delete 删除对象，对象不存在时视为成功
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PublicURL 生成对象的公开访问链接
func (s *LocalStore) PublicURL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// KeyFromPublicURL 从公开链接反解对象键
func (s *LocalStore) KeyFromPublicURL(rawURL string) (string, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", false
	}
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(trimmed, prefix)
	if validateKey(key) != nil {
		return "", false
	}
	return key, true
}
