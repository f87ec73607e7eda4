package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/logger"
	"github.com/afiliados-next/internal/queue"
	"github.com/afiliados-next/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultBatchConcurrency = 4
	defaultMaxBatchFiles    = 20
	uploadSlugFallback      = "agente"
)

// UploadService 文件上传服务
// 以归属人+分类组织对象键，批量上传并发执行
type UploadService struct {
	cfg         *config.Config
	store       storage.Store
	queueClient *queue.Client
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg *config.Config, store storage.Store, queueClient *queue.Client) *UploadService {
	return &UploadService{
		cfg:         cfg,
		store:       store,
		queueClient: queueClient,
	}
}

// UploadBatchInput 批量上传载荷
type UploadBatchInput struct {
	OwnerName string
	Category  string
	Files     []*multipart.FileHeader
}

// UploadResult 单文件上传结果
type UploadResult struct {
	FileName string `json:"file_name"`
	Key      string `json:"key"`
	URL      string `json:"url"`
}

// UploadBatch 批量上传文件
// 归属人为空或分类非法时在写入存储前拒绝
// 任一文件失败则整批失败，已写入的对象入队延迟清理
func (s *UploadService) UploadBatch(ctx context.Context, input UploadBatchInput) ([]UploadResult, error) {
	owner := strings.TrimSpace(input.OwnerName)
	if owner == "" {
		return nil, ErrOwnerNameMissing
	}
	category := strings.ToLower(strings.TrimSpace(input.Category))
	if !isUploadCategory(category) {
		return nil, ErrUploadCategoryInvalid
	}
	if len(input.Files) == 0 {
		return nil, nil
	}

	maxBatch := s.cfg.Upload.MaxBatchFiles
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchFiles
	}
	if len(input.Files) > maxBatch {
		return nil, fmt.Errorf("%w: too many files in one batch (max %d)", ErrUploadFileInvalid, maxBatch)
	}

	// 全部文件先行校验，避免半批写入后才发现非法文件
	for _, file := range input.Files {
		if err := s.validateFile(file); err != nil {
			return nil, err
		}
	}

	slug := slugifyOwnerName(owner)
	results := make([]UploadResult, len(input.Files))

	concurrency := s.cfg.Upload.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, concurrency)

	for i, file := range input.Files {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, file *multipart.FileHeader) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := s.saveOne(ctx, slug, category, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[index] = result
		}(i, file)
	}
	wg.Wait()

	if firstErr != nil {
		s.cleanupPartialBatch(results)
		return nil, firstErr
	}
	return results, nil
}

func (s *UploadService) saveOne(ctx context.Context, slug, category string, file *multipart.FileHeader) (UploadResult, error) {
	src, err := file.Open()
	if err != nil {
		return UploadResult{}, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := fmt.Sprintf("%s/%s/%d_%s%s", slug, category, time.Now().UnixMilli(), randomFileSuffix(), ext)

	url, err := s.store.Put(ctx, key, src)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		FileName: file.Filename,
		Key:      key,
		URL:      url,
	}, nil
}

func (s *UploadService) cleanupPartialBatch(results []UploadResult) {
	var urls []string
	for _, result := range results {
		if result.URL != "" {
			urls = append(urls, result.URL)
		}
	}
	if len(urls) == 0 {
		return
	}
	if err := s.queueClient.EnqueueStorageCleanup(queue.StorageCleanupPayload{URLs: urls}, 0); err != nil {
		logger.Warnw("upload_batch_cleanup_enqueue_failed", "url_count", len(urls), "error", err)
	}
}

func (s *UploadService) validateFile(file *multipart.FileHeader) error {
	if file == nil {
		return fmt.Errorf("%w: missing file in batch", ErrUploadFileInvalid)
	}
	if s.cfg.Upload.MaxSize > 0 && file.Size > s.cfg.Upload.MaxSize {
		return fmt.Errorf("%w: file %s exceeds size limit (max %d MB)", ErrUploadFileInvalid, file.Filename, s.cfg.Upload.MaxSize/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.Upload.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.Upload.AllowedExtensions) {
			return fmt.Errorf("%w: file extension not allowed: %s", ErrUploadFileInvalid, ext)
		}
	}

	if len(s.cfg.Upload.AllowedTypes) == 0 {
		return nil
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	if _, err := src.Read(buffer); err != nil && err != io.EOF {
		return err
	}
	contentType := http.DetectContentType(buffer)
	for _, t := range s.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, t) {
			return nil
		}
	}
	return fmt.Errorf("%w: file type not allowed: %s", ErrUploadFileInvalid, contentType)
}

func isUploadCategory(value string) bool {
	for _, category := range constants.UploadCategories {
		if value == category {
			return true
		}
	}
	return false
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func randomFileSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// slugifyOwnerName 将归属人姓名转为对象键目录段
// 重音字符折叠为基础拉丁字母，其余字符统一为连字符
func slugifyOwnerName(name string) string {
	folded := norm.NFD.String(strings.ToLower(strings.TrimSpace(name)))
	var builder strings.Builder
	builder.Grow(len(folded))
	lastDash := true
	for _, r := range folded {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(builder.String(), "-")
	if slug == "" {
		return uploadSlugFallback
	}
	return slug
}
