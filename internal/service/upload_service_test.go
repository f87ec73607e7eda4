package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/afiliados-next/internal/config"
	"github.com/afiliados-next/internal/constants"
	"github.com/afiliados-next/internal/queue"
)

type fakeStore struct {
	mu     sync.Mutex
	keys   []string
	failOn string
}

func (s *fakeStore) Put(_ context.Context, key string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && strings.Contains(key, s.failOn) {
		return "", errors.New("storage write refused")
	}
	s.keys = append(s.keys, key)
	return "https://cdn.test/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error { return nil }

func (s *fakeStore) PublicURL(key string) string { return "https://cdn.test/" + key }

func (s *fakeStore) KeyFromPublicURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, "https://cdn.test/") {
		return "", false
	}
	return strings.TrimPrefix(rawURL, "https://cdn.test/"), true
}

func (s *fakeStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func setupUploadServiceTest(t *testing.T) (*UploadService, *fakeStore) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upload.BatchConcurrency = 2
	store := &fakeStore{}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	return NewUploadService(cfg, store, queueClient), store
}

func buildTestFileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file failed: %v", err)
		}
		if _, err := part.Write([]byte("conteudo de " + name)); err != nil {
			t.Fatalf("write form file failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read multipart form failed: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func TestUploadBatchRejectsBlankOwnerBeforeStorage(t *testing.T) {
	svc, store := setupUploadServiceTest(t)

	files := buildTestFileHeaders(t, "video.mp4")
	_, err := svc.UploadBatch(context.Background(), UploadBatchInput{
		OwnerName: "   ",
		Category:  constants.UploadCategoryVideos,
		Files:     files,
	})
	if !errors.Is(err, ErrOwnerNameMissing) {
		t.Fatalf("expected ErrOwnerNameMissing, got %v", err)
	}
	if store.putCount() != 0 {
		t.Fatalf("storage must not be touched, got %d writes", store.putCount())
	}
}

func TestUploadBatchRejectsInvalidCategory(t *testing.T) {
	svc, store := setupUploadServiceTest(t)

	_, err := svc.UploadBatch(context.Background(), UploadBatchInput{
		OwnerName: "João da Silva",
		Category:  "outros",
		Files:     buildTestFileHeaders(t, "doc.pdf"),
	})
	if !errors.Is(err, ErrUploadCategoryInvalid) {
		t.Fatalf("expected ErrUploadCategoryInvalid, got %v", err)
	}
	if store.putCount() != 0 {
		t.Fatalf("storage must not be touched, got %d writes", store.putCount())
	}
}

func TestUploadBatchStoresFilesUnderSlugPrefix(t *testing.T) {
	svc, store := setupUploadServiceTest(t)

	results, err := svc.UploadBatch(context.Background(), UploadBatchInput{
		OwnerName: "  João da Silva ",
		Category:  constants.UploadCategoryVideos,
		Files:     buildTestFileHeaders(t, "apresentacao.mp4", "depoimento.MOV"),
	})
	if err != nil {
		t.Fatalf("upload batch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].FileName != "apresentacao.mp4" || results[1].FileName != "depoimento.MOV" {
		t.Fatalf("results out of order: %+v", results)
	}
	for _, result := range results {
		if !strings.HasPrefix(result.Key, "joao-da-silva/videos/") {
			t.Fatalf("unexpected key prefix: %s", result.Key)
		}
		if result.URL == "" {
			t.Fatalf("missing url for %s", result.FileName)
		}
	}
	if !strings.HasSuffix(results[1].Key, ".mov") {
		t.Fatalf("extension should be lowercased: %s", results[1].Key)
	}
	if store.putCount() != 2 {
		t.Fatalf("expected 2 writes, got %d", store.putCount())
	}
}

func TestUploadBatchEmptyIsNoOp(t *testing.T) {
	svc, store := setupUploadServiceTest(t)

	results, err := svc.UploadBatch(context.Background(), UploadBatchInput{
		OwnerName: "Maria",
		Category:  constants.UploadCategoryDocumentos,
	})
	if err != nil {
		t.Fatalf("empty batch should succeed: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
	if store.putCount() != 0 {
		t.Fatalf("expected no writes, got %d", store.putCount())
	}
}

func TestUploadBatchFailurePropagates(t *testing.T) {
	svc, store := setupUploadServiceTest(t)
	store.failOn = ".pdf"

	_, err := svc.UploadBatch(context.Background(), UploadBatchInput{
		OwnerName: "Maria José",
		Category:  constants.UploadCategoryDocumentos,
		Files:     buildTestFileHeaders(t, "contrato.pdf", "foto.png"),
	})
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if !strings.Contains(err.Error(), "storage write refused") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUploadBatchSizeLimit(t *testing.T) {
	svc, store := setupUploadServiceTest(t)
	svc.cfg.Upload.MaxSize = 4

	_, err := svc.UploadBatch(context.Background(), UploadBatchInput{
		OwnerName: "Maria",
		Category:  constants.UploadCategoryImagensProduto,
		Files:     buildTestFileHeaders(t, "grande.png"),
	})
	if err == nil {
		t.Fatal("expected size limit error")
	}
	if store.putCount() != 0 {
		t.Fatalf("oversized file must be rejected before storage, got %d writes", store.putCount())
	}
}

func TestSlugifyOwnerName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"João da Silva", "joao-da-silva"},
		{"  Maria-José  Souza ", "maria-jose-souza"},
		{"Ágata Ção", "agata-cao"},
		{"agente 007", "agente-007"},
		{"!!!", uploadSlugFallback},
	}
	for _, tc := range cases {
		if got := slugifyOwnerName(tc.input); got != tc.want {
			t.Fatalf("slugifyOwnerName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
