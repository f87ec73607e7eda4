package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/afiliados-next/internal/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	return NewLocalStore(&config.StorageConfig{
		Driver:        "local",
		LocalDir:      t.TempDir(),
		PublicBaseURL: "https://cdn.example.com/uploads",
	})
}

func TestLocalStorePutAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	url, err := store.Put(ctx, "joao-silva/videos/1693000000000_a1b2c3d4.mp4", strings.NewReader("conteudo"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "https://cdn.example.com/uploads/joao-silva/videos/1693000000000_a1b2c3d4.mp4" {
		t.Fatalf("unexpected public url: %s", url)
	}

	fullPath := filepath.Join(store.baseDir, "joao-silva", "videos", "1693000000000_a1b2c3d4.mp4")
	data, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("stored file not readable: %v", err)
	}
	if string(data) != "conteudo" {
		t.Fatalf("unexpected file content: %s", string(data))
	}

	if err := store.Delete(ctx, "joao-silva/videos/1693000000000_a1b2c3d4.mp4"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got err=%v", err)
	}

	// 重复删除不应报错
	if err := store.Delete(ctx, "joao-silva/videos/1693000000000_a1b2c3d4.mp4"); err != nil {
		t.Fatalf("Delete on missing file should succeed: %v", err)
	}
}

func TestLocalStoreRejectsTraversalKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := []string{"", "/abs/key", "a/../b", "a//b", "./x"}
	for _, key := range cases {
		if _, err := store.Put(ctx, key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected Put to reject key %q", key)
		}
		if err := store.Delete(ctx, key); err == nil {
			t.Fatalf("expected Delete to reject key %q", key)
		}
	}
}

func TestKeyFromPublicURL(t *testing.T) {
	store := newTestStore(t)

	key, ok := store.KeyFromPublicURL("https://cdn.example.com/uploads/maria/documentos/1_a.pdf")
	if !ok {
		t.Fatal("expected key to resolve")
	}
	if key != "maria/documentos/1_a.pdf" {
		t.Fatalf("unexpected key: %s", key)
	}

	if _, ok := store.KeyFromPublicURL("https://other.example.com/uploads/maria/documentos/1_a.pdf"); ok {
		t.Fatal("foreign url should not resolve")
	}
	if _, ok := store.KeyFromPublicURL(""); ok {
		t.Fatal("empty url should not resolve")
	}
}
