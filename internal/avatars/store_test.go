package avatars

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	store, err := NewStore(StoreConfig{
		Filesystem: fs,
		BaseURL:    "http://localhost:8080/",
		Clock:      func() time.Time { return time.UnixMilli(1700000000000) },
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, fs
}

func TestSaveNamespacesKeyByUserAndTimestamp(t *testing.T) {
	store, fs := newTestStore(t)

	key, err := store.Save("user-1", "portrait.png", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "user-1/1700000000000-portrait.png" {
		t.Fatalf("unexpected key: %q", key)
	}

	content, err := afero.ReadFile(fs, key)
	if err != nil {
		t.Fatalf("failed to read stored object: %v", err)
	}
	if string(content) != "image-bytes" {
		t.Fatalf("unexpected object content: %q", content)
	}
}

func TestSaveSanitizesFilename(t *testing.T) {
	store, _ := newTestStore(t)

	key, err := store.Save("user-1", "../../etc/pass wd.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(key, "..") {
		t.Fatalf("expected traversal segments to be stripped, got %q", key)
	}
	if !strings.HasPrefix(key, "user-1/") {
		t.Fatalf("expected key inside the owner namespace, got %q", key)
	}
	if strings.Contains(key, " ") {
		t.Fatalf("expected whitespace to be replaced, got %q", key)
	}
}

func TestSaveRequiresOwnerAndFilename(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Save("  ", "a.png", strings.NewReader("x")); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected missing user error, got %v", err)
	}
	if _, err := store.Save("user-1", "   ", strings.NewReader("x")); !errors.Is(err, ErrMissingFilename) {
		t.Fatalf("expected missing filename error, got %v", err)
	}
}

func TestPublicURLJoinsBase(t *testing.T) {
	store, _ := newTestStore(t)

	url := store.PublicURL("user-1/1700000000000-portrait.png")
	if url != "http://localhost:8080/avatars/user-1/1700000000000-portrait.png" {
		t.Fatalf("unexpected public url: %q", url)
	}
}
