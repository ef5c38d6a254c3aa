package avatars

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var (
	// ErrMissingUserID indicates an upload without an owning user.
	ErrMissingUserID = errors.New("avatars: user identifier is required")
	// ErrMissingFilename indicates an upload without a usable filename.
	ErrMissingFilename = errors.New("avatars: filename is required")
)

// StoreConfig describes the avatar object store dependencies.
type StoreConfig struct {
	Filesystem afero.Fs
	BaseURL    string
	Clock      func() time.Time
}

// Store writes uploaded avatar images into a filesystem-backed object store.
// Keys are namespaced by owning user and upload time so successive uploads
// never collide.
type Store struct {
	fs      afero.Fs
	baseURL string
	clock   func() time.Time
}

// NewStore constructs the avatar store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Filesystem == nil {
		return nil, fmt.Errorf("avatars: filesystem is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		fs:      cfg.Filesystem,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		clock:   clock,
	}, nil
}

// Save stores the uploaded content under `<user_id>/<unix_ms>-<filename>` and
// returns the object key.
func (s *Store) Save(userID, filename string, content io.Reader) (string, error) {
	owner := strings.TrimSpace(userID)
	if owner == "" {
		return "", ErrMissingUserID
	}
	name := sanitizeFilename(filename)
	if name == "" {
		return "", ErrMissingFilename
	}

	key := fmt.Sprintf("%s/%d-%s", owner, s.clock().UnixMilli(), name)
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", fmt.Errorf("avatars: creating directory failed: %w", err)
	}

	file, err := s.fs.Create(key)
	if err != nil {
		return "", fmt.Errorf("avatars: creating object failed: %w", err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		return "", fmt.Errorf("avatars: writing object failed: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("avatars: closing object failed: %w", err)
	}
	return key, nil
}

// PublicURL returns the externally reachable URL for a stored object key.
func (s *Store) PublicURL(key string) string {
	return s.baseURL + "/avatars/" + key
}

// HTTPFileSystem exposes the store contents for read-only HTTP serving.
func (s *Store) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(s.fs))
}

// sanitizeFilename keeps only the base name and strips path separators and
// whitespace so keys stay within the owner's namespace.
func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
