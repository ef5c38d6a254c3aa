// Package feed holds the presentation-side assembly of the advice feed: the
// live title search over a fetched snapshot, and a view that tracks overlapping
// fetches so only the latest one may publish its result.
package feed

import (
	"strings"
	"sync"

	"github.com/advicelib/backend/internal/posts"
	"go.uber.org/zap"
)

// FilterByTitle returns the posts whose title contains the query as a
// case-insensitive substring, preserving input order. A query that trims to
// empty returns the full input unchanged.
func FilterByTitle(fetched []posts.Post, query string) []posts.Post {
	if strings.TrimSpace(query) == "" {
		return fetched
	}
	needle := strings.ToLower(query)
	filtered := make([]posts.Post, 0, len(fetched))
	for _, post := range fetched {
		if strings.Contains(strings.ToLower(post.Title), needle) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

// LoadState distinguishes the phases of the feed view.
type LoadState int

const (
	// StateLoading is the initial state before any fetch has completed.
	StateLoading LoadState = iota
	// StateLoaded means the latest fetch completed successfully, possibly
	// with zero posts.
	StateLoaded
	// StateFailed means the latest fetch completed with an error. The view
	// still renders as an empty list, but the failure stays queryable.
	StateFailed
)

// View maintains the rendered snapshot of the feed across overlapping
// fetches. Every fetch first claims a sequence number via BeginFetch; on
// completion only the highest-sequence result is applied, so a slow earlier
// fetch can never overwrite a later one's snapshot.
type View struct {
	mu       sync.Mutex
	nextSeq  uint64
	applied  uint64
	snapshot []posts.Post
	state    LoadState
	logger   *zap.Logger
}

// NewView constructs an empty feed view in the loading state.
func NewView(logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{state: StateLoading, logger: logger}
}

// BeginFetch claims the next fetch sequence number.
func (v *View) BeginFetch() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextSeq++
	return v.nextSeq
}

// Apply records a fetch completion. The result is discarded when a
// higher-sequence completion has already been applied. It reports whether the
// snapshot was updated.
func (v *View) Apply(seq uint64, fetched []posts.Post, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if seq <= v.applied {
		v.logger.Debug("stale feed fetch discarded",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", v.applied))
		return false
	}
	v.applied = seq

	if err != nil {
		v.logger.Error("feed fetch failed", zap.Uint64("seq", seq), zap.Error(err))
		v.snapshot = nil
		v.state = StateFailed
		return true
	}
	v.snapshot = fetched
	v.state = StateLoaded
	return true
}

// State returns the view's current load state.
func (v *View) State() LoadState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Visible returns the posts to render for the given search query: the latest
// snapshot filtered by title. Failed and loading states render as empty.
func (v *View) Visible(query string) []posts.Post {
	v.mu.Lock()
	snapshot := v.snapshot
	v.mu.Unlock()
	return FilterByTitle(snapshot, query)
}
