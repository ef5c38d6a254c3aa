package client

import (
	"context"

	"github.com/advicelib/backend/internal/feed"
	"github.com/advicelib/backend/internal/posts"
	"go.uber.org/zap"
)

// FeedBrowser reproduces the web client's home feed flow: fetch all posts,
// keep the latest completed fetch as the rendered snapshot, and filter it by
// a live title search. Overlapping refreshes are sequenced so a slow earlier
// fetch can never clobber a later one's result.
type FeedBrowser struct {
	api  *Client
	view *feed.View
}

// NewFeedBrowser constructs a browser over the given API client.
func NewFeedBrowser(api *Client, logger *zap.Logger) *FeedBrowser {
	return &FeedBrowser{
		api:  api,
		view: feed.NewView(logger),
	}
}

// Refresh fetches the feed and applies the result to the view. It reports
// whether the snapshot was updated; a stale completion is discarded.
func (b *FeedBrowser) Refresh(ctx context.Context) bool {
	seq := b.view.BeginFetch()
	fetched, err := b.api.FetchPosts(ctx, false)
	return b.view.Apply(seq, toDomain(fetched), err)
}

// Loaded reports whether the latest fetch completed successfully.
func (b *FeedBrowser) Loaded() bool {
	return b.view.State() == feed.StateLoaded
}

// Failed reports whether the latest fetch completed with an error. A failed
// feed renders as empty, but remains distinguishable from a loaded empty one.
func (b *FeedBrowser) Failed() bool {
	return b.view.State() == feed.StateFailed
}

// Visible returns the posts matching the live search query, in the order the
// server delivered them (descending votes).
func (b *FeedBrowser) Visible(query string) []Post {
	return fromDomain(b.view.Visible(query))
}

func toDomain(fetched []Post) []posts.Post {
	converted := make([]posts.Post, 0, len(fetched))
	for _, post := range fetched {
		converted = append(converted, posts.Post{
			ID:           post.ID,
			Title:        post.Title,
			Description:  post.Description,
			Steps:        post.Steps,
			ForWho:       post.ForWho,
			WhyItWorks:   post.WhyItWorks,
			WhereItWorks: post.WhereItWorks,
			Votes:        post.Votes,
			CreatedAt:    post.CreatedAt,
			UserID:       post.UserID,
		})
	}
	return converted
}

func fromDomain(snapshot []posts.Post) []Post {
	converted := make([]Post, 0, len(snapshot))
	for _, post := range snapshot {
		converted = append(converted, Post{
			ID:           post.ID,
			Title:        post.Title,
			Description:  post.Description,
			Steps:        post.Steps,
			ForWho:       post.ForWho,
			WhyItWorks:   post.WhyItWorks,
			WhereItWorks: post.WhereItWorks,
			Votes:        post.Votes,
			CreatedAt:    post.CreatedAt,
			UserID:       post.UserID,
		})
	}
	return converted
}
