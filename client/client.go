// Package client provides a small Go client for the Advice Library API,
// including a feed browser that mirrors the web client's fetch/search flow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a running Advice Library API server.
type Client struct {
	http.Client
	Addr string

	token string
}

// Post mirrors the wire shape of an advice post.
type Post struct {
	ID           uint64    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Steps        string    `json:"steps"`
	ForWho       string    `json:"for_who"`
	WhyItWorks   string    `json:"why_it_works"`
	WhereItWorks string    `json:"where_it_works"`
	Votes        int64     `json:"votes"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `json:"user_id"`
	Comments     []Comment `json:"comments,omitempty"`
}

// Comment mirrors the wire shape of a comment with its resolved author name.
type Comment struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SignIn authenticates the client; subsequent requests carry the session token.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var session sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin",
		map[string]string{"email": email, "password": password},
		http.StatusOK, &session)
	if err != nil {
		return err
	}
	c.token = session.AccessToken
	return nil
}

// FetchPosts returns the full feed, ordered by descending vote count.
func (c *Client) FetchPosts(ctx context.Context, includeComments bool) ([]Post, error) {
	endpoint := "/api/posts"
	if includeComments {
		endpoint += "?include_comments=1"
	}
	var fetched []Post
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, http.StatusOK, &fetched); err != nil {
		return nil, err
	}
	return fetched, nil
}

// SearchPosts returns the feed filtered server-side by title substring.
func (c *Client) SearchPosts(ctx context.Context, query string) ([]Post, error) {
	endpoint := "/api/posts?search=" + url.QueryEscape(query)
	var fetched []Post
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, http.StatusOK, &fetched); err != nil {
		return nil, err
	}
	return fetched, nil
}

// Vote applies a signed increment to the post's vote count and returns the
// authoritative new total.
func (c *Client) Vote(ctx context.Context, postID uint64, increment int64) (int64, error) {
	var result struct {
		Votes int64 `json:"votes"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/vote",
		map[string]any{"postId": postID, "increment": increment},
		http.StatusOK, &result)
	if err != nil {
		return 0, err
	}
	return result.Votes, nil
}

// SubmitPost creates a new advice post owned by the signed-in user.
func (c *Client) SubmitPost(ctx context.Context, draft Post) (Post, error) {
	var created Post
	err := c.doJSON(ctx, http.MethodPost, "/api/posts", map[string]string{
		"title":          draft.Title,
		"description":    draft.Description,
		"steps":          draft.Steps,
		"for_who":        draft.ForWho,
		"why_it_works":   draft.WhyItWorks,
		"where_it_works": draft.WhereItWorks,
	}, http.StatusCreated, &created)
	if err != nil {
		return Post{}, err
	}
	return created, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Addr+endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var failure errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&failure); decodeErr == nil && failure.Error != "" {
			return fmt.Errorf("client: %s %s: %s (status %d)", method, endpoint, failure.Error, resp.StatusCode)
		}
		return fmt.Errorf("client: %s %s: unexpected status %d", method, endpoint, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
