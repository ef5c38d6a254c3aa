package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/advicelib/backend/internal/posts"
)

func TestHandleVoteIncrementsAndReturnsNewCount(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, "advice", 7)

	body := fmt.Sprintf(`{"postId":%d,"increment":1}`, post.ID)
	recorder := env.do(t, http.MethodPost, "/api/vote", body, "")

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload map[string]int64
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["votes"] != 8 {
		t.Fatalf("expected 8 votes, got %d", payload["votes"])
	}
}

func TestHandleVoteSequentialUpAndDownRestoresOriginal(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, "advice", 4)

	up := env.do(t, http.MethodPost, "/api/vote", fmt.Sprintf(`{"postId":%d,"increment":1}`, post.ID), "")
	if up.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", up.Code)
	}

	down := env.do(t, http.MethodPost, "/api/vote", fmt.Sprintf(`{"postId":%d,"increment":-1}`, post.ID), "")
	if down.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", down.Code)
	}
	var payload map[string]int64
	if err := json.Unmarshal(down.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["votes"] != 4 {
		t.Fatalf("expected original count 4, got %d", payload["votes"])
	}
}

func TestHandleVoteValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, "advice", 7)

	testCases := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "missing-post-id",
			body:      `{"increment":1}`,
			wantError: "invalid_post_id",
		},
		{
			name:      "zero-post-id",
			body:      `{"postId":0,"increment":1}`,
			wantError: "invalid_post_id",
		},
		{
			name:      "missing-increment",
			body:      fmt.Sprintf(`{"postId":%d}`, post.ID),
			wantError: "invalid_increment",
		},
		{
			name:      "fractional-increment",
			body:      fmt.Sprintf(`{"postId":%d,"increment":1.5}`, post.ID),
			wantError: "invalid_increment",
		},
		{
			name:      "malformed-body",
			body:      `{"postId":`,
			wantError: "invalid_request",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := env.do(t, http.MethodPost, "/api/vote", testCase.body, "")

			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", recorder.Code, recorder.Body.String())
			}
			var payload map[string]any
			if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if payload["error"] != testCase.wantError {
				t.Fatalf("expected error %q, got %v", testCase.wantError, payload["error"])
			}
		})
	}

	var stored posts.Post
	if err := env.db.First(&stored, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if stored.Votes != 7 {
		t.Fatalf("expected storage unmodified at 7 votes, got %d", stored.Votes)
	}
}

func TestHandleVoteUnknownPostReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)
	post := env.seedPost(t, "advice", 7)

	recorder := env.do(t, http.MethodPost, "/api/vote", `{"postId":4242,"increment":1}`, "")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var stored posts.Post
	if err := env.db.First(&stored, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if stored.Votes != 7 {
		t.Fatalf("expected storage unmodified at 7 votes, got %d", stored.Votes)
	}
}
