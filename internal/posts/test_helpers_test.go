package posts

import "testing"

func mustUserID(t *testing.T, value string) UserID {
	t.Helper()
	id, err := NewUserID(value)
	if err != nil {
		t.Fatalf("unexpected user id error: %v", err)
	}
	return id
}

func mustPostID(t *testing.T, value int64) PostID {
	t.Helper()
	id, err := NewPostID(value)
	if err != nil {
		t.Fatalf("unexpected post id error: %v", err)
	}
	return id
}
