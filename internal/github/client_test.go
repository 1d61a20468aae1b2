// internal/github/client_test.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-scraper/internal/errors"
)

// setupTestClient creates a httptest server and a github client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	// We can pass an empty token because we are not authenticating to the real GitHub.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := NewClient("", logger)

	// Point the client's internal base URL at our test server.
	require.NoError(t, client.SetBaseURL(server.URL))

	return client, server
}

func TestClient_GetUserByLogin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"id": 42, "login": "alice", "html_url": "https://github.com/alice"}`)
	})
	client, server := setupTestClient(t, handler)
	defer server.Close()

	user, err := client.GetUserByLogin(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "alice", user.Login)
	assert.Equal(t, "https://github.com/alice", user.URL)
}

func TestClient_ListUsers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("since"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `[
			{"id": 101, "login": "alice", "html_url": "https://github.com/alice"},
			{"id": 102, "login": "bob", "html_url": "https://github.com/bob"}
		]`)
	})
	client, server := setupTestClient(t, handler)
	defer server.Close()

	users, err := client.ListUsers(context.Background(), 100, 2)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(101), users[0].ID)
	assert.Equal(t, "bob", users[1].Login)
}

func TestClient_ListRepositoriesByUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/repos", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `[
			{
				"id": 7,
				"name": "dotfiles",
				"full_name": "alice/dotfiles",
				"description": "config files",
				"html_url": "https://github.com/alice/dotfiles",
				"owner": {"id": 42, "login": "alice", "html_url": "https://github.com/alice"}
			}
		]`)
	})
	client, server := setupTestClient(t, handler)
	defer server.Close()

	repos, err := client.ListRepositoriesByUser(context.Background(), "alice", 2, 1)

	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, int64(7), repos[0].ID)
	assert.Equal(t, "alice/dotfiles", repos[0].FullName)
	require.NotNil(t, repos[0].Description)
	assert.Equal(t, "config files", *repos[0].Description)
	assert.Equal(t, int64(42), repos[0].Owner.ID)
	assert.Equal(t, "alice", repos[0].Owner.Login)
}

func TestClient_RateLimitMapping(t *testing.T) {
	t.Run("rate limit response becomes a ThrottledError", func(t *testing.T) {
		resetTime := time.Now().Add(30 * time.Second)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.ListUsers(context.Background(), 0, 10)

		var throttled *custom_errors.ThrottledError
		require.ErrorAs(t, err, &throttled)
		assert.Equal(t, http.StatusForbidden, throttled.StatusCode)
		assert.Greater(t, throttled.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, throttled.RetryAfter, 31*time.Second)
		assert.False(t, throttled.Resumable, "the client knows nothing about cursors")
	})

	t.Run("a reset time in the past yields a zero wait", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(-time.Hour).Unix()))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUserByLogin(context.Background(), "alice")

		var throttled *custom_errors.ThrottledError
		require.ErrorAs(t, err, &throttled)
		assert.Equal(t, time.Duration(0), throttled.RetryAfter)
	})

	t.Run("other errors pass through unchanged", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUserByLogin(context.Background(), "alice")

		require.Error(t, err)
		var throttled *custom_errors.ThrottledError
		assert.False(t, errors.As(err, &throttled))
		var ghErr *github.ErrorResponse
		assert.ErrorAs(t, err, &ghErr)
	})
}
