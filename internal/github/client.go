// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-scraper/internal/errors"
	"github-scraper/internal/model"
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client; an empty
// token yields an unauthenticated client with the anonymous rate limit.
func NewClient(token string, logger *slog.Logger) *Client {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:     github.NewClient(httpClient),
		logger: logger,
	}
}

// SetBaseURL points the client at a different API root, such as a GitHub
// Enterprise instance or a test server.
func (c *Client) SetBaseURL(rawURL string) error {
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	c.gh.BaseURL = parsed
	return nil
}

// GetUserByLogin fetches a single user by username and translates it to our
// internal model.
func (c *Client) GetUserByLogin(ctx context.Context, login string) (model.User, error) {
	user, _, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		return model.User{}, classifyError(err)
	}
	return toInternalUser(user), nil
}

// ListUsers fetches one page of users ordered by id, starting after sinceID.
func (c *Client) ListUsers(ctx context.Context, sinceID int64, perPage int) ([]model.User, error) {
	c.logger.Debug("Fetching users page", "since", sinceID, "per_page", perPage)

	opts := &github.UserListOptions{
		Since:       sinceID,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	users, _, err := c.gh.Users.ListAll(ctx, opts)
	if err != nil {
		return nil, classifyError(err)
	}

	result := make([]model.User, 0, len(users))
	for _, u := range users {
		result = append(result, toInternalUser(u))
	}
	return result, nil
}

// ListRepositoriesByUser fetches one page of a user's public repositories.
// Pages are 1-indexed.
func (c *Client) ListRepositoriesByUser(ctx context.Context, login string, page, perPage int) ([]model.Repository, error) {
	c.logger.Debug("Fetching repositories page", "login", login, "page", page, "per_page", perPage)

	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	repos, _, err := c.gh.Repositories.ListByUser(ctx, login, opts)
	if err != nil {
		return nil, classifyError(err)
	}

	result := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		result = append(result, toInternalRepository(r))
	}
	return result, nil
}

// classifyError maps go-github rate limit errors to our ThrottledError so the
// scraper can propagate them with resume state. The client never retries; the
// caller decides whether to wait out the reset window.
func classifyError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		status := http.StatusForbidden
		if rateErr.Response != nil {
			status = rateErr.Response.StatusCode
		}
		return custom_errors.NewThrottledError(status, rateErr.Rate.Reset.Time)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		status := http.StatusForbidden
		if abuseErr.Response != nil {
			status = abuseErr.Response.StatusCode
		}
		throttled := &custom_errors.ThrottledError{StatusCode: status}
		if abuseErr.RetryAfter != nil {
			throttled.RetryAfter = *abuseErr.RetryAfter
		}
		return throttled
	}

	return err
}

// toInternalUser translates a github.User object to our internal model.User.
func toInternalUser(u *github.User) model.User {
	return model.User{
		ID:    u.GetID(),
		Login: u.GetLogin(),
		URL:   u.GetHTMLURL(),
	}
}

// toInternalRepository translates a github.Repository object to our internal
// model.Repository, carrying the owner along for referential integrity.
func toInternalRepository(r *github.Repository) model.Repository {
	return model.Repository{
		ID:          r.GetID(),
		Owner:       toInternalUser(r.GetOwner()),
		FullName:    r.GetFullName(),
		Name:        r.GetName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
	}
}
