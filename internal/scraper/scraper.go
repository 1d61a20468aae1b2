// internal/scraper/scraper.go
package scraper

import (
	"context"
	"errors"
	"log/slog"

	custom_errors "github-scraper/internal/errors"
	"github-scraper/internal/model"
)

// APIClient is the remote GitHub API surface the scraper depends on. Any call
// may fail with a *errors.ThrottledError when the rate limit is exhausted.
type APIClient interface {
	GetUserByLogin(ctx context.Context, login string) (model.User, error)
	ListUsers(ctx context.Context, sinceID int64, perPage int) ([]model.User, error)
	ListRepositoriesByUser(ctx context.Context, login string, page, perPage int) ([]model.Repository, error)
}

// Gateway persists scraped records. Saves are insert-if-absent: the boolean
// reports whether a new row was created, and existing rows are left untouched.
type Gateway interface {
	SaveUser(ctx context.Context, user model.User) (bool, error)
	SaveRepository(ctx context.Context, repo model.Repository) (bool, error)
}

// Progress carries the counters for one scrape invocation plus the resumption
// cursor. It is returned even when a scrape aborts, so callers always see how
// far the run got.
type Progress struct {
	UsersProcessed int
	UsersAdded     int
	ReposProcessed int
	ReposAdded     int

	// LastUserID is the id of the last user whose repositories were fully
	// persisted. Only meaningful when HasCursor is true.
	LastUserID int64
	HasCursor  bool
}

// Add combines the counters of two invocations, keeping the most recent
// cursor. Used by callers that resume after a rate limit reset.
func (p Progress) Add(other Progress) Progress {
	p.UsersProcessed += other.UsersProcessed
	p.UsersAdded += other.UsersAdded
	p.ReposProcessed += other.ReposProcessed
	p.ReposAdded += other.ReposAdded
	if other.HasCursor {
		p.LastUserID = other.LastUserID
		p.HasCursor = true
	}
	return p
}

// Scraper walks the GitHub users and repositories listings and persists what
// it finds. All fetching and persisting is strictly sequential: the cursor in
// the returned Progress always names the last record whose write completed.
type Scraper struct {
	client        APIClient
	store         Gateway
	logger        *slog.Logger
	usersPageSize int
	reposPageSize int
}

// NewScraper creates a Scraper. Page sizes are clamped to the API bounds.
func NewScraper(client APIClient, store Gateway, logger *slog.Logger, usersPageSize, reposPageSize int) *Scraper {
	return &Scraper{
		client:        client,
		store:         store,
		logger:        logger,
		usersPageSize: BoundPageSize(usersPageSize),
		reposPageSize: BoundPageSize(reposPageSize),
	}
}

// ScrapeIndividualUsers scrapes each named user and their repositories.
// reposPerUser bounds the repositories fetched per user; non-positive means
// all. A throttled response aborts the run; the returned ThrottledError has
// no cursor because named-user scraping has no ordering to resume from.
func (s *Scraper) ScrapeIndividualUsers(ctx context.Context, usernames []string, reposPerUser int) (Progress, error) {
	if reposPerUser < 0 {
		reposPerUser = 0
	}

	var prog Progress
	for _, username := range usernames {
		s.logger.Info("Scraping user", "login", username)

		user, err := s.client.GetUserByLogin(ctx, username)
		if err != nil {
			return prog, err
		}

		added, err := s.persistUser(ctx, user)
		if err != nil {
			return prog, err
		}
		if added {
			prog.UsersAdded++
		}
		prog.UsersProcessed++

		if err := s.scrapeUserRepositories(ctx, username, reposPerUser, &prog); err != nil {
			return prog, err
		}
	}
	return prog, nil
}

// ScrapeUsers scrapes numUsers consecutive users starting after the id
// `since`, cascading into each user's repositories. Non-positive numUsers
// means all users. On throttling, the returned ThrottledError carries the
// last fully processed id so the caller can resume with since set to it and
// the target reduced by Progress.UsersProcessed.
func (s *Scraper) ScrapeUsers(ctx context.Context, since int64, numUsers, reposPerUser int) (Progress, error) {
	if numUsers < 0 {
		numUsers = 0
	}
	if reposPerUser < 0 {
		reposPerUser = 0
	}

	plan := PlanUserPaging(numUsers, s.usersPageSize)
	s.logger.Info("Scraping user range", "since", since, "users", numUsers, "repositories_per_user", reposPerUser)
	s.logger.Debug("User page plan", "pages", plan.Pages, "page_size", plan.PageSize, "remainder", plan.Remainder)

	var prog Progress
	cursor := since
	fetchRemainder := true

	for page := 1; ; page++ {
		users, err := s.client.ListUsers(ctx, cursor, plan.PageSize)
		if err != nil {
			return prog, markResumable(err, cursor, true)
		}
		s.logger.Debug("Fetched users page", "page", page, "count", len(users))

		if err := s.processUserPage(ctx, users, reposPerUser, &prog); err != nil {
			return prog, err
		}
		if prog.HasCursor {
			cursor = prog.LastUserID
		}

		// Stop when the planned page count is reached, or when the server
		// returned a short page and has nothing more to give.
		if (plan.Pages > 0 && page >= plan.Pages) || len(users) < plan.PageSize {
			fetchRemainder = len(users) == plan.PageSize
			break
		}
	}

	if plan.Remainder > 0 && fetchRemainder {
		users, err := s.client.ListUsers(ctx, cursor, plan.Remainder)
		if err != nil {
			return prog, markResumable(err, cursor, true)
		}
		s.logger.Debug("Fetched remainder page", "count", len(users))

		if err := s.processUserPage(ctx, users, reposPerUser, &prog); err != nil {
			return prog, err
		}
	}

	return prog, nil
}

// ScrapeUserRepositories scrapes up to count repositories for one user.
// Non-positive count means all repositories.
func (s *Scraper) ScrapeUserRepositories(ctx context.Context, login string, count int) (Progress, error) {
	if count < 0 {
		count = 0
	}
	var prog Progress
	err := s.scrapeUserRepositories(ctx, login, count, &prog)
	return prog, err
}

// processUserPage persists one page of users and cascades into each user's
// repositories. The progress cursor only advances once a user's repositories
// have been fully persisted, so a throttled response mid-page resumes at the
// last completed predecessor.
func (s *Scraper) processUserPage(ctx context.Context, users []model.User, reposPerUser int, prog *Progress) error {
	for _, user := range users {
		s.logger.Info("Scraping user", "login", user.Login)

		added, err := s.persistUser(ctx, user)
		if err != nil {
			return markResumable(err, prog.LastUserID, prog.HasCursor)
		}
		if added {
			prog.UsersAdded++
		}
		prog.UsersProcessed++

		if err := s.scrapeUserRepositories(ctx, user.Login, reposPerUser, prog); err != nil {
			return markResumable(err, prog.LastUserID, prog.HasCursor)
		}

		prog.LastUserID = user.ID
		prog.HasCursor = true
	}
	return nil
}

// scrapeUserRepositories pages through one user's repositories, persisting
// each page before fetching the next.
func (s *Scraper) scrapeUserRepositories(ctx context.Context, login string, count int, prog *Progress) error {
	plan := PlanRepositoryPaging(count, s.reposPageSize)
	s.logger.Debug("Repository page plan", "login", login, "pages", plan.Pages, "page_size", plan.PageSize)

	for page := 1; ; page++ {
		repos, err := s.client.ListRepositoriesByUser(ctx, login, page, plan.PageSize)
		if err != nil {
			return err
		}
		s.logger.Debug("Fetched repositories page", "login", login, "page", page, "count", len(repos))

		for _, repo := range repos {
			s.logger.Info("Scraping repository", "full_name", repo.FullName)

			added, err := s.persistRepository(ctx, repo)
			if err != nil {
				return err
			}
			if added {
				prog.ReposAdded++
			}
			prog.ReposProcessed++
		}

		if (plan.Pages > 0 && page >= plan.Pages) || len(repos) < plan.PageSize {
			return nil
		}
	}
}

// persistUser saves a user, treating a validation failure as a skip rather
// than an abort: the record is not stored and the scrape moves on.
func (s *Scraper) persistUser(ctx context.Context, user model.User) (bool, error) {
	added, err := s.store.SaveUser(ctx, user)
	var validationErr *custom_errors.ValidationError
	if errors.As(err, &validationErr) {
		s.logger.Warn("Skipping invalid user record", "login", user.Login, "error", validationErr)
		return false, nil
	}
	return added, err
}

// persistRepository saves a repository with the same skip-on-validation rule.
func (s *Scraper) persistRepository(ctx context.Context, repo model.Repository) (bool, error) {
	added, err := s.store.SaveRepository(ctx, repo)
	var validationErr *custom_errors.ValidationError
	if errors.As(err, &validationErr) {
		s.logger.Warn("Skipping invalid repository record", "full_name", repo.FullName, "error", validationErr)
		return false, nil
	}
	return added, err
}

// markResumable attaches the resume cursor to a ThrottledError. Other errors
// pass through untouched.
func markResumable(err error, lastID int64, valid bool) error {
	var throttled *custom_errors.ThrottledError
	if valid && errors.As(err, &throttled) {
		throttled.LastID = lastID
		throttled.Resumable = true
	}
	return err
}
