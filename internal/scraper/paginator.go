// internal/scraper/paginator.go
package scraper

const (
	// MinPageSize and MaxPageSize are the bounds GitHub enforces on per_page.
	MinPageSize = 1
	MaxPageSize = 100

	// DefaultUsersPageSize and DefaultReposPageSize match the page sizes used
	// when no configuration is provided.
	DefaultUsersPageSize = 50
	DefaultReposPageSize = 30
)

// BoundPageSize clamps a requested page size to [MinPageSize, MaxPageSize].
func BoundPageSize(requested int) int {
	if requested < MinPageSize {
		return MinPageSize
	}
	if requested > MaxPageSize {
		return MaxPageSize
	}
	return requested
}

// UserPagePlan describes how to page through a user range to fetch an exact
// number of users. Pages == 0 means no fixed page limit: keep paging until
// the server returns a short page.
type UserPagePlan struct {
	Pages     int
	Remainder int
	PageSize  int
}

// PlanUserPaging computes the page plan for fetching totalUsers users with
// the given page size. A non-positive totalUsers means "all users". If the
// target is smaller than a page, a single page of exactly that size is
// planned. Any remainder after whole pages is fetched as one trailing page of
// that exact size.
func PlanUserPaging(totalUsers, pageSize int) UserPagePlan {
	if totalUsers <= 0 {
		return UserPagePlan{Pages: 0, Remainder: 0, PageSize: pageSize}
	}

	if totalUsers < pageSize {
		return UserPagePlan{Pages: 1, Remainder: 0, PageSize: totalUsers}
	}

	return UserPagePlan{
		Pages:     totalUsers / pageSize,
		Remainder: totalUsers % pageSize,
		PageSize:  pageSize,
	}
}

// RepoPagePlan describes how to page through a user's repositories. Pages == 0
// means no fixed page limit.
type RepoPagePlan struct {
	Pages    int
	PageSize int
}

// PlanRepositoryPaging computes the page plan for fetching exactly
// totalRepositories repositories. A non-positive total means "all".
//
// The repositories listing has no way to ask for an exact total: a plain
// ceiling division can overshoot on the final page and fetch more than was
// requested. So the page size is chosen from the exact divisors of the total,
// picking the divisor closest to preferredPageSize (ties go to the smaller
// divisor). The pages then multiply out to exactly the requested total.
func PlanRepositoryPaging(totalRepositories, preferredPageSize int) RepoPagePlan {
	if totalRepositories <= 0 {
		return RepoPagePlan{Pages: 0, PageSize: preferredPageSize}
	}

	pageSize := closestDivisor(totalRepositories, preferredPageSize)
	return RepoPagePlan{
		Pages:    (totalRepositories + pageSize - 1) / pageSize,
		PageSize: pageSize,
	}
}

// closestDivisor returns the divisor of n nearest to target, preferring the
// smaller divisor on ties.
func closestDivisor(n, target int) int {
	best := 1
	bestDistance := abs(1 - target)
	for d := 2; d <= n; d++ {
		if n%d != 0 {
			continue
		}
		if distance := abs(d - target); distance < bestDistance {
			best = d
			bestDistance = distance
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
