// internal/model/models.go
package model

import (
	custom_errors "github-scraper/internal/errors"
)

// MaxLoginLength is GitHub's documented upper bound on usernames.
const MaxLoginLength = 39

// User represents a GitHub user as stored by the scraper. ID is the numeric
// id assigned by GitHub and is the primary key; rows are never updated after
// the first insert.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	URL   string `json:"url"`
}

// Validate checks the required fields before the record crosses the
// persistence boundary.
func (u User) Validate() error {
	if u.ID <= 0 {
		return &custom_errors.ValidationError{Entity: "user", Field: "id", Reason: "must be positive"}
	}
	if u.Login == "" {
		return &custom_errors.ValidationError{Entity: "user", Field: "login", Reason: "is required"}
	}
	if len(u.Login) > MaxLoginLength {
		return &custom_errors.ValidationError{Entity: "user", Field: "login", Reason: "exceeds 39 characters"}
	}
	if u.URL == "" {
		return &custom_errors.ValidationError{Entity: "user", Field: "url", Reason: "is required"}
	}
	return nil
}

// Repository represents a GitHub repository and its owning user. ID is the
// numeric id assigned by GitHub. FullName is `owner-login/name` and unique.
type Repository struct {
	ID          int64   `json:"id"`
	Owner       User    `json:"owner"`
	FullName    string  `json:"full_name"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
}

// Validate checks the repository and its embedded owner. A repository without
// a valid owner can never satisfy the foreign key, so it is rejected here.
func (r Repository) Validate() error {
	if r.ID <= 0 {
		return &custom_errors.ValidationError{Entity: "repository", Field: "id", Reason: "must be positive"}
	}
	if r.Name == "" {
		return &custom_errors.ValidationError{Entity: "repository", Field: "name", Reason: "is required"}
	}
	if r.FullName == "" {
		return &custom_errors.ValidationError{Entity: "repository", Field: "full_name", Reason: "is required"}
	}
	if r.URL == "" {
		return &custom_errors.ValidationError{Entity: "repository", Field: "url", Reason: "is required"}
	}
	return r.Owner.Validate()
}
