// internal/model/models_test.go
package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-scraper/internal/errors"
)

func validUser() User {
	return User{ID: 42, Login: "alice", URL: "https://github.com/alice"}
}

func validRepository() Repository {
	return Repository{
		ID:       7,
		Owner:    validUser(),
		FullName: "alice/dotfiles",
		Name:     "dotfiles",
		URL:      "https://github.com/alice/dotfiles",
	}
}

func TestUserValidate(t *testing.T) {
	assert.NoError(t, validUser().Validate())

	tests := []struct {
		name   string
		mutate func(*User)
		field  string
	}{
		{name: "zero id", mutate: func(u *User) { u.ID = 0 }, field: "id"},
		{name: "negative id", mutate: func(u *User) { u.ID = -5 }, field: "id"},
		{name: "empty login", mutate: func(u *User) { u.Login = "" }, field: "login"},
		{name: "overlong login", mutate: func(u *User) { u.Login = strings.Repeat("x", 40) }, field: "login"},
		{name: "empty url", mutate: func(u *User) { u.URL = "" }, field: "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := validUser()
			tt.mutate(&u)

			err := u.Validate()

			var validationErr *custom_errors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "user", validationErr.Entity)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestUserValidate_LoginAtBound(t *testing.T) {
	u := validUser()
	u.Login = strings.Repeat("x", MaxLoginLength)
	assert.NoError(t, u.Validate())
}

func TestRepositoryValidate(t *testing.T) {
	assert.NoError(t, validRepository().Validate())

	t.Run("description may be empty", func(t *testing.T) {
		r := validRepository()
		r.Description = nil
		assert.NoError(t, r.Validate())
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Repository)
			field  string
		}{
			{name: "zero id", mutate: func(r *Repository) { r.ID = 0 }, field: "id"},
			{name: "empty name", mutate: func(r *Repository) { r.Name = "" }, field: "name"},
			{name: "empty full name", mutate: func(r *Repository) { r.FullName = "" }, field: "full_name"},
			{name: "empty url", mutate: func(r *Repository) { r.URL = "" }, field: "url"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := validRepository()
				tt.mutate(&r)

				err := r.Validate()

				var validationErr *custom_errors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.field, validationErr.Field)
			})
		}
	})

	t.Run("invalid owner fails the repository", func(t *testing.T) {
		r := validRepository()
		r.Owner.ID = 0

		err := r.Validate()

		var validationErr *custom_errors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "user", validationErr.Entity)
	})
}
