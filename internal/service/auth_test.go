package service

import (
	"testing"

	"github.com/deppfellow/civil-registry/internal/config"
	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{
		AdminUsername:     "admin",
		AdminPasswordHash: hash(t, "admin-secret"),
		UserUsername:      "registrar",
		UserPasswordHash:  hash(t, "user-secret"),
	})

	role, err := auth.Authenticate("admin", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)

	role, err = auth.Authenticate("registrar", "user-secret")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	for _, tc := range [][2]string{{"admin", "user-secret"}, {"nobody", "admin-secret"}, {"", ""}} {
		_, err := auth.Authenticate(tc[0], tc[1])
		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 401, httpErr.Status)
	}
}
