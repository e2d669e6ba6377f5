package service

import (
	"crypto/subtle"

	"github.com/deppfellow/civil-registry/internal/config"
	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the cost of an unknown username close to a known one.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("registry-dummy-password"), bcrypt.DefaultCost)

type account struct {
	username     string
	passwordHash []byte
	role         model.Role
}

// AuthService checks API credentials against the bcrypt hashes configured
// for the admin and user accounts.
type AuthService struct {
	accounts []account
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		accounts: []account{
			{username: cfg.AdminUsername, passwordHash: []byte(cfg.AdminPasswordHash), role: model.RoleAdmin},
			{username: cfg.UserUsername, passwordHash: []byte(cfg.UserPasswordHash), role: model.RoleUser},
		},
	}
}

// Authenticate returns the role of the matching account, or a 401 error.
func (s *AuthService) Authenticate(username, password string) (model.Role, error) {
	for _, a := range s.accounts {
		if subtle.ConstantTimeCompare([]byte(a.username), []byte(username)) != 1 {
			continue
		}
		if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
			return "", errs.NewUnauthorizedError("Invalid username or password", true)
		}
		return a.role, nil
	}

	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return "", errs.NewUnauthorizedError("Invalid username or password", true)
}
