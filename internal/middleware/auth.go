package middleware

import (
	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/deppfellow/civil-registry/internal/model"
	"github.com/deppfellow/civil-registry/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const authRealm = "civil-registry"

// Authenticator checks a username and password and returns the granted role.
type Authenticator interface {
	Authenticate(username, password string) (model.Role, error)
}

type AuthMiddleware struct {
	server        *server.Server
	authenticator Authenticator
}

func NewAuthMiddleware(s *server.Server, authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		server:        s,
		authenticator: authenticator,
	}
}

// RequireAuth enforces HTTP basic authentication. On success the username
// and role are stored on the echo context and added to the request logger.
func (auth *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: authRealm,
		Validator: func(username, password string, c echo.Context) (bool, error) {
			role, err := auth.authenticator.Authenticate(username, password)
			if err != nil {
				GetLogger(c).Warn().
					Str("function", "RequireAuth").
					Str("username", username).
					Msg("authentication failed")
				return false, nil
			}

			c.Set(UserIDKey, username)
			c.Set(UserRoleKey, string(role))
			setLogger(c, withUser(c, *GetLogger(c)))

			return true, nil
		},
	})
}

// RequireRole rejects authenticated callers that do not hold role.
func (auth *AuthMiddleware) RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetUserRole(c) != string(role) {
				GetLogger(c).Warn().
					Str("function", "RequireRole").
					Str("required_role", string(role)).
					Msg("insufficient role")
				return errs.NewForbiddenError("Insufficient permissions", false)
			}
			return next(c)
		}
	}
}
