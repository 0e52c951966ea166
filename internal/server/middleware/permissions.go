package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

const (
	PermClaimCreate   = "claim.create"
	PermClaimView     = "claim.view"
	PermClaimDelete   = "claim.delete"
	PermSourceAdd     = "source.add"
	PermSourceView    = "source.view"
	PermAnswerCreate  = "answer.create"
	PermAnswerView    = "answer.view"
	PermGraphCreate   = "graph.create"
	PermSummaryCreate = "summary.create"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AllPermissions is granted to the master key and to admins whose token
// lists none.
var AllPermissions = []string{
	PermClaimCreate,
	PermClaimView,
	PermClaimDelete,
	PermSourceAdd,
	PermSourceView,
	PermAnswerCreate,
	PermAnswerView,
	PermGraphCreate,
	PermSummaryCreate,
}

func HasPermission(user *AppUser, permission string) bool {
	return user != nil && slices.Contains(user.Permissions, permission)
}

func HasAnyPermission(user *AppUser, permissions ...string) bool {
	return slices.ContainsFunc(permissions, func(p string) bool {
		return HasPermission(user, p)
	})
}

func IsAdmin(user *AppUser) bool {
	return user != nil && user.Role == RoleAdmin
}

// guard rejects requests without a user with 401 and requests whose user
// fails allowed with 403.
func guard(allowed func(*AppUser) bool, forbidden string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !allowed(user) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": forbidden})
			}
			return next(c)
		}
	}
}

func RequirePermission(permission string) echo.MiddlewareFunc {
	return guard(func(u *AppUser) bool {
		return HasPermission(u, permission)
	}, "Forbidden: missing permission "+permission)
}

func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return guard(func(u *AppUser) bool {
		return HasAnyPermission(u, permissions...)
	}, "Forbidden: missing required permission")
}

// RequireAdmin guards operations that touch every claim at once.
func RequireAdmin() echo.MiddlewareFunc {
	return guard(IsAdmin, "Forbidden: admin only")
}
