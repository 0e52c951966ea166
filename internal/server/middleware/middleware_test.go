package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func serve(app *App, authHeader string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(AppContextMiddleware(app))
	e.GET("/", handler, AuthMiddleware, RequirePermission("claim.view"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	app := &App{MasterAPIKey: "secret"}
	ok := func(c echo.Context) error {
		user := c.(*AppContext).User
		return c.String(http.StatusOK, user.UserID+":"+user.Role)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong key without jwks", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "master key", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.header, ok)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	rec := serve(app, "Bearer secret", ok)
	if rec.Body.String() != "master:admin" {
		t.Fatalf("unexpected user %q", rec.Body.String())
	}
}

func TestUserFromClaims(t *testing.T) {
	user, ok := userFromClaims(jwt.MapClaims{"id": float64(42), "permissions": []any{"claim.view", 3}})
	if !ok || user.UserID != "42" || user.Role != "user" || len(user.Permissions) != 1 {
		t.Fatalf("unexpected user %+v", user)
	}

	user, ok = userFromClaims(jwt.MapClaims{"sub": "u-1", "role": "admin"})
	if !ok || user.UserID != "u-1" || !HasPermission(user, "graph.create") {
		t.Fatalf("admin without permissions should get all, got %+v", user)
	}

	if _, ok := userFromClaims(jwt.MapClaims{"role": "user"}); ok {
		t.Fatal("expected missing id to be rejected")
	}
}

func TestPermissions(t *testing.T) {
	user := &AppUser{Role: "user", Permissions: []string{"claim.view"}}
	if !HasPermission(user, "claim.view") || HasPermission(user, "claim.delete") {
		t.Fatal("unexpected HasPermission result")
	}
	if !HasAnyPermission(user, "claim.delete", "claim.view") {
		t.Fatal("expected HasAnyPermission to match")
	}
	if HasPermission(nil, "claim.view") || IsAdmin(nil) || IsAdmin(user) {
		t.Fatal("nil or plain users must not pass")
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	e.Use(AppContextMiddleware(&App{MasterAPIKey: "secret"}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Plain") != "" {
				c.(*AppContext).User = &AppUser{UserID: "u", Role: RoleUser, Permissions: AllPermissions}
				return next(c)
			}
			return AuthMiddleware(next)(c)
		}
	})
	e.DELETE("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireAdmin())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected master key to pass, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-Plain", "1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}
