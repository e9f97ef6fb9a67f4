package jwtware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-credentials/middleware/jwtware"
)

type testClaims struct {
	sub   string
	roles []string
}

func (c testClaims) Subject() string { return c.sub }

func (c testClaims) HasRole(role string) bool { return slices.Contains(c.roles, role) }

// staticValidator accepts a single token
func staticValidator(valid string, claims testClaims) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(token string) (jwtware.AuthClaims, error) {
		if token != valid {
			return nil, errors.New("token is malformed")
		}
		return claims, nil
	})
}

func newServer() router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(app *fiber.App) *fiber.App {
		return app
	})
}

func newApp(cfg jwtware.Config, routes ...string) *fiber.App {
	srv := newServer()
	key := cfg.ContextKey
	if key == "" {
		key = "user"
	}
	handler := func(ctx router.Context) error {
		claims, ok := ctx.Locals(key).(jwtware.AuthClaims)
		if !ok {
			return ctx.NoContent(router.StatusTeapot)
		}
		return ctx.SendString(claims.Subject())
	}

	if len(routes) == 0 {
		routes = []string{"/"}
	}
	for _, r := range routes {
		srv.Router().Get(r, handler, jwtware.New(cfg))
	}
	return srv.WrappedRouter()
}

func run(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: staticValidator("good", testClaims{sub: "a@x.com"}),
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid bearer", "Bearer good", http.StatusOK, "a@x.com"},
		{"scheme is case insensitive", "bearer good", http.StatusOK, "a@x.com"},
		{"missing header", "", http.StatusBadRequest, "missing or malformed JWT"},
		{"wrong scheme", "Basic good", http.StatusBadRequest, "missing or malformed JWT"},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(router.HeaderAuthorization, tt.header)
			}
			status, body := run(t, app, req)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	validator := staticValidator("good", testClaims{sub: "a@x.com"})

	t.Run("query", func(t *testing.T) {
		app := newApp(jwtware.Config{TokenValidator: validator, TokenLookup: "query:auth_token"})
		status, _ := run(t, app, httptest.NewRequest(http.MethodGet, "/?auth_token=good", nil))
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("cookie", func(t *testing.T) {
		app := newApp(jwtware.Config{TokenValidator: validator, TokenLookup: "cookie:jwt"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: "good"})
		status, _ := run(t, app, req)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("param", func(t *testing.T) {
		app := newApp(jwtware.Config{TokenValidator: validator, TokenLookup: "param:token"}, "/t/:token")
		status, _ := run(t, app, httptest.NewRequest(http.MethodGet, "/t/good", nil))
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("falls through sources", func(t *testing.T) {
		app := newApp(jwtware.Config{TokenValidator: validator, TokenLookup: "header:Authorization,query:auth_token"})
		status, _ := run(t, app, httptest.NewRequest(http.MethodGet, "/?auth_token=good", nil))
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestJWTWare_FilterFunction(t *testing.T) {
	srv := newServer()
	r := srv.Router().Use(jwtware.New(jwtware.Config{
		TokenValidator: staticValidator("good", testClaims{}),
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/public"
		},
	}))
	r.Get("/public", func(ctx router.Context) error { return ctx.SendString("open") })
	r.Get("/private", func(ctx router.Context) error { return ctx.SendString("closed") })

	status, body := run(t, srv.WrappedRouter(), httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "open", body)

	status, _ = run(t, srv.WrappedRouter(), httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestJWTWare_RequiredRole(t *testing.T) {
	validator := staticValidator("good", testClaims{sub: "a@x.com", roles: []string{"User"}})

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(router.HeaderAuthorization, "Bearer good")
		return r
	}

	status, _ := run(t, newApp(jwtware.Config{TokenValidator: validator, RequiredRole: "User"}), req())
	assert.Equal(t, http.StatusOK, status)

	status, body := run(t, newApp(jwtware.Config{TokenValidator: validator, RequiredRole: "Admin"}), req())
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", body)

	checked := ""
	status, _ = run(t, newApp(jwtware.Config{
		TokenValidator: validator,
		RequiredRole:   "Admin",
		RoleChecker: func(claims jwtware.AuthClaims, role string) bool {
			checked = role
			return claims.Subject() == "a@x.com"
		},
	}), req())
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Admin", checked)
}

func TestJWTWare_ListenersAndEnricher(t *testing.T) {
	type ctxKey struct{}
	validator := staticValidator("good", testClaims{sub: "a@x.com"})

	var seen []string
	srv := newServer()
	srv.Router().Get("/", func(ctx router.Context) error {
		v, _ := ctx.Context().Value(ctxKey{}).(string)
		return ctx.SendString(v)
	}, jwtware.New(jwtware.Config{
		TokenValidator: validator,
		ContextKey:     "claims",
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				seen = append(seen, claims.Subject())
				return nil
			},
		},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			return context.WithValue(ctx, ctxKey{}, claims.Subject())
		},
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(router.HeaderAuthorization, "Bearer good")
	status, body := run(t, srv.WrappedRouter(), r)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@x.com", body)
	assert.Equal(t, []string{"a@x.com"}, seen)

	rejecting := newApp(jwtware.Config{
		TokenValidator: validator,
		ValidationListeners: []jwtware.ValidationListener{
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				return errors.New("session revoked")
			},
		},
	})
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(router.HeaderAuthorization, "Bearer good")
	status, _ = run(t, rejecting, r)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestJWTWare_CustomErrorHandler(t *testing.T) {
	app := newApp(jwtware.Config{
		TokenValidator: staticValidator("good", testClaims{}),
		ErrorHandler: func(ctx router.Context, err error) error {
			return ctx.Status(router.StatusUnauthorized).SendString("custom: " + err.Error())
		},
	})

	status, body := run(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "custom: missing or malformed JWT", body)
}

func TestJWTWare_CustomSuccessHandler(t *testing.T) {
	srv := newServer()
	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.SendString("handler")
	}, jwtware.New(jwtware.Config{
		TokenValidator: staticValidator("good", testClaims{sub: "a@x.com"}),
		SuccessHandler: func(ctx router.Context) error {
			return ctx.SendString("success")
		},
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(router.HeaderAuthorization, "Bearer good")
	status, body := run(t, srv.WrappedRouter(), r)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body)
}

func TestJWTWare_RequiresValidator(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.New(jwtware.Config{})
	})
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization, cookie:jwt, bogus, query:token")
	assert.Len(t, extractors, 3)

	assert.Empty(t, jwtware.GetExtractors(""))
}
