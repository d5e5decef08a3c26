package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/supporthub/internal/actorctx"
	"github.com/geocoder89/supporthub/internal/apperr"
	"github.com/geocoder89/supporthub/internal/domain/user"
	"github.com/geocoder89/supporthub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeAccounts struct {
	registerFn   func(ctx context.Context, req user.RegisterRequest) (user.User, string, error)
	loginFn      func(ctx context.Context, req user.LoginRequest) (user.User, string, error)
	adminLoginFn func(ctx context.Context, req user.LoginRequest) (user.User, string, error)
	logoutFn     func(ctx context.Context, sessionID string) error
	getMeFn      func(ctx context.Context, userID string) (user.User, error)
}

func (f *fakeAccounts) Register(ctx context.Context, req user.RegisterRequest) (user.User, string, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return user.User{}, "", nil
}

func (f *fakeAccounts) Login(ctx context.Context, req user.LoginRequest) (user.User, string, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, req)
	}
	return user.User{}, "", nil
}

func (f *fakeAccounts) AdminLogin(ctx context.Context, req user.LoginRequest) (user.User, string, error) {
	if f.adminLoginFn != nil {
		return f.adminLoginFn(ctx, req)
	}
	return user.User{}, "", nil
}

func (f *fakeAccounts) Logout(ctx context.Context, sessionID string) error {
	if f.logoutFn != nil {
		return f.logoutFn(ctx, sessionID)
	}
	return nil
}

func (f *fakeAccounts) GetMe(ctx context.Context, userID string) (user.User, error) {
	if f.getMeFn != nil {
		return f.getMeFn(ctx, userID)
	}
	return user.User{}, nil
}

type fakeUsers struct {
	listFn       func(ctx context.Context, page int) (user.Page, error)
	searchFn     func(ctx context.Context, query string) ([]user.Summary, error)
	getFn        func(ctx context.Context, id string) (user.Detail, error)
	updateRoleFn func(ctx context.Context, id, role string) (user.User, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (f *fakeUsers) ListUsers(ctx context.Context, page int) (user.Page, error) {
	if f.listFn != nil {
		return f.listFn(ctx, page)
	}
	return user.Page{}, nil
}

func (f *fakeUsers) SearchUsers(ctx context.Context, query string) ([]user.Summary, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, query)
	}
	return []user.Summary{}, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (user.Detail, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.Detail{}, nil
}

func (f *fakeUsers) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	if f.updateRoleFn != nil {
		return f.updateRoleFn(ctx, id, role)
	}
	return user.User{}, nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

// withActor stands in for the auth middleware.
func withActor(a actorctx.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), a))
		c.Next()
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		loginErr       error
		wantStatusCode int
	}{
		{name: "success", body: `{"email":"alice@example.com","password":"secret123"}`, wantStatusCode: http.StatusOK},
		{name: "wrong_password", body: `{"email":"alice@example.com","password":"nope"}`, loginErr: apperr.Unauthenticated("invalid credentials"), wantStatusCode: http.StatusUnauthorized},
		{name: "missing_email", body: `{"password":"secret123"}`, wantStatusCode: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAccounts{loginFn: func(ctx context.Context, req user.LoginRequest) (user.User, string, error) {
				if tt.loginErr != nil {
					return user.User{}, "", tt.loginErr
				}
				return user.User{ID: "u1", Email: req.Email, Role: user.RoleUser, CreatedAt: time.Now()}, "tok", nil
			}}

			h := handlers.NewAuthHandler(fake)
			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			w := serve(r, http.MethodPost, "/auth/login", tt.body)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if w.Code == http.StatusOK {
				var resp struct {
					Token string         `json:"token"`
					User  map[string]any `json:"user"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Token != "tok" {
					t.Fatalf("token %q", resp.Token)
				}
				if _, leaked := resp.User["password_hash"]; leaked {
					t.Fatalf("password hash serialised: %s", w.Body.String())
				}
			}
		})
	}
}

func TestAdminLoginHandler_NonAdmin(t *testing.T) {
	fake := &fakeAccounts{adminLoginFn: func(ctx context.Context, req user.LoginRequest) (user.User, string, error) {
		return user.User{}, "", apperr.Forbidden("not an admin")
	}}

	h := handlers.NewAuthHandler(fake)
	r := setupRouter(http.MethodPost, "/admin/login", h.AdminLogin)

	w := serve(r, http.MethodPost, "/admin/login", `{"email":"alice@example.com","password":"secret123"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("got %d want 403", w.Code)
	}

	var resp handlers.APIError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Access denied. Admin privileges required." {
		t.Fatalf("message %q", resp.Message)
	}
}

func TestLogoutHandler_RevokesPresentedSession(t *testing.T) {
	var revoked string
	fake := &fakeAccounts{logoutFn: func(ctx context.Context, sessionID string) error {
		revoked = sessionID
		return nil
	}}

	h := handlers.NewAuthHandler(fake)

	r := gin.New()
	r.POST("/auth/logout", withActor(actorctx.Actor{UserID: "u1", Role: user.RoleUser, SessionID: "s-42"}), h.Logout)
	r.POST("/anon/logout", h.Logout)

	if w := serve(r, http.MethodPost, "/auth/logout", ""); w.Code != http.StatusOK {
		t.Fatalf("got %d want 200", w.Code)
	}
	if revoked != "s-42" {
		t.Fatalf("revoked %q", revoked)
	}

	if w := serve(r, http.MethodPost, "/anon/logout", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", w.Code)
	}
}

func TestUsersHandler_RoleAndDelete(t *testing.T) {
	fake := &fakeUsers{
		updateRoleFn: func(ctx context.Context, id, role string) (user.User, error) {
			if id == "last-admin" {
				return user.User{}, user.ErrLastAdmin
			}
			return user.User{ID: id, Role: role}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			switch id {
			case "last-admin":
				return user.ErrLastAdmin
			case "ghost":
				return user.ErrNotFound
			}
			return nil
		},
	}

	h := handlers.NewUsersHandler(fake)
	r := gin.New()
	r.PUT("/admin/users/:id/role", h.UpdateRole)
	r.DELETE("/admin/users/:id", h.Delete)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		wantStatusCode int
	}{
		{name: "promote", method: http.MethodPut, path: "/admin/users/u1/role", body: `{"role":"admin"}`, wantStatusCode: http.StatusOK},
		{name: "bad_role", method: http.MethodPut, path: "/admin/users/u1/role", body: `{"role":"owner"}`, wantStatusCode: http.StatusUnprocessableEntity},
		{name: "demote_last_admin", method: http.MethodPut, path: "/admin/users/last-admin/role", body: `{"role":"user"}`, wantStatusCode: http.StatusForbidden},
		{name: "delete", method: http.MethodDelete, path: "/admin/users/u1", wantStatusCode: http.StatusNoContent},
		{name: "delete_last_admin", method: http.MethodDelete, path: "/admin/users/last-admin", wantStatusCode: http.StatusForbidden},
		{name: "delete_unknown", method: http.MethodDelete, path: "/admin/users/ghost", wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestSearchUsersHandler_ShortQuery(t *testing.T) {
	fake := &fakeUsers{searchFn: func(ctx context.Context, query string) ([]user.Summary, error) {
		if len(query) < 2 {
			return nil, apperr.Field("query", "must be at least 2 characters")
		}
		return []user.Summary{{ID: "u1", Name: "Alice"}}, nil
	}}

	h := handlers.NewUsersHandler(fake)
	r := setupRouter(http.MethodGet, "/admin/users/search", h.Search)

	if w := serve(r, http.MethodGet, "/admin/users/search?query=a", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("got %d want 400", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin/users/search?query=al", ""); w.Code != http.StatusOK {
		t.Fatalf("got %d want 200", w.Code)
	}
}
