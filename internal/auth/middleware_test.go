package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mcollection/storefront/internal/domain"
)

type fakeSessionStore struct {
	sessions map[string]Identity
}

func (f *fakeSessionStore) Create(_ context.Context, id Identity, _ time.Duration) (string, error) {
	token := "token-" + id.UserID
	if f.sessions == nil {
		f.sessions = map[string]Identity{}
	}
	f.sessions[token] = id
	return token, nil
}

func (f *fakeSessionStore) Get(_ context.Context, token string) (Identity, error) {
	id, ok := f.sessions[token]
	if !ok {
		return Identity{}, ErrSessionNotFound
	}
	return id, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func testMiddleware(t *testing.T) (*Middleware, *fakeSessionStore) {
	t.Helper()
	store := &fakeSessionStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMiddleware(store, logger), store
}

func identityEcho(t *testing.T, got *Identity) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := FromContext(r.Context()); ok {
			*got = id
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireUser(t *testing.T) {
	mw, store := testMiddleware(t)

	token, err := store.Create(context.Background(), Identity{UserID: "u1", Role: domain.RoleUser}, time.Hour)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	t.Run("no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		rec := httptest.NewRecorder()

		mw.RequireUser(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		})(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()

		mw.RequireUser(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		})(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("valid token injects identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		var got Identity
		mw.RequireUser(identityEcho(t, &got))(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if got.UserID != "u1" {
			t.Fatalf("expected identity u1, got %+v", got)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	mw, store := testMiddleware(t)

	userToken, _ := store.Create(context.Background(), Identity{UserID: "u1", Role: domain.RoleUser}, time.Hour)
	adminToken, _ := store.Create(context.Background(), Identity{UserID: "a1", Role: domain.RoleAdmin}, time.Hour)

	t.Run("regular user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		rec := httptest.NewRecorder()

		mw.RequireAdmin(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		})(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
		}
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()

		var got Identity
		mw.RequireAdmin(identityEcho(t, &got))(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if !got.IsAdmin() {
			t.Fatalf("expected admin identity, got %+v", got)
		}
	})
}

func TestWithIdentity(t *testing.T) {
	mw, store := testMiddleware(t)

	token, _ := store.Create(context.Background(), Identity{UserID: "u1", Role: domain.RoleUser}, time.Hour)

	t.Run("guest passes through without identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		rec := httptest.NewRecorder()

		ran := false
		mw.WithIdentity(func(w http.ResponseWriter, r *http.Request) {
			ran = true
			if _, ok := FromContext(r.Context()); ok {
				t.Fatal("expected no identity for guest")
			}
		})(rec, req)

		if !ran {
			t.Fatal("expected handler to run")
		}
	})

	t.Run("token attaches identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		var got Identity
		mw.WithIdentity(identityEcho(t, &got))(rec, req)

		if got.UserID != "u1" {
			t.Fatalf("expected identity u1, got %+v", got)
		}
	})
}
