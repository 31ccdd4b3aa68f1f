package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seoulmarket/api/internal/domain"
)

type stubVerifier struct {
	identity *Identity
	err      error
}

func (s stubVerifier) Verify(string) (*Identity, error) {
	return s.identity, s.err
}

func okHandler(captured **Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			identity, _ := IdentityFromContext(r.Context())
			*captured = identity
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuthMissingHeader(t *testing.T) {
	authenticator := NewAuthenticator(stubVerifier{identity: &Identity{UserID: "usr_1", Role: domain.RoleConsumer}})
	handler := authenticator.RequireAuth()(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	authenticator := NewAuthenticator(stubVerifier{err: ErrTokenExpired})
	handler := authenticator.RequireAuth()(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRoleMismatch(t *testing.T) {
	authenticator := NewAuthenticator(stubVerifier{identity: &Identity{UserID: "usr_1", Role: domain.RoleConsumer}})
	handler := authenticator.RequireAuth(domain.RoleAdmin)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAuthInjectsIdentity(t *testing.T) {
	want := &Identity{UserID: "usr_9", Role: domain.RoleProvider}
	authenticator := NewAuthenticator(stubVerifier{identity: want})

	var captured *Identity
	handler := authenticator.RequireAuth(domain.RoleProvider, domain.RoleAdmin)(okHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/provider/orders", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if captured == nil || captured.UserID != "usr_9" {
		t.Fatalf("identity not propagated: %+v", captured)
	}
}
