package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bloghub/posts-service/internal/utils/jwt"
)

const testSecret = "test_secret"

func protectedHandler(t *testing.T, wantID int64, wantEmail string, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok {
			t.Error("Expected identity on the request context")
			return
		}
		if identity.UserID != wantID {
			t.Errorf("Expected user ID %d, got %d", wantID, identity.UserID)
		}
		if identity.Email != wantEmail {
			t.Errorf("Expected email %s, got %s", wantEmail, identity.Email)
		}
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token, err := jwt.CreateToken(42, "alice@example.com", testSecret)
	if err != nil {
		t.Fatalf("Unexpected error creating token: %v", err)
	}

	called := false
	handler := AuthMiddleware(testSecret)(protectedHandler(t, 42, "alice@example.com", &called))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("Expected handler to be called for valid token")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if called {
				t.Fatal("Expected handler not to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_BadSignature(t *testing.T) {
	token, err := jwt.CreateToken(1, "bob@example.com", "other_secret")
	if err != nil {
		t.Fatalf("Unexpected error creating token: %v", err)
	}

	handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run for a badly-signed token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rec.Code)
	}
}
