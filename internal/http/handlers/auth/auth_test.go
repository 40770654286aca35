package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bloghub/posts-service/internal/storage/memory"
	"github.com/bloghub/posts-service/internal/types/users"
	"github.com/bloghub/posts-service/internal/utils/jwt"
)

const testSecret = "test_secret"

func doJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSignUp(t *testing.T) {
	store := memory.NewMemory()
	handler := SignUp(store, testSecret)

	rec := doJSON(t, handler, users.SignUpRequest{Email: "alice@example.com", Password: "hunter22"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp users.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.User.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", resp.User.Email)
	}
	if resp.User.ID == 0 {
		t.Error("Expected a generated user id")
	}

	claims, err := jwt.VerifyToken(resp.Token, testSecret)
	if err != nil {
		t.Fatalf("Expected signup token to verify: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Email != resp.User.Email {
		t.Errorf("Token claims %+v don't match user %+v", claims, resp.User)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	store := memory.NewMemory()
	handler := SignUp(store, testSecret)

	first := doJSON(t, handler, users.SignUpRequest{Email: "alice@example.com", Password: "hunter22"})
	if first.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", first.Code)
	}

	second := doJSON(t, handler, users.SignUpRequest{Email: "alice@example.com", Password: "different"})
	if second.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for duplicate email, got %d", second.Code)
	}

	// The failed signup must not have created a second row
	user, _, err := store.GetUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("Expected the original user row to survive, got id %d", user.ID)
	}
}

func TestSignUp_Validation(t *testing.T) {
	store := memory.NewMemory()
	handler := SignUp(store, testSecret)

	tests := []struct {
		name string
		req  users.SignUpRequest
	}{
		{"missing email", users.SignUpRequest{Password: "hunter22"}},
		{"bad email", users.SignUpRequest{Email: "not-an-email", Password: "hunter22"}},
		{"short password", users.SignUpRequest{Email: "alice@example.com", Password: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	store := memory.NewMemory()

	signup := doJSON(t, SignUp(store, testSecret), users.SignUpRequest{Email: "alice@example.com", Password: "hunter22"})
	if signup.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", signup.Code)
	}

	rec := doJSON(t, Login(store, testSecret), users.SignInRequest{Email: "alice@example.com", Password: "hunter22"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp users.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if _, err := jwt.VerifyToken(resp.Token, testSecret); err != nil {
		t.Fatalf("Expected login token to verify: %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	store := memory.NewMemory()

	rec := doJSON(t, Login(store, testSecret), users.SignInRequest{Email: "nobody@example.com", Password: "hunter22"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for unknown email, got %d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := memory.NewMemory()

	signup := doJSON(t, SignUp(store, testSecret), users.SignUpRequest{Email: "alice@example.com", Password: "hunter22"})
	if signup.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", signup.Code)
	}

	rec := doJSON(t, Login(store, testSecret), users.SignInRequest{Email: "alice@example.com", Password: "wrongpass"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 for wrong password, got %d", rec.Code)
	}
}
