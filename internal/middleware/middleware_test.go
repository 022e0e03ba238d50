package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

const testSecret = "test-secret"

// issueToken signs an identity token for user, valid for ttl.
func issueToken(secret string, user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    user.Email,
		Name:     user.Name,
		Provider: user.AuthProvider,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestIdentity(t *testing.T) {
	token, err := issueToken(testSecret, &model.User{ID: "u-42", Email: "a@b.c", AuthProvider: model.AuthProviderGoogle}, time.Hour)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	otherToken, _ := issueToken("other-secret", &model.User{ID: "u-42"}, time.Hour)
	expired, _ := issueToken(testSecret, &model.User{ID: "u-42"}, -time.Minute)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"guest", "", http.StatusOK, ""},
		{"valid token", "Bearer " + token, http.StatusOK, "u-42"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "u-42"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + otherToken, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized, ""},
	}

	h := Identity(testSecret)(echoUser())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantUser {
				t.Errorf("expected user %q, got %q", tt.wantUser, rec.Body.String())
			}
		})
	}
}

func TestIdentityCarriesProfile(t *testing.T) {
	token, _ := issueToken(testSecret, &model.User{ID: "u-1", Email: "x@y.z", Name: "Sam", AuthProvider: model.AuthProviderGoogle}, time.Hour)

	var got *model.User
	h := Identity(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected a user in context")
	}
	if got.Email != "x@y.z" || got.Name != "Sam" || got.AuthProvider != model.AuthProviderGoogle {
		t.Errorf("unexpected user %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt from the token issue time")
	}
}

func TestLoggingCorrelationID(t *testing.T) {
	log, _ := logger.New("error")

	r := chi.NewRouter()
	r.Use(Logging(log))
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetCorrelationID(r.Context())))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get("X-Correlation-ID") != "corr-1" {
		t.Errorf("expected echoed correlation id, got %q", rec.Header().Get("X-Correlation-ID"))
	}
	if rec.Body.String() != "corr-1" {
		t.Errorf("expected correlation id in context, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected a generated correlation id")
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateMessageContent("hello"); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}
	for _, bad := range []string{"", "   ", strings.Repeat("a", maxMessageLength+1), "\xff"} {
		if ValidateMessageContent(bad) == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}

	if err := ValidateCategory(model.CategoryBooks); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}
	if ValidateCategory("") == nil || ValidateCategory("cooking") == nil {
		t.Error("expected empty and unknown categories to be rejected")
	}

	if err := ValidateSessionID(""); err != nil {
		t.Errorf("empty session id should be allowed: %v", err)
	}
	if ValidateSessionID(strings.Repeat("x", maxIDLength+1)) == nil {
		t.Error("expected long session id to be rejected")
	}
}
