package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/catalog/internal/model"
)

type mockTokenFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Token, error)
}

func (m *mockTokenFinder) FindByID(ctx context.Context, id string) (*model.Token, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func validTokenFinder(userID string) *mockTokenFinder {
	return &mockTokenFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Token, error) {
			return &model.Token{
				ID:        id,
				UserID:    userID,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
}

// 有効なトークンでユーザーIDとトークンIDがコンテキストに注入されることを検証
func TestTokenMiddleware_ValidToken(t *testing.T) {
	mw := NewTokenMiddleware(validTokenFinder("user-1"))

	var gotUserID, gotTokenID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		gotTokenID, _ = TokenIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-1")
	}
	if gotTokenID != "abc123" {
		t.Errorf("tokenID = %q, want %q", gotTokenID, "abc123")
	}
}

// Authorizationヘッダーなしで401になることを検証
func TestTokenMiddleware_MissingHeader(t *testing.T) {
	mw := NewTokenMiddleware(&mockTokenFinder{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// 期限切れトークン（FindByIDがnilを返す）で401になることを検証
func TestTokenMiddleware_ExpiredToken(t *testing.T) {
	mw := NewTokenMiddleware(&mockTokenFinder{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Token expired")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// トークン検索エラーで401になることを検証
func TestTokenMiddleware_FinderError(t *testing.T) {
	finder := &mockTokenFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Token, error) {
			return nil, errors.New("db error")
		},
	}
	mw := NewTokenMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// extractTokenのスキーム解釈を検証
func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Token abc123", "abc123"},
		{"token abc123", "abc123"}, // スキームは大文字小文字を区別しない
		{"TOKEN abc123", "abc123"},
		{"Bearer abc123", ""},
		{"Token", ""},
		{"", ""},
		{"Token  abc123 ", "abc123"},
	}
	for _, tc := range cases {
		if got := extractToken(tc.header); got != tc.want {
			t.Errorf("extractToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

// コンテキストヘルパーの往復を検証
func TestContextHelpers(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-9")
	ctx = ContextWithTokenID(ctx, "token-9")

	userID, err := UserIDFromContext(ctx)
	if err != nil || userID != "user-9" {
		t.Errorf("UserIDFromContext = (%q, %v), want (user-9, nil)", userID, err)
	}

	tokenID, err := TokenIDFromContext(ctx)
	if err != nil || tokenID != "token-9" {
		t.Errorf("TokenIDFromContext = (%q, %v), want (token-9, nil)", tokenID, err)
	}

	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for context without user ID")
	}
}
