// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/catalog/internal/model"
)

// tokenScheme はAuthorizationヘッダーの認証スキーム。
const tokenScheme = "Token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// tokenIDContextKey はリクエストコンテキストにトークンIDを格納するためのキー。
var tokenIDContextKey = contextKey("token_id")

// TokenFinder はトークンの検索に必要なインターフェース。
// repository.TokenRepositoryの部分集合として定義する。
type TokenFinder interface {
	FindByID(ctx context.Context, id string) (*model.Token, error)
}

// NewTokenMiddleware はAuthorizationヘッダー（"Token <値>"形式）からトークンを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewTokenMiddleware(tokenFinder TokenFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからトークンIDを取得
			tokenID := extractToken(r.Header.Get("Authorization"))
			if tokenID == "" {
				WriteUnauthorized(w)
				return
			}

			// 2. トークンの有効性を検証（期限切れはnilが返る）
			token, err := tokenFinder.FindByID(r.Context(), tokenID)
			if err != nil {
				slog.Error("failed to find token",
					slog.String("error", err.Error()),
				)
				WriteUnauthorized(w)
				return
			}
			if token == nil {
				WriteUnauthorized(w)
				return
			}

			// 3. 認証済みユーザーIDとトークンIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, token.UserID)
			ctx = context.WithValue(ctx, tokenIDContextKey, token.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken はAuthorizationヘッダー値からトークンIDを取り出す。
// スキームが一致しない場合は空文字列を返す。
func extractToken(header string) string {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, tokenScheme) {
		return ""
	}
	return strings.TrimSpace(value)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// トークンミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// TokenIDFromContext はリクエストコンテキストからトークンIDを取得する。
// ログアウト処理で現在のトークンを特定するために使用する。
func TokenIDFromContext(ctx context.Context) (string, error) {
	tokenID, ok := ctx.Value(tokenIDContextKey).(string)
	if !ok || tokenID == "" {
		return "", fmt.Errorf("token ID not found in context")
	}
	return tokenID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithTokenID はコンテキストにトークンIDを注入する。
func ContextWithTokenID(ctx context.Context, tokenID string) context.Context {
	return context.WithValue(ctx, tokenIDContextKey, tokenID)
}
