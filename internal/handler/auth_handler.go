package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/catalog/internal/auth"
	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	// Login は認証情報を検証してトークンを発行する。
	Login(ctx context.Context, email, password string) (*model.Token, error)
	// Logout はトークンを破棄する。
	Logout(ctx context.Context, tokenID string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// tokenResponse はトークン発行のAPIレスポンス。
type tokenResponse struct {
	Token string `json:"token"`
}

// Register は新規ユーザー登録を処理する。
// POST /api/users
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Login は認証情報を検証してトークンを発行する。
// POST /api/users/token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{Token: token.ID})
}

// Logout は現在のトークンを破棄する。
// POST /api/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenID, err := middleware.TokenIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	if err := h.service.Logout(r.Context(), tokenID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toUserResponse はドメインモデルをレスポンス型に変換する。
// パスワードハッシュは含めない。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}
