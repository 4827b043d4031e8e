// Package auth はユーザー登録、ログイン、トークン管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenMaxAge int // トークン有効期間（秒）
}

// RegisterInput はユーザー登録の入力を表す。
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが登録済みの場合はEMAIL_TAKENエラーを返す。
// パスワードが短すぎる場合はバリデーションエラーを返す。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	fields := map[string]string{}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "Enter a valid email address."
	}
	if len(input.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength)
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、トークンを発行する。
// 認証に失敗した場合はINVALID_CREDENTIALSエラーを返す。
// 存在しないメールアドレスと不正なパスワードは区別しない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Token, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("パスワードの検証に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.createToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, nil
}

// Logout はトークンを破棄する。
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return fmt.Errorf("token ID is required")
	}

	if err := s.tokenRepo.DeleteByID(ctx, tokenID); err != nil {
		return fmt.Errorf("トークンの削除に失敗しました: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// createToken はトークンを作成し永続化する。
func (s *Service) createToken(ctx context.Context, userID string) (*model.Token, error) {
	tokenID, err := generateTokenID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token ID: %w", err)
	}

	token := &model.Token{
		ID:        tokenID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.TokenMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return token, nil
}

// generateTokenID は暗号的に安全なトークンIDを生成する。
func generateTokenID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
