// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// Service はユーザー管理のサービス層。
// プロフィール取得と退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

// Profile はユーザーのプロフィールを取得する。
func (s *Service) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: tokens → user（+ CASCADE: products, tags, ingredients, 割り当て）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. トークンを削除
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("トークンの削除に失敗しました: %w", err)
	}

	// 2. ユーザーを削除（商品・タグ・原材料はCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
