// Package attribute はタグ・原材料の管理ロジックを提供する。
//
// タグと原材料は構造が同一だが独立したリソースであり、
// 将来の分岐（原材料のアレルゲン表示等）に備えてサービスも別々に実装する。
package attribute

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// TagService はタグ管理のサービス層。
type TagService struct {
	tagRepo repository.TagRepository
}

// NewTagService はTagServiceを生成する。
func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// List は所有者のタグ一覧をname降順で返す。
// assignedOnlyがtrueの場合、商品に割り当て済みのタグのみを返す。
func (s *TagService) List(ctx context.Context, ownerID string, assignedOnly bool) ([]*model.Tag, error) {
	tags, err := s.tagRepo.ListByOwner(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	return tags, nil
}

// Create はタグを作成する。同名のタグが既にある場合は既存のタグを返す。
func (s *TagService) Create(ctx context.Context, ownerID, name string) (*model.Tag, error) {
	if name == "" {
		return nil, model.NewFieldValidationError("name", "This field may not be blank.")
	}

	tag, created, err := s.tagRepo.FindOrCreate(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("タグの作成に失敗しました: %w", err)
	}

	if created {
		slog.Info("tag created",
			slog.String("user_id", ownerID),
			slog.Int64("tag_id", tag.ID),
		)
	}

	return tag, nil
}

// UpdateName はタグ名を変更する。
// 所有者スコープで対象がない場合はTAG_NOT_FOUNDエラーを返す。
func (s *TagService) UpdateName(ctx context.Context, ownerID string, id int64, name string) (*model.Tag, error) {
	if name == "" {
		return nil, model.NewFieldValidationError("name", "This field may not be blank.")
	}

	tag, err := s.tagRepo.UpdateName(ctx, ownerID, id, name)
	if err != nil {
		return nil, fmt.Errorf("タグ名の更新に失敗しました: %w", err)
	}
	if tag == nil {
		return nil, model.NewTagNotFoundError(id)
	}
	return tag, nil
}

// Delete はタグを削除する。商品への割り当ても同時に解除される。
// 所有者スコープで対象がない場合はTAG_NOT_FOUNDエラーを返す。
func (s *TagService) Delete(ctx context.Context, ownerID string, id int64) error {
	deleted, err := s.tagRepo.DeleteByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("タグの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTagNotFoundError(id)
	}

	slog.Info("tag deleted",
		slog.String("user_id", ownerID),
		slog.Int64("tag_id", id),
	)
	return nil
}
