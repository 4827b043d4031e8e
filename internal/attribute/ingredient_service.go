package attribute

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// IngredientService は原材料管理のサービス層。
// セマンティクスはTagServiceと同じ。
type IngredientService struct {
	ingredientRepo repository.IngredientRepository
}

// NewIngredientService はIngredientServiceを生成する。
func NewIngredientService(ingredientRepo repository.IngredientRepository) *IngredientService {
	return &IngredientService{ingredientRepo: ingredientRepo}
}

// List は所有者の原材料一覧をname降順で返す。
// assignedOnlyがtrueの場合、商品に割り当て済みの原材料のみを返す。
func (s *IngredientService) List(ctx context.Context, ownerID string, assignedOnly bool) ([]*model.Ingredient, error) {
	ingredients, err := s.ingredientRepo.ListByOwner(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("原材料一覧の取得に失敗しました: %w", err)
	}
	return ingredients, nil
}

// Create は原材料を作成する。同名の原材料が既にある場合は既存の原材料を返す。
func (s *IngredientService) Create(ctx context.Context, ownerID, name string) (*model.Ingredient, error) {
	if name == "" {
		return nil, model.NewFieldValidationError("name", "This field may not be blank.")
	}

	ing, created, err := s.ingredientRepo.FindOrCreate(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("原材料の作成に失敗しました: %w", err)
	}

	if created {
		slog.Info("ingredient created",
			slog.String("user_id", ownerID),
			slog.Int64("ingredient_id", ing.ID),
		)
	}

	return ing, nil
}

// UpdateName は原材料名を変更する。
// 所有者スコープで対象がない場合はINGREDIENT_NOT_FOUNDエラーを返す。
func (s *IngredientService) UpdateName(ctx context.Context, ownerID string, id int64, name string) (*model.Ingredient, error) {
	if name == "" {
		return nil, model.NewFieldValidationError("name", "This field may not be blank.")
	}

	ing, err := s.ingredientRepo.UpdateName(ctx, ownerID, id, name)
	if err != nil {
		return nil, fmt.Errorf("原材料名の更新に失敗しました: %w", err)
	}
	if ing == nil {
		return nil, model.NewIngredientNotFoundError(id)
	}
	return ing, nil
}

// Delete は原材料を削除する。商品への割り当ても同時に解除される。
// 所有者スコープで対象がない場合はINGREDIENT_NOT_FOUNDエラーを返す。
func (s *IngredientService) Delete(ctx context.Context, ownerID string, id int64) error {
	deleted, err := s.ingredientRepo.DeleteByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("原材料の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewIngredientNotFoundError(id)
	}

	slog.Info("ingredient deleted",
		slog.String("user_id", ownerID),
		slog.Int64("ingredient_id", id),
	)
	return nil
}
