package product

import (
	"context"
	"fmt"
	"log/slog"
)

// reconcileTags はタグ名のリストを既存または新規のタグに解決し、
// 商品の割り当てをそのリストと完全に一致させる。
// 同名のタグは再利用され、重複した名前は1件に正規化される。
// 空のリストは全割り当てを解除する。
func (s *Service) reconcileTags(ctx context.Context, ownerID string, productID int64, names []string) error {
	ids := make([]int64, 0, len(names))
	seen := make(map[int64]struct{}, len(names))

	for _, name := range names {
		tag, created, err := s.tagRepo.FindOrCreate(ctx, ownerID, name)
		if err != nil {
			return fmt.Errorf("タグの解決に失敗しました: %w", err)
		}
		if created {
			slog.Info("tag created during reconcile",
				slog.String("user_id", ownerID),
				slog.Int64("tag_id", tag.ID),
			)
			if s.metrics != nil {
				s.metrics.AttributeCreated("tag")
			}
		} else if s.metrics != nil {
			s.metrics.AttributeReused("tag")
		}

		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		ids = append(ids, tag.ID)
	}

	if err := s.productRepo.ReplaceTagAssignments(ctx, productID, ids); err != nil {
		return fmt.Errorf("タグ割り当ての更新に失敗しました: %w", err)
	}
	return nil
}

// reconcileIngredients は原材料名のリストについてreconcileTagsと同じ処理を行う。
func (s *Service) reconcileIngredients(ctx context.Context, ownerID string, productID int64, names []string) error {
	ids := make([]int64, 0, len(names))
	seen := make(map[int64]struct{}, len(names))

	for _, name := range names {
		ing, created, err := s.ingredientRepo.FindOrCreate(ctx, ownerID, name)
		if err != nil {
			return fmt.Errorf("原材料の解決に失敗しました: %w", err)
		}
		if created {
			slog.Info("ingredient created during reconcile",
				slog.String("user_id", ownerID),
				slog.Int64("ingredient_id", ing.ID),
			)
			if s.metrics != nil {
				s.metrics.AttributeCreated("ingredient")
			}
		} else if s.metrics != nil {
			s.metrics.AttributeReused("ingredient")
		}

		if _, ok := seen[ing.ID]; ok {
			continue
		}
		seen[ing.ID] = struct{}{}
		ids = append(ids, ing.ID)
	}

	if err := s.productRepo.ReplaceIngredientAssignments(ctx, productID, ids); err != nil {
		return fmt.Errorf("原材料割り当ての更新に失敗しました: %w", err)
	}
	return nil
}
