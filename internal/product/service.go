// Package product は商品カタログのドメインロジックを提供する。
//
// 商品の作成・更新時にタグ・原材料の名前を既存または新規の属性に解決し、
// 割り当てを入力リストと一致させる。所有者の異なるデータは一切参照できない。
package product

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/repository"
)

// Sanitizer は商品説明のサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// ImageStore は商品画像の保存インターフェース。
type ImageStore interface {
	Save(data []byte, format string) (string, error)
	Remove(filename string) error
}

// ImageValidator は画像データの検証とプレースホルダー生成のインターフェース。
type ImageValidator interface {
	Validate(data []byte) (format string, err error)
	BlurHash(data []byte) (string, error)
}

// Metrics は商品操作のメトリクス記録インターフェース。
type Metrics interface {
	ProductCreated()
	AttributeCreated(kind string)
	AttributeReused(kind string)
	ImageUploaded()
}

// CreateInput は商品作成の入力を表す。
// TagsとIngredientsはnilの場合「割り当てなし」として扱う。
type CreateInput struct {
	Name        string
	Price       string
	Description string
	Tags        []string
	Ingredients []string
}

// UpdateInput は商品更新の入力を表す。
// nilのフィールドは「変更しない」を意味する。TagsとIngredientsは
// nilなら割り当てを変更せず、空のスライスなら全割り当てを解除する。
type UpdateInput struct {
	Name        *string
	Price       *string
	Description *string
	Tags        *[]string
	Ingredients *[]string
}

// Service は商品カタログのサービス層。
type Service struct {
	productRepo    repository.ProductRepository
	tagRepo        repository.TagRepository
	ingredientRepo repository.IngredientRepository
	sanitizer      Sanitizer
	store          ImageStore
	validator      ImageValidator
	metrics        Metrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	productRepo repository.ProductRepository,
	tagRepo repository.TagRepository,
	ingredientRepo repository.IngredientRepository,
	sanitizer Sanitizer,
	store ImageStore,
	validator ImageValidator,
	metrics Metrics,
) *Service {
	return &Service{
		productRepo:    productRepo,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
		sanitizer:      sanitizer,
		store:          store,
		validator:      validator,
		metrics:        metrics,
	}
}

// List は所有者の商品一覧をid降順で返す。各商品にはタグ・原材料の割り当てを含む。
// filterのTagIDs/IngredientIDsはそれぞれリスト内OR、リスト間ANDで絞り込む。
func (s *Service) List(ctx context.Context, ownerID string, filter repository.ProductFilter) ([]*model.ProductDetail, error) {
	products, err := s.productRepo.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}

	return s.attachAssignments(ctx, products)
}

// Get は所有者スコープで商品の詳細を取得する。
// 存在しない場合および他ユーザー所有の場合はPRODUCT_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (*model.ProductDetail, error) {
	p, err := s.productRepo.FindByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	details, err := s.attachAssignments(ctx, []*model.Product{p})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// Create は商品を作成する。所有者は認証済みユーザーから設定される。
// nameとpriceは必須。説明はサニタイズして保存する。
// タグ・原材料の名前は既存の属性に解決され、なければ作成される。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.ProductDetail, error) {
	if err := validateScalars(input.Name, input.Price, true); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: s.sanitizer.Sanitize(input.Description),
		Price:       input.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}

	if len(input.Tags) > 0 {
		if err := s.reconcileTags(ctx, ownerID, p.ID, input.Tags); err != nil {
			return nil, err
		}
	}
	if len(input.Ingredients) > 0 {
		if err := s.reconcileIngredients(ctx, ownerID, p.ID, input.Ingredients); err != nil {
			return nil, err
		}
	}

	slog.Info("product created",
		slog.String("user_id", ownerID),
		slog.Int64("product_id", p.ID),
	)
	if s.metrics != nil {
		s.metrics.ProductCreated()
	}

	return s.Get(ctx, ownerID, p.ID)
}

// Update は商品を更新する。partialがfalseの場合（全置換）はnameとpriceが必須。
// nilのフィールドは変更しない。TagsとIngredientsはnilなら割り当てを変更せず、
// 空のスライスなら全割り当てを解除する。
func (s *Service) Update(ctx context.Context, ownerID string, id int64, input UpdateInput, partial bool) (*model.ProductDetail, error) {
	if !partial {
		name := ""
		if input.Name != nil {
			name = *input.Name
		}
		price := ""
		if input.Price != nil {
			price = *input.Price
		}
		if err := validateScalars(name, price, true); err != nil {
			return nil, err
		}
	} else {
		if input.Name != nil && *input.Name == "" {
			return nil, model.NewFieldValidationError("name", "This field may not be blank.")
		}
		if input.Price != nil && !model.ValidPrice(*input.Price) {
			return nil, model.NewFieldValidationError("price", "A valid number is required.")
		}
	}

	p, err := s.productRepo.FindByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Description != nil {
		p.Description = s.sanitizer.Sanitize(*input.Description)
	}
	p.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}

	if input.Tags != nil {
		if err := s.reconcileTags(ctx, ownerID, p.ID, *input.Tags); err != nil {
			return nil, err
		}
	}
	if input.Ingredients != nil {
		if err := s.reconcileIngredients(ctx, ownerID, p.ID, *input.Ingredients); err != nil {
			return nil, err
		}
	}

	slog.Info("product updated",
		slog.String("user_id", ownerID),
		slog.Int64("product_id", p.ID),
	)

	return s.Get(ctx, ownerID, p.ID)
}

// Delete は所有者スコープで商品を削除する。タグ・原材料自体は残る。
// 対象がない場合はPRODUCT_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) error {
	p, err := s.productRepo.FindByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return model.NewProductNotFoundError(id)
	}

	deleted, err := s.productRepo.DeleteByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewProductNotFoundError(id)
	}

	if p.Image != "" {
		if err := s.store.Remove(p.Image); err != nil {
			// 画像ファイルの削除失敗はレコード削除を妨げない
			slog.Warn("failed to remove product image",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("product deleted",
		slog.String("user_id", ownerID),
		slog.Int64("product_id", id),
	)
	return nil
}

// UploadImage は商品画像を検証して保存し、BlurHashプレースホルダーを生成する。
// 既存の画像は置き換えられ、古いファイルは削除される。
func (s *Service) UploadImage(ctx context.Context, ownerID string, id int64, data []byte) (*model.ProductDetail, error) {
	p, err := s.productRepo.FindByIDAndOwner(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	format, err := s.validator.Validate(data)
	if err != nil {
		return nil, model.NewFieldValidationError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	blurHash, err := s.validator.BlurHash(data)
	if err != nil {
		// プレースホルダー生成の失敗はアップロードを妨げない
		slog.Warn("failed to compute blurhash",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		blurHash = ""
	}

	filename, err := s.store.Save(data, format)
	if err != nil {
		return nil, fmt.Errorf("画像の保存に失敗しました: %w", err)
	}

	oldImage := p.Image
	if err := s.productRepo.UpdateImage(ctx, id, filename, blurHash); err != nil {
		// レコード更新に失敗した場合、保存済みのファイルを残さない
		if rerr := s.store.Remove(filename); rerr != nil {
			slog.Warn("failed to remove orphaned image",
				slog.String("filename", filename),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, fmt.Errorf("画像情報の更新に失敗しました: %w", err)
	}

	if oldImage != "" {
		if err := s.store.Remove(oldImage); err != nil {
			slog.Warn("failed to remove previous image",
				slog.String("filename", oldImage),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("product image uploaded",
		slog.String("user_id", ownerID),
		slog.Int64("product_id", id),
		slog.String("format", format),
	)
	if s.metrics != nil {
		s.metrics.ImageUploaded()
	}

	return s.Get(ctx, ownerID, id)
}

// attachAssignments は商品リストにタグ・原材料の割り当てを一括で付与する。
func (s *Service) attachAssignments(ctx context.Context, products []*model.Product) ([]*model.ProductDetail, error) {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	tagsByID := map[int64][]model.Tag{}
	ingredientsByID := map[int64][]model.Ingredient{}
	if len(ids) > 0 {
		var err error
		tagsByID, err = s.productRepo.TagsByProductIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("タグ割り当ての取得に失敗しました: %w", err)
		}
		ingredientsByID, err = s.productRepo.IngredientsByProductIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("原材料割り当ての取得に失敗しました: %w", err)
		}
	}

	details := make([]*model.ProductDetail, len(products))
	for i, p := range products {
		details[i] = &model.ProductDetail{
			Product:     *p,
			Tags:        tagsByID[p.ID],
			Ingredients: ingredientsByID[p.ID],
		}
	}
	return details, nil
}

// validateScalars はnameとpriceの必須チェックと形式チェックを行う。
func validateScalars(name, price string, required bool) error {
	fields := map[string]string{}
	if required && name == "" {
		fields["name"] = "This field is required."
	}
	if required && price == "" {
		fields["price"] = "This field is required."
	} else if price != "" && !model.ValidPrice(price) {
		fields["price"] = "A valid number is required."
	}
	if len(fields) > 0 {
		return model.NewValidationError(fields)
	}
	return nil
}
