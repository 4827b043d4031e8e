package handler

import (
	"context"

	"github.com/hitoshi/catalog/internal/attribute"
	"github.com/hitoshi/catalog/internal/model"
)

// TagServiceAdapter は attribute.TagService を AttributeServiceInterface に適合させるアダプタ。
type TagServiceAdapter struct {
	svc *attribute.TagService
}

// NewTagServiceAdapter はTagServiceAdapterを生成する。
func NewTagServiceAdapter(svc *attribute.TagService) *TagServiceAdapter {
	return &TagServiceAdapter{svc: svc}
}

// List はタグ一覧をhandlerレスポンス型で返す。
func (a *TagServiceAdapter) List(ctx context.Context, ownerID string, assignedOnly bool) ([]attributeResponse, error) {
	tags, err := a.svc.List(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, err
	}

	results := make([]attributeResponse, len(tags))
	for i, t := range tags {
		results[i] = toTagResponse(t)
	}
	return results, nil
}

// Create はタグを作成しhandlerレスポンス型で返す。
func (a *TagServiceAdapter) Create(ctx context.Context, ownerID, name string) (*attributeResponse, error) {
	tag, err := a.svc.Create(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	resp := toTagResponse(tag)
	return &resp, nil
}

// UpdateName はタグ名を変更しhandlerレスポンス型で返す。
func (a *TagServiceAdapter) UpdateName(ctx context.Context, ownerID string, id int64, name string) (*attributeResponse, error) {
	tag, err := a.svc.UpdateName(ctx, ownerID, id, name)
	if err != nil {
		return nil, err
	}
	resp := toTagResponse(tag)
	return &resp, nil
}

// Delete はタグを削除する。
func (a *TagServiceAdapter) Delete(ctx context.Context, ownerID string, id int64) error {
	return a.svc.Delete(ctx, ownerID, id)
}

// toTagResponse はドメインのTagをhandlerのレスポンス型に変換する。
func toTagResponse(t *model.Tag) attributeResponse {
	return attributeResponse{ID: t.ID, Name: t.Name}
}

// IngredientServiceAdapter は attribute.IngredientService を AttributeServiceInterface に適合させるアダプタ。
type IngredientServiceAdapter struct {
	svc *attribute.IngredientService
}

// NewIngredientServiceAdapter はIngredientServiceAdapterを生成する。
func NewIngredientServiceAdapter(svc *attribute.IngredientService) *IngredientServiceAdapter {
	return &IngredientServiceAdapter{svc: svc}
}

// List は原材料一覧をhandlerレスポンス型で返す。
func (a *IngredientServiceAdapter) List(ctx context.Context, ownerID string, assignedOnly bool) ([]attributeResponse, error) {
	ingredients, err := a.svc.List(ctx, ownerID, assignedOnly)
	if err != nil {
		return nil, err
	}

	results := make([]attributeResponse, len(ingredients))
	for i, ing := range ingredients {
		results[i] = toIngredientResponse(ing)
	}
	return results, nil
}

// Create は原材料を作成しhandlerレスポンス型で返す。
func (a *IngredientServiceAdapter) Create(ctx context.Context, ownerID, name string) (*attributeResponse, error) {
	ing, err := a.svc.Create(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	resp := toIngredientResponse(ing)
	return &resp, nil
}

// UpdateName は原材料名を変更しhandlerレスポンス型で返す。
func (a *IngredientServiceAdapter) UpdateName(ctx context.Context, ownerID string, id int64, name string) (*attributeResponse, error) {
	ing, err := a.svc.UpdateName(ctx, ownerID, id, name)
	if err != nil {
		return nil, err
	}
	resp := toIngredientResponse(ing)
	return &resp, nil
}

// Delete は原材料を削除する。
func (a *IngredientServiceAdapter) Delete(ctx context.Context, ownerID string, id int64) error {
	return a.svc.Delete(ctx, ownerID, id)
}

// toIngredientResponse はドメインのIngredientをhandlerのレスポンス型に変換する。
func toIngredientResponse(ing *model.Ingredient) attributeResponse {
	return attributeResponse{ID: ing.ID, Name: ing.Name}
}

// --- compile-time interface checks ---

var _ AttributeServiceInterface = (*TagServiceAdapter)(nil)
var _ AttributeServiceInterface = (*IngredientServiceAdapter)(nil)
