package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/product"
)

// AttributeServiceInterface はタグ・原材料ハンドラーが必要とするサービスインターフェース。
// タグと原材料は同じAPI形状を持つため、ハンドラーは1つの実装を共有する。
type AttributeServiceInterface interface {
	// List は所有者の属性一覧をname降順で返す。
	List(ctx context.Context, ownerID string, assignedOnly bool) ([]attributeResponse, error)
	// Create は属性を作成する。同名の属性がある場合は既存のものを返す。
	Create(ctx context.Context, ownerID, name string) (*attributeResponse, error)
	// UpdateName は属性名を変更する。
	UpdateName(ctx context.Context, ownerID string, id int64, name string) (*attributeResponse, error)
	// Delete は属性を削除する。
	Delete(ctx context.Context, ownerID string, id int64) error
}

// AttributeHandler はタグ・原材料管理のHTTPハンドラー。
// notFoundErrは不正なIDパラメータに対するレスポンスの生成に使用する。
type AttributeHandler struct {
	service     AttributeServiceInterface
	notFoundErr func(id int64) *model.APIError
}

// NewAttributeHandler はAttributeHandlerを生成する。
func NewAttributeHandler(service AttributeServiceInterface, notFoundErr func(id int64) *model.APIError) *AttributeHandler {
	return &AttributeHandler{
		service:     service,
		notFoundErr: notFoundErr,
	}
}

// attributeRequest はタグ・原材料の作成・更新リクエストのボディ。
type attributeRequest struct {
	Name string `json:"name"`
}

// List は属性一覧を取得する。
// GET /api/tags?assigned_only=1 または GET /api/ingredients?assigned_only=1
func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	assignedOnly, err := product.ParseAssignedOnly(r.URL.Query().Get("assigned_only"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	attrs, err := h.service.List(r.Context(), userID, assignedOnly)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if attrs == nil {
		attrs = []attributeResponse{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attrs)
}

// Create は属性を作成する。
// POST /api/tags または POST /api/ingredients
func (h *AttributeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	var req attributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	attr, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(attr)
}

// UpdateName は属性名を変更する。
// PATCH /api/tags/:id または PATCH /api/ingredients/:id
func (h *AttributeHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id, ok := h.parseAttributeID(w, r)
	if !ok {
		return
	}

	var req attributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	attr, err := h.service.UpdateName(r.Context(), userID, id, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attr)
}

// Delete は属性を削除する。
// DELETE /api/tags/:id または DELETE /api/ingredients/:id
func (h *AttributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id, ok := h.parseAttributeID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseAttributeID はURLパラメータから属性IDを取得する。
// 整数として解釈できない場合は404を書き込みfalseを返す。
func (h *AttributeHandler) parseAttributeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, h.notFoundErr(0))
		return 0, false
	}
	return id, true
}
