// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/product"
	"github.com/hitoshi/catalog/internal/repository"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	// List は所有者の商品一覧をid降順で返す。
	List(ctx context.Context, ownerID string, filter repository.ProductFilter) ([]*model.ProductDetail, error)
	// Get は所有者スコープで商品の詳細を取得する。
	Get(ctx context.Context, ownerID string, id int64) (*model.ProductDetail, error)
	// Create は商品を作成する。
	Create(ctx context.Context, ownerID string, input product.CreateInput) (*model.ProductDetail, error)
	// Update は商品を更新する。partialがfalseの場合はnameとpriceが必須。
	Update(ctx context.Context, ownerID string, id int64, input product.UpdateInput, partial bool) (*model.ProductDetail, error)
	// Delete は所有者スコープで商品を削除する。
	Delete(ctx context.Context, ownerID string, id int64) error
	// UploadImage は商品画像を保存しプレースホルダーを生成する。
	UploadImage(ctx context.Context, ownerID string, id int64, data []byte) (*model.ProductDetail, error)
}

// ProductHandlerConfig は商品ハンドラーの設定。
type ProductHandlerConfig struct {
	UploadMaxBytes int64 // 画像アップロードの最大サイズ
}

// ProductHandler は商品管理のHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
	config  ProductHandlerConfig
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface, config ProductHandlerConfig) *ProductHandler {
	return &ProductHandler{
		service: service,
		config:  config,
	}
}

// attributeRef はリクエストボディ内のタグ・原材料参照。名前で指定する。
type attributeRef struct {
	Name string `json:"name"`
}

// productRequest は商品作成・更新リクエストのボディ。
// ポインタフィールドはJSONで省略された場合nilになり、「変更しない」を意味する。
// Userは値を問わず指定自体を拒否するためRawMessageで受ける。
type productRequest struct {
	Name        *string         `json:"name"`
	Price       json.RawMessage `json:"price"`
	Description *string         `json:"description"`
	Tags        *[]attributeRef `json:"tags"`
	Ingredients *[]attributeRef `json:"ingredients"`
	User        json.RawMessage `json:"user"`
}

// attributeResponse はタグ・原材料のAPIレスポンス。
type attributeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// productSummaryResponse は商品一覧のAPIレスポンス。説明文は含まない。
type productSummaryResponse struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         string              `json:"price"`
	Image         *string             `json:"image"`
	ImageBlurHash *string             `json:"image_blur_hash"`
	Tags          []attributeResponse `json:"tags"`
	Ingredients   []attributeResponse `json:"ingredients"`
}

// productDetailResponse は商品詳細のAPIレスポンス。
type productDetailResponse struct {
	productSummaryResponse
	Description string `json:"description"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListProducts は商品一覧を取得する。
// GET /api/products?tags=1,2&ingredients=3
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	tagIDs, err := product.ParseIDList("tags", r.URL.Query().Get("tags"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	ingredientIDs, err := product.ParseIDList("ingredients", r.URL.Query().Get("ingredients"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	details, err := h.service.List(r.Context(), userID, repository.ProductFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]productSummaryResponse, len(details))
	for i, d := range details {
		results[i] = toProductSummaryResponse(d)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetProduct は商品詳細を取得する。
// GET /api/products/:id
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductDetailResponse(detail))
}

// CreateProduct は商品を作成する。
// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	req, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	input := product.CreateInput{}
	if req.Name != nil {
		input.Name = *req.Name
	}
	price, perr := parsePrice(req.Price)
	if perr != nil {
		handleServiceError(w, perr)
		return
	}
	if price != nil {
		input.Price = *price
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Tags != nil {
		input.Tags = attributeNames(*req.Tags)
	}
	if req.Ingredients != nil {
		input.Ingredients = attributeNames(*req.Ingredients)
	}

	detail, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProductDetailResponse(detail))
}

// ReplaceProduct は商品を全置換更新する。nameとpriceは必須。
// PUT /api/products/:id
func (h *ProductHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// PatchProduct は商品を部分更新する。指定されたフィールドのみ変更する。
// PATCH /api/products/:id
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

// update はPUT/PATCH共通の更新処理。
func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	req, ok := decodeProductRequest(w, r)
	if !ok {
		return
	}

	input := product.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	}
	price, perr := parsePrice(req.Price)
	if perr != nil {
		handleServiceError(w, perr)
		return
	}
	input.Price = price
	if req.Tags != nil {
		names := attributeNames(*req.Tags)
		input.Tags = &names
	}
	if req.Ingredients != nil {
		names := attributeNames(*req.Ingredients)
		input.Ingredients = &names
	}

	detail, err := h.service.Update(r.Context(), userID, id, input, partial)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductDetailResponse(detail))
}

// DeleteProduct は商品を削除する。
// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage は商品画像をアップロードする。
// POST /api/products/:id/upload-image
// multipart/form-dataの"image"フィールドで画像を受け取る。
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteUnauthorized(w)
		return
	}

	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.UploadMaxBytes)
	if err := r.ParseMultipartForm(h.config.UploadMaxBytes); err != nil {
		writeValidationErrorResponse(w, map[string]string{
			"image": "The submitted data was not a file. Check the encoding type on the form.",
		})
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeValidationErrorResponse(w, map[string]string{
			"image": "No file was submitted.",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeValidationErrorResponse(w, map[string]string{
			"image": "The submitted file could not be read.",
		})
		return
	}

	detail, err := h.service.UploadImage(r.Context(), userID, id, data)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProductDetailResponse(detail))
}

// parseProductID はURLパラメータから商品IDを取得する。
// 整数として解釈できない場合は404を書き込みfalseを返す。
func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodeProductNotFound,
			Message:  "指定された商品が見つかりません。",
			Category: "catalog",
			Action:   "商品IDを確認してください。",
		})
		return 0, false
	}
	return id, true
}

// decodeProductRequest はリクエストボディを解析する。
// 所有者フィールドが含まれている場合は値を問わず拒否する。
func decodeProductRequest(w http.ResponseWriter, r *http.Request) (*productRequest, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return nil, false
	}

	if len(req.User) > 0 {
		handleServiceError(w, model.NewOwnerFieldError())
		return nil, false
	}

	return &req, true
}

// parsePrice はpriceフィールドのRawMessageを文字列に変換する。
// JSON数値と文字列の両方を受け付ける。省略された場合はnilを返す。
func parsePrice(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return nil, model.NewFieldValidationError("price", "This field may not be null.")
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return &s, nil
}

// attributeNames は属性参照のリストから名前を取り出す。
func attributeNames(refs []attributeRef) []string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	return names
}

// toProductSummaryResponse はドメインモデルを一覧レスポンス型に変換する。
func toProductSummaryResponse(d *model.ProductDetail) productSummaryResponse {
	resp := productSummaryResponse{
		ID:          d.ID,
		Name:        d.Name,
		Price:       d.Price,
		Tags:        make([]attributeResponse, len(d.Tags)),
		Ingredients: make([]attributeResponse, len(d.Ingredients)),
	}
	if d.Image != "" {
		url := mediaURL(d.Image)
		resp.Image = &url
	}
	if d.ImageBlurHash != "" {
		hash := d.ImageBlurHash
		resp.ImageBlurHash = &hash
	}
	for i, t := range d.Tags {
		resp.Tags[i] = attributeResponse{ID: t.ID, Name: t.Name}
	}
	for i, ing := range d.Ingredients {
		resp.Ingredients[i] = attributeResponse{ID: ing.ID, Name: ing.Name}
	}
	return resp
}

// toProductDetailResponse はドメインモデルを詳細レスポンス型に変換する。
func toProductDetailResponse(d *model.ProductDetail) productDetailResponse {
	return productDetailResponse{
		productSummaryResponse: toProductSummaryResponse(d),
		Description:            d.Description,
	}
}

// mediaURL は保存ファイル名から公開URLパスを生成する。
func mediaURL(filename string) string {
	return "/media/" + filename
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeValidationErrorResponse はフィールド単位のバリデーションエラーを書き込む。
// ボディは {"フィールド名": "メッセージ"} の形式になる。
func writeValidationErrorResponse(w http.ResponseWriter, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(fields)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		writeValidationErrorResponse(w, valErr.Fields)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeProductNotFound, model.ErrCodeTagNotFound, model.ErrCodeIngredientNotFound:
		return http.StatusNotFound
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmailTaken:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
