package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/catalog/internal/middleware"
	"github.com/hitoshi/catalog/internal/model"
	"github.com/hitoshi/catalog/internal/product"
	"github.com/hitoshi/catalog/internal/repository"
)

type mockProductService struct {
	listFn        func(ctx context.Context, ownerID string, filter repository.ProductFilter) ([]*model.ProductDetail, error)
	getFn         func(ctx context.Context, ownerID string, id int64) (*model.ProductDetail, error)
	createFn      func(ctx context.Context, ownerID string, input product.CreateInput) (*model.ProductDetail, error)
	updateFn      func(ctx context.Context, ownerID string, id int64, input product.UpdateInput, partial bool) (*model.ProductDetail, error)
	deleteFn      func(ctx context.Context, ownerID string, id int64) error
	uploadImageFn func(ctx context.Context, ownerID string, id int64, data []byte) (*model.ProductDetail, error)
}

func (m *mockProductService) List(ctx context.Context, ownerID string, filter repository.ProductFilter) ([]*model.ProductDetail, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, filter)
	}
	return nil, nil
}
func (m *mockProductService) Get(ctx context.Context, ownerID string, id int64) (*model.ProductDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, ownerID, id)
	}
	return nil, model.NewProductNotFoundError(id)
}
func (m *mockProductService) Create(ctx context.Context, ownerID string, input product.CreateInput) (*model.ProductDetail, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, input)
	}
	return nil, nil
}
func (m *mockProductService) Update(ctx context.Context, ownerID string, id int64, input product.UpdateInput, partial bool) (*model.ProductDetail, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, id, input, partial)
	}
	return nil, nil
}
func (m *mockProductService) Delete(ctx context.Context, ownerID string, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return nil
}
func (m *mockProductService) UploadImage(ctx context.Context, ownerID string, id int64, data []byte) (*model.ProductDetail, error) {
	if m.uploadImageFn != nil {
		return m.uploadImageFn(ctx, ownerID, id, data)
	}
	return nil, nil
}

// withUserID は認証済みユーザーIDをリクエストコンテキストに注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withChiURLParam はchiのURLパラメータをリクエストコンテキストに注入する。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func testProductDetail(id int64) *model.ProductDetail {
	return &model.ProductDetail{
		Product: model.Product{
			ID:          id,
			OwnerID:     "user-1",
			Name:        "Chocolate cake",
			Description: "<p>rich</p>",
			Price:       "5.25",
		},
		Tags:        []model.Tag{{ID: 1, Name: "dessert"}},
		Ingredients: []model.Ingredient{{ID: 2, Name: "cocoa"}},
	}
}

func defaultProductHandler(svc ProductServiceInterface) *ProductHandler {
	return NewProductHandler(svc, ProductHandlerConfig{UploadMaxBytes: 5 * 1024 * 1024})
}

// 商品一覧がフィルター付きで取得できることを検証
func TestProductHandler_ListProducts(t *testing.T) {
	var gotFilter repository.ProductFilter
	svc := &mockProductService{
		listFn: func(ctx context.Context, ownerID string, filter repository.ProductFilter) ([]*model.ProductDetail, error) {
			gotFilter = filter
			return []*model.ProductDetail{testProductDetail(1)}, nil
		},
	}
	h := defaultProductHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/products?tags=1,2&ingredients=3", nil), "user-1")
	rec := httptest.NewRecorder()

	h.ListProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(gotFilter.TagIDs) != 2 || len(gotFilter.IngredientIDs) != 1 {
		t.Errorf("filter = %+v, want tags [1 2] ingredients [3]", gotFilter)
	}

	var results []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len = %d, want 1", len(results))
	}
	// 一覧レスポンスには説明文を含めない
	if _, ok := results[0]["description"]; ok {
		t.Error("list response must not contain description")
	}
}

// 不正なフィルター値で400になることを検証
func TestProductHandler_ListProducts_InvalidFilter(t *testing.T) {
	h := defaultProductHandler(&mockProductService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/products?tags=abc", nil), "user-1")
	rec := httptest.NewRecorder()

	h.ListProducts(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// 商品詳細に説明文が含まれることを検証
func TestProductHandler_GetProduct(t *testing.T) {
	svc := &mockProductService{
		getFn: func(ctx context.Context, ownerID string, id int64) (*model.ProductDetail, error) {
			return testProductDetail(id), nil
		},
	}
	h := defaultProductHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/products/1", nil), "user-1")
	req = withChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	h.GetProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var result map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["description"] != "<p>rich</p>" {
		t.Errorf("description = %v, want raw description", result["description"])
	}
}

// 整数でないIDが404になることを検証
func TestProductHandler_GetProduct_NonIntegerID(t *testing.T) {
	h := defaultProductHandler(&mockProductService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/products/abc", nil), "user-1")
	req = withChiURLParam(req, "id", "abc")
	rec := httptest.NewRecorder()

	h.GetProduct(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// 商品作成が201を返すことを検証
func TestProductHandler_CreateProduct(t *testing.T) {
	var gotInput product.CreateInput
	svc := &mockProductService{
		createFn: func(ctx context.Context, ownerID string, input product.CreateInput) (*model.ProductDetail, error) {
			gotInput = input
			return testProductDetail(1), nil
		},
	}
	h := defaultProductHandler(svc)

	body := `{"name":"Chocolate cake","price":"5.25","tags":[{"name":"dessert"}],"ingredients":[{"name":"cocoa"}]}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if gotInput.Name != "Chocolate cake" || gotInput.Price != "5.25" {
		t.Errorf("input = %+v, want name and price set", gotInput)
	}
	if len(gotInput.Tags) != 1 || gotInput.Tags[0] != "dessert" {
		t.Errorf("tags = %v, want [dessert]", gotInput.Tags)
	}
}

// 価格がJSON数値でも受け付けられることを検証
func TestProductHandler_CreateProduct_NumericPrice(t *testing.T) {
	var gotInput product.CreateInput
	svc := &mockProductService{
		createFn: func(ctx context.Context, ownerID string, input product.CreateInput) (*model.ProductDetail, error) {
			gotInput = input
			return testProductDetail(1), nil
		},
	}
	h := defaultProductHandler(svc)

	body := `{"name":"Cake","price":5.25}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if gotInput.Price != "5.25" {
		t.Errorf("price = %q, want %q", gotInput.Price, "5.25")
	}
}

// userフィールドの指定が値を問わず拒否されることを検証
func TestProductHandler_CreateProduct_OwnerFieldRejected(t *testing.T) {
	h := defaultProductHandler(&mockProductService{})

	body := `{"name":"Cake","price":"5","user":"someone-else"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var fields map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&fields); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if fields["user"] != "You cannot update the user of a product." {
		t.Errorf("user field message = %q, want fixed message", fields["user"])
	}
}

// 不正なJSONボディで400になることを検証
func TestProductHandler_CreateProduct_InvalidJSON(t *testing.T) {
	h := defaultProductHandler(&mockProductService{})

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("{not json")), "user-1")
	rec := httptest.NewRecorder()

	h.CreateProduct(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// PUTがpartial=falseで、PATCHがpartial=trueでサービスを呼ぶことを検証
func TestProductHandler_UpdateModes(t *testing.T) {
	var gotPartial bool
	svc := &mockProductService{
		updateFn: func(ctx context.Context, ownerID string, id int64, input product.UpdateInput, partial bool) (*model.ProductDetail, error) {
			gotPartial = partial
			return testProductDetail(id), nil
		},
	}
	h := defaultProductHandler(svc)

	body := `{"name":"Updated","price":"6"}`

	req := withUserID(httptest.NewRequest(http.MethodPut, "/api/products/1", strings.NewReader(body)), "user-1")
	req = withChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	h.ReplaceProduct(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotPartial {
		t.Error("PUT must call Update with partial=false")
	}

	req = withUserID(httptest.NewRequest(http.MethodPatch, "/api/products/1", strings.NewReader(`{"name":"Updated"}`)), "user-1")
	req = withChiURLParam(req, "id", "1")
	rec = httptest.NewRecorder()
	h.PatchProduct(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !gotPartial {
		t.Error("PATCH must call Update with partial=true")
	}
}

// PATCHで省略されたフィールドがnilのままサービスへ渡ることを検証
func TestProductHandler_PatchProduct_OmittedFields(t *testing.T) {
	var gotInput product.UpdateInput
	svc := &mockProductService{
		updateFn: func(ctx context.Context, ownerID string, id int64, input product.UpdateInput, partial bool) (*model.ProductDetail, error) {
			gotInput = input
			return testProductDetail(id), nil
		},
	}
	h := defaultProductHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPatch, "/api/products/1", strings.NewReader(`{"name":"Only name"}`)), "user-1")
	req = withChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	h.PatchProduct(rec, req)

	if gotInput.Name == nil || *gotInput.Name != "Only name" {
		t.Errorf("Name = %v, want Only name", gotInput.Name)
	}
	if gotInput.Price != nil || gotInput.Description != nil || gotInput.Tags != nil || gotInput.Ingredients != nil {
		t.Errorf("omitted fields must be nil: %+v", gotInput)
	}
}

// PATCHで空のタグリストがポインタ付き空スライスとして渡ることを検証
func TestProductHandler_PatchProduct_EmptyTags(t *testing.T) {
	var gotInput product.UpdateInput
	svc := &mockProductService{
		updateFn: func(ctx context.Context, ownerID string, id int64, input product.UpdateInput, partial bool) (*model.ProductDetail, error) {
			gotInput = input
			return testProductDetail(id), nil
		},
	}
	h := defaultProductHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPatch, "/api/products/1", strings.NewReader(`{"tags":[]}`)), "user-1")
	req = withChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	h.PatchProduct(rec, req)

	if gotInput.Tags == nil {
		t.Fatal("Tags must be non-nil for explicit empty list")
	}
	if len(*gotInput.Tags) != 0 {
		t.Errorf("Tags = %v, want empty", *gotInput.Tags)
	}
}

// 商品削除が204を返すことを検証
func TestProductHandler_DeleteProduct(t *testing.T) {
	svc := &mockProductService{
		deleteFn: func(ctx context.Context, ownerID string, id int64) error {
			return nil
		},
	}
	h := defaultProductHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodDelete, "/api/products/1", nil), "user-1")
	req = withChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	h.DeleteProduct(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

// 存在しない商品の削除が404になることを検証
func TestProductHandler_DeleteProduct_NotFound(t *testing.T) {
	svc := &mockProductService{
		deleteFn: func(ctx context.Context, ownerID string, id int64) error {
			return model.NewProductNotFoundError(id)
		},
	}
	h := defaultProductHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodDelete, "/api/products/99", nil), "user-1")
	req = withChiURLParam(req, "id", "99")
	rec := httptest.NewRecorder()

	h.DeleteProduct(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// multipartの画像アップロードが成功することを検証
func TestProductHandler_UploadImage(t *testing.T) {
	var gotData []byte
	svc := &mockProductService{
		uploadImageFn: func(ctx context.Context, ownerID string, id int64, data []byte) (*model.ProductDetail, error) {
			gotData = data
			detail := testProductDetail(id)
			detail.Image = "saved.jpg"
			detail.ImageBlurHash = "LKO2?U%2Tw=w"
			return detail, nil
		},
	}
	h := defaultProductHandler(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write([]byte("fake-image-bytes"))
	mw.Close()

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/products/1/upload-image", &buf), "user-1")
	req = withChiURLParam(req, "id", "1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.UploadImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if string(gotData) != "fake-image-bytes" {
		t.Errorf("uploaded data = %q, want file content", gotData)
	}

	var result map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["image"] != "/media/saved.jpg" {
		t.Errorf("image = %v, want /media/saved.jpg", result["image"])
	}
}

// ファイルなしのアップロードが400になることを検証
func TestProductHandler_UploadImage_NoFile(t *testing.T) {
	h := defaultProductHandler(&mockProductService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "value")
	mw.Close()

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/products/1/upload-image", &buf), "user-1")
	req = withChiURLParam(req, "id", "1")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.UploadImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var fields map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&fields); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if fields["image"] != "No file was submitted." {
		t.Errorf("image field message = %q, want no-file message", fields["image"])
	}
}

// 未認証リクエストで401になることを検証
func TestProductHandler_Unauthenticated(t *testing.T) {
	h := defaultProductHandler(&mockProductService{})

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()

	h.ListProducts(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
