// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"sort"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeTagNotFound        = "TAG_NOT_FOUND"
	ErrCodeIngredientNotFound = "INGREDIENT_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// ValidationError はフィールド単位のバリデーションエラーを表す。
// HTTPレスポンスでは {"フィールド名": "メッセージ"} の形式でそのまま返される。
type ValidationError struct {
	Fields map[string]string
}

// Error はerrorインターフェースを実装する。
// フィールド名順に "field: message" を連結して返す。
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewFieldValidationError は単一フィールドのバリデーションエラーを生成する。
func NewFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NewValidationError は複数フィールドのバリデーションエラーを生成する。
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// NewOwnerFieldError は商品の所有者フィールドを変更しようとした場合のエラーを生成する。
// 所有者は常に認証済みユーザーから決まるため、値にかかわらず拒否する。
func NewOwnerFieldError() *ValidationError {
	return NewFieldValidationError("user", "You cannot update the user of a product.")
}

// NewProductNotFoundError は商品未検出エラーを生成する。
// 他ユーザーの商品へのアクセスも同一のエラーになる（存在の漏洩を防ぐ）。
func NewProductNotFoundError(productID int64) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %d", productID),
		Category: "catalog",
		Action:   "商品IDを確認してください。",
	}
}

// NewTagNotFoundError はタグ未検出エラーを生成する。
func NewTagNotFoundError(tagID int64) *APIError {
	return &APIError{
		Code:     ErrCodeTagNotFound,
		Message:  fmt.Sprintf("指定されたタグが見つかりません: %d", tagID),
		Category: "catalog",
		Action:   "タグIDを確認してください。",
	}
}

// NewIngredientNotFoundError は原材料未検出エラーを生成する。
func NewIngredientNotFoundError(ingredientID int64) *APIError {
	return &APIError{
		Code:     ErrCodeIngredientNotFound,
		Message:  fmt.Sprintf("指定された原材料が見つかりません: %d", ingredientID),
		Category: "catalog",
		Action:   "原材料IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報が不正な場合のエラーを生成する。
// メールアドレスとパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
