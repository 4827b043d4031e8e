// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/catalog/internal/model"
)

// ProductFilter は商品一覧の絞り込み条件を表す。
// 空のスライスは「絞り込みなし」を意味する。
type ProductFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 所有する商品・タグ・原材料・トークンはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// TokenRepository はAPIトークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.Token) error
	// FindByID は指定IDのトークンを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Token, error)
	// DeleteByID は指定IDのトークンを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProductRepository は商品データの永続化インターフェース。
// すべての読み書きは所有者にスコープされる。
type ProductRepository interface {
	// FindByIDAndOwner は所有者スコープで商品を取得する。
	// 存在しない場合および他ユーザー所有の場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, ownerID string, id int64) (*model.Product, error)

	// ListByOwner は所有者の商品一覧をid降順（新しい順）で返す。
	// filterのTagIDs/IngredientIDsが指定された場合、それぞれのリスト内はOR、
	// リスト間はANDで絞り込む。結果は重複しない。
	ListByOwner(ctx context.Context, ownerID string, filter ProductFilter) ([]*model.Product, error)

	// Create は商品を作成し、採番されたIDをproduct.IDに設定する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品のスカラーフィールドを更新する。所有者は変更しない。
	Update(ctx context.Context, product *model.Product) error

	// DeleteByIDAndOwner は所有者スコープで商品を削除する。
	// 削除された場合はtrueを返す。対象がない場合はfalseを返す（エラーにしない）。
	DeleteByIDAndOwner(ctx context.Context, ownerID string, id int64) (bool, error)

	// UpdateImage は商品の画像ファイル名とBlurHashを更新する。
	UpdateImage(ctx context.Context, productID int64, image, blurHash string) error

	// ReplaceTagAssignments は商品のタグ割り当てをtagIDsと完全に一致させる。
	// 不要な割り当てを削除し、不足分を追加する。空のtagIDsは全割り当てを解除する。
	ReplaceTagAssignments(ctx context.Context, productID int64, tagIDs []int64) error

	// ReplaceIngredientAssignments は商品の原材料割り当てをingredientIDsと完全に一致させる。
	ReplaceIngredientAssignments(ctx context.Context, productID int64, ingredientIDs []int64) error

	// TagsByProductIDs は複数商品のタグ割り当てを一括取得する。
	// 戻り値は商品IDをキーとし、各商品のタグはname昇順。
	TagsByProductIDs(ctx context.Context, productIDs []int64) (map[int64][]model.Tag, error)

	// IngredientsByProductIDs は複数商品の原材料割り当てを一括取得する。
	IngredientsByProductIDs(ctx context.Context, productIDs []int64) (map[int64][]model.Ingredient, error)
}

// TagRepository はタグデータの永続化インターフェース。
type TagRepository interface {
	// ListByOwner は所有者のタグ一覧をname降順で返す。
	// assignedOnlyがtrueの場合、いずれかの商品に割り当てられたタグのみを
	// 重複なしで返す。
	ListByOwner(ctx context.Context, ownerID string, assignedOnly bool) ([]*model.Tag, error)

	// FindByIDAndOwner は所有者スコープでタグを取得する。見つからない場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, ownerID string, id int64) (*model.Tag, error)

	// FindOrCreate は (ownerID, name) のタグを検索し、なければ作成する。
	// 同一入力で繰り返し呼び出しても重複を作らない。同時実行による一意制約違反は
	// 再検索で回復する。createdは新規作成された場合にtrueになる。
	FindOrCreate(ctx context.Context, ownerID, name string) (tag *model.Tag, created bool, err error)

	// UpdateName は所有者スコープでタグ名を変更する。対象がない場合はnilを返す。
	UpdateName(ctx context.Context, ownerID string, id int64, name string) (*model.Tag, error)

	// DeleteByIDAndOwner は所有者スコープでタグを削除する。
	// 削除された場合はtrueを返す。商品への割り当てはCASCADE削除される。
	DeleteByIDAndOwner(ctx context.Context, ownerID string, id int64) (bool, error)
}

// IngredientRepository は原材料データの永続化インターフェース。
// 操作のセマンティクスはTagRepositoryと同じ。
type IngredientRepository interface {
	ListByOwner(ctx context.Context, ownerID string, assignedOnly bool) ([]*model.Ingredient, error)
	FindByIDAndOwner(ctx context.Context, ownerID string, id int64) (*model.Ingredient, error)
	FindOrCreate(ctx context.Context, ownerID, name string) (ingredient *model.Ingredient, created bool, err error)
	UpdateName(ctx context.Context, ownerID string, id int64, name string) (*model.Ingredient, error)
	DeleteByIDAndOwner(ctx context.Context, ownerID string, id int64) (bool, error)
}
