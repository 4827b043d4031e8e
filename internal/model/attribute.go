// Package model はドメインモデルを定義する。
package model

import "time"

// Tag は商品に付与するタグを表す。
// (owner_id, name) の組み合わせは一意。
type Tag struct {
	ID        int64
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ingredient は商品の原材料を表す。
// Tagと同様に (owner_id, name) の組み合わせは一意。
type Ingredient struct {
	ID        int64
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
