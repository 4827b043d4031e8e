// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Product は商品を表す。
// OwnerID は作成時に認証済みユーザーから設定され、以後変更されない。
type Product struct {
	ID            int64
	OwnerID       string
	Name          string
	Description   string // サニタイズ済みHTML
	Price         string // 小数点以下2桁までの非負の10進数文字列
	Image         string // メディアストレージ上のファイル名。未設定の場合は空文字列
	ImageBlurHash string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductDetail は商品とタグ・原材料の割り当てを結合したモデル。
// 関連テーブルとJOINして取得される。
type ProductDetail struct {
	Product
	Tags        []Tag
	Ingredients []Ingredient
}

// priceMaxIntegerDigits は価格の整数部の最大桁数。
const priceMaxIntegerDigits = 8

// ValidPrice は価格文字列の形式を検証する。
// 非負の10進数で、小数部は2桁まで。符号・指数表記・空文字列は不正。
func ValidPrice(s string) bool {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || len(intPart) > priceMaxIntegerDigits {
		return false
	}
	if !allDigits(intPart) {
		return false
	}
	if hasFrac {
		if fracPart == "" || len(fracPart) > 2 || !allDigits(fracPart) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
