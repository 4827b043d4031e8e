// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token はAPI認証用の不透明トークンを表す。
// IDそのものがAuthorizationヘッダーで提示されるトークン値。
type Token struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
