// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizerService は商品説明のHTMLコンテンツをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// DescriptionSanitizerService は商品説明のサニタイズ機能のインターフェースを定義する。
// 商品の作成・更新時の説明保存前に使用される。
type DescriptionSanitizerService interface {
	// Sanitize は説明テキストをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はDescriptionSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerServiceの新しいインスタンスを生成する。
// 商品説明は簡単な書式のみを想定しているため、リンクや画像は許可しない。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, strong, em
//   - 禁止タグ: script, iframe, style, a, img および全てのon*イベント属性
func NewDescriptionSanitizer() *descriptionSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されない。
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em",
	)

	return &descriptionSanitizer{
		policy: p,
	}
}

// Sanitize は説明テキストをサニタイズして安全なHTMLを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
