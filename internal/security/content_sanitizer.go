// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はコメントの本文・投稿者名をサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリの厳格ポリシーで、全てのマークアップを除去する。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストコンテンツのサニタイズ機能のインターフェースを定義する。
// コメントの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からHTMLマークアップを全て除去してプレーンテキストを返す。
	// script, iframe, styleタグおよびon*イベント属性を含む全てのタグを除去する。
	// コメントはプレーンテキストとして扱われるため、許可されるタグは存在しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのStrictPolicy（許可タグなし）を構築する。
// コメントの本文と投稿者名はHTMLとして表示されることがないため、
// タグを一切通過させない方針を採用している。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLマークアップを全て除去してプレーンテキストを返す。
// bluemondayはタグ除去後のテキストをHTMLエンティティでエスケープするため、
// プレーンテキストとして保存できるようアンエスケープして返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return html.UnescapeString(s.policy.Sanitize(raw))
}
