// Package model はドメインモデルを定義する。
package model

import "time"

// AuthorMaxLength は表示名の最大文字数。超過分は切り詰められる。
const AuthorMaxLength = 200

// TextMaxLength は本文の最大文字数。超過分は切り詰められる。
const TextMaxLength = 4000

// DefaultAuthor は表示名が未指定の場合に使用される表示名。
const DefaultAuthor = "Anonymous"

// Comment はページに紐付くコメント1件を表す永続化単位。
// pageUrlは正規化済みの形（origin+pathnameまたは不透明なスレッド名）で保持する。
type Comment struct {
	ID        string  `json:"id"`
	PageURL   string  `json:"pageUrl"`
	Author    string  `json:"author"`
	Text      string  `json:"text"`
	ParentID  *string `json:"parentId"`
	CreatedAt string  `json:"createdAt"`
	Anchor    Anchor  `json:"anchor"`
}

// Anchor はコメントのページ上の位置記述子。
// Commentに埋め込まれ、単独のライフサイクルを持たない。
// SelectorはDOM変更により失効しうるベストエフォートな参照。
type Anchor struct {
	Selector string `json:"selector,omitempty"`
	XY       *XY    `json:"xy,omitempty"`
}

// XY はコンテナ要素のバウンディングボックスに対する百分率座標。
// 絶対ピクセルではなく百分率で保持することで、
// コンテナのリサイズ後も同じ論理位置に再配置できる。
type XY struct {
	XPct float64 `json:"xPct"`
	YPct float64 `json:"yPct"`
}

// IsTopLevel はトップレベルコメント（返信でない）かどうかを返す。
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// NowISO8601 は現在時刻をISO-8601形式（ミリ秒精度・UTC）で返す。
// createdAtの生成に使用する。
func NowISO8601() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
