// Package comment はページ単位のコメント集合のドメインロジックを提供する。
// フラットなblobストアの上にページスコープのCRUDを実現し、
// 2種類のキーエンコーディングの読み取り時リコンシリエーションを行う。
package comment

import (
	"net/url"
	"strings"
)

// NormalizePageURL はページURLを正規化してスレッドキーを返す。
// 絶対URLとしてパースできる場合はorigin+pathname（クエリとフラグメントは除去）を返し、
// パースできない場合（不透明なカスタムスレッド名など）はそのまま返す。
// 同一文字列に対して冪等である。
func NormalizePageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return raw
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return u.Scheme + "://" + u.Host + path
}

// RawKey は人間可読なキーを返す。コロンとスラッシュを含むため、
// パス文字を特別扱いするバックエンドでは拒否されうる。
func RawKey(pageKey, id string) string {
	return pageKey + "/" + id + ".json"
}

// SafeKey はバックエンド安全なパーセントエンコード済みキーを返す。
// 一覧取得のプライマリキー形式として使用する。
func SafeKey(pageKey, id string) string {
	return SafePrefix(pageKey) + id + ".json"
}

// RawPrefix は生キー形式のプレフィックス（末尾スラッシュ付き）を返す。
func RawPrefix(pageKey string) string {
	return pageKey + "/"
}

// SafePrefix はエンコード済みキー形式のプレフィックスを返す。
// ページキー全体をエンコードし、区切りのスラッシュだけを生のまま残すことで
// プレフィックス一覧を1回のクエリで行える。
func SafePrefix(pageKey string) string {
	return encodeURIComponent(pageKey) + "/"
}

// encodeURIComponent はJavaScriptのencodeURIComponentと互換のエンコードを行う。
// 既存デプロイが書き込んだキーと一致させるため、url.QueryEscapeではなく
// この互換実装を使用する（エスケープ対象文字の集合が異なる）。
func encodeURIComponent(s string) string {
	const hexDigits = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

// isURIComponentSafe はencodeURIComponentがエスケープしない文字かどうかを返す。
// 英数字に加えて - _ . ! ~ * ' ( ) が対象。
func isURIComponentSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
