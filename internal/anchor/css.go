// Package anchor はページ上のクリック位置を再配置可能な位置記述子
// （セレクタ＋百分率座標）へ変換・復元するアンカー解決機能を提供する。
// セレクタ構築、座標のキャプチャとリプレイ、フレーム単位の再配置集約、
// ライブページに対するアンカー検証を含む。
package anchor

import (
	"strconv"
	"strings"
)

// escapeIdent はCSS識別子コンテキスト用のエスケープを行う。
// [a-zA-Z0-9_-] 以外の文字を「\<hex> 」形式（16進コードポイント＋区切り空白）に
// 置き換える。#idセレクタの構築に使用する。
func escapeIdent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isIdentSafe(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('\\')
		b.WriteString(strconv.FormatInt(int64(r), 16))
		b.WriteByte(' ')
	}
	return b.String()
}

// isIdentSafe はエスケープ不要なCSS識別子文字かどうかを返す。
func isIdentSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}

// escapeAttrValue はCSS属性セレクタの文字列コンテキスト用のエスケープを行う。
// 引用符とバックスラッシュを無害化する。
func escapeAttrValue(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
	)
	return replacer.Replace(s)
}
