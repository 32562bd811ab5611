package anchor

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// MatchAll はセレクタをドキュメント全体に対して評価し、一致する全ノードを返す。
// 不正なセレクタ（エスケープ漏れ等でコンパイルできないもの）は
// 「一致なし」として扱い、エラーを伝搬させない。
func MatchAll(root *html.Node, selector string) []*html.Node {
	if selector == "" {
		return nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return sel.MatchAll(root)
}

// MatchFirst はセレクタに一致する最初のノードを返す。一致なしはnil。
func MatchFirst(root *html.Node, selector string) *html.Node {
	if selector == "" {
		return nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil
	}
	return sel.MatchFirst(root)
}

// matchCount はセレクタに一致するノード数を返す。
func matchCount(root *html.Node, selector string) int {
	return len(MatchAll(root, selector))
}
