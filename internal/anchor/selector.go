package anchor

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxPathDepth は:nth-of-typeパス構築で遡るデフォルトの最大レベル数。
// クリックごとにドキュメント全体へ一意性プローブを行うため、上限で抑える。
const DefaultMaxPathDepth = 4

// hookAttrs はセレクタ構築で優先的に使用する属性の固定順リスト。
var hookAttrs = []string{"data-testid", "data-test", "aria-label", "name"}

// Resolver はクリック対象の要素から再配置可能なセレクタを導出する。
type Resolver struct {
	// MaxPathDepth は位置ベースのパス構築で遡る最大レベル数。
	// 0以下の場合はDefaultMaxPathDepthを使用する。
	MaxPathDepth int
}

// NewResolver はデフォルト設定のResolverを生成する。
func NewResolver() *Resolver {
	return &Resolver{MaxPathDepth: DefaultMaxPathDepth}
}

// Candidate はアンカーコンテナの候補1件を表す。
// 候補は対象要素自身から祖先に向かう近い順で列挙される。
type Candidate struct {
	Label    string
	Selector string
	Node     *html.Node
}

// Candidates は対象要素からbody直前までの祖先チェーンを辿り、
// 各要素につき1件のアンカー候補を近い順で返す。
// data-annotate-id属性を持つ要素はその属性セレクタを、
// 持たない要素は合成セレクタを使用する。
func (r *Resolver) Candidates(root, target *html.Node) []Candidate {
	var candidates []Candidate

	for el := target; el != nil && !isBody(el); {
		if el.Type != html.ElementNode {
			el = el.Parent
			continue
		}

		if v := attrValue(el, "data-annotate-id"); v != "" {
			selector := `[data-annotate-id="` + escapeAttrValue(v) + `"]`
			candidates = append(candidates, Candidate{
				Label:    `data-annotate-id="` + v + `"`,
				Selector: selector,
				Node:     el,
			})
		} else if selector := r.BuildSelectorFor(root, el); selector != "" {
			candidates = append(candidates, Candidate{
				Label:    selector,
				Selector: selector,
				Node:     el,
			})
		}

		el = parentElement(el)
	}

	return candidates
}

// Resolve はアンカーコンテナを自動選択する。
// 候補リストの先頭（最も近い祖先）を採用し、候補がない場合は
// 対象要素自身のセレクタを構築して返す。セレクタは空になりうる。
func (r *Resolver) Resolve(root, target *html.Node) (string, *html.Node) {
	candidates := r.Candidates(root, target)
	if len(candidates) > 0 {
		return candidates[0].Selector, candidates[0].Node
	}
	return r.BuildSelectorFor(root, target), target
}

// BuildSelectorFor は任意の要素の再配置可能なセレクタを合成する。
// 優先順位（最初に該当したものを採用）:
//  1. data-annotate-id属性の属性一致セレクタ
//  2. ドキュメント内で一意なid属性の#idセレクタ
//  3. data-testid / data-test / aria-label / name 属性（固定順）のtag[attr="value"]
//  4. tag:nth-of-type(n)を「>」で連結した位置パス（最短一意プレフィックスを優先、
//     MaxPathDepthレベルで打ち切り。打ち切り時のパスは曖昧でありうる）
func (r *Resolver) BuildSelectorFor(root, el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return ""
	}

	if v := attrValue(el, "data-annotate-id"); v != "" {
		return `[data-annotate-id="` + escapeAttrValue(v) + `"]`
	}

	if id := attrValue(el, "id"); id != "" {
		selector := "#" + escapeIdent(id)
		if matchCount(root, selector) == 1 {
			return selector
		}
	}

	for _, attr := range hookAttrs {
		if v := attrValue(el, attr); v != "" {
			return el.Data + "[" + attr + `="` + escapeAttrValue(v) + `"]`
		}
	}

	return r.buildPositionalPath(root, el)
}

// buildPositionalPath は:nth-of-typeセグメントを祖先方向に積み上げ、
// パスがドキュメント内で一意になった時点で打ち切って返す。
func (r *Resolver) buildPositionalPath(root, el *html.Node) string {
	maxDepth := r.MaxPathDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPathDepth
	}

	var parts []string
	for node := el; node != nil && !isBody(node) && len(parts) < maxDepth; {
		if node.Type != html.ElementNode {
			break
		}
		parent := parentElement(node)
		if parent == nil {
			break
		}

		seg := node.Data + ":nth-of-type(" + strconv.Itoa(sameTagIndex(node)) + ")"
		parts = append([]string{seg}, parts...)

		selector := strings.Join(parts, ">")
		if matchCount(root, selector) == 1 {
			return selector
		}

		node = parent
	}

	// 一意にならないまま打ち切った場合はベストエフォートで返す
	return strings.Join(parts, ">")
}

// --- DOMヘルパー ---

// attrValue は要素の属性値を返す。属性がない場合は空文字列。
func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// isBody は要素がbody要素かどうかを返す。
func isBody(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Body
}

// parentElement は最も近い要素型の祖先を返す。なければnil。
func parentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

// sameTagIndex は同タグの兄弟要素の中での1始まりの位置を返す。
func sameTagIndex(n *html.Node) int {
	index := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.DataAtom == n.DataAtom && sib.Data == n.Data {
			index++
		}
	}
	return index
}
