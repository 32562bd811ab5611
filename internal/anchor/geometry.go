package anchor

import "github.com/hitoshi/pinnote/internal/model"

// Rect は要素のビューポート上のバウンディングボックスを表す。
// ホスト環境（ブラウザ等）のレイアウト計測結果を受け取るための値型。
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Point はビューポート上のピクセル座標を表す。
type Point struct {
	X float64
	Y float64
}

// Center はボックスの中心点を返す。
func (r Rect) Center() Point {
	return Point{
		X: r.Left + r.Width/2,
		Y: r.Top + r.Height/2,
	}
}

// Capture はクリック位置をコンテナのバウンディングボックスに対する
// 百分率座標へ変換する。生のピクセルは保存しないため、
// リプレイはその後のスクロール・ビューポートサイズ・コンテナの
// リサイズに依存しない。
// 幅または高さが0のコンテナでは当該軸の百分率を0とし、
// 非有限値（NaN/Inf）を伝搬させない。
func Capture(container Rect, click Point) model.XY {
	var xy model.XY
	if container.Width > 0 {
		xy.XPct = 100 * (click.X - container.Left) / container.Width
	}
	if container.Height > 0 {
		xy.YPct = 100 * (click.Y - container.Top) / container.Height
	}
	return xy
}

// RectResolver はセレクタに一致する要素の現在のバウンディングボックスを返す。
// 一致しない場合（DOM変更等）はok=falseを返す。ホスト環境が提供する。
type RectResolver func(selector string) (Rect, bool)

// Replay は保存済みアンカーを現在のビューポートピクセル座標へ復元する。
// セレクタが一致すればそのボックス、しなければbodyのボックスへフォールバックし、
// 百分率座標が未保存の場合はボックス中心を返す。
// 純粋関数であり、DOMが変化しない限り同一の結果を返す（冪等）。
func Replay(a model.Anchor, resolve RectResolver, body Rect) Point {
	container := body
	if a.Selector != "" && resolve != nil {
		if rect, ok := resolve(a.Selector); ok {
			container = rect
		}
	}

	if a.XY == nil {
		return container.Center()
	}

	return Point{
		X: container.Left + container.Width*a.XY.XPct/100,
		Y: container.Top + container.Height*a.XY.YPct/100,
	}
}
