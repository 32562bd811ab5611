package anchor

import (
	"math"
	"testing"

	"github.com/hitoshi/pinnote/internal/model"
)

// TestCapture_Center はコンテナ中央のクリックが50%/50%として記録されることをテストする。
func TestCapture_Center(t *testing.T) {
	container := Rect{Left: 100, Top: 200, Width: 400, Height: 300}
	xy := Capture(container, Point{X: 300, Y: 350})
	if xy.XPct != 50 || xy.YPct != 50 {
		t.Errorf("期待 {50 50}, 実際 {%v %v}", xy.XPct, xy.YPct)
	}
}

// TestCapture_TopLeft はコンテナ左上のクリックが0%/0%として記録されることをテストする。
func TestCapture_TopLeft(t *testing.T) {
	container := Rect{Left: 100, Top: 200, Width: 400, Height: 300}
	xy := Capture(container, Point{X: 100, Y: 200})
	if xy.XPct != 0 || xy.YPct != 0 {
		t.Errorf("期待 {0 0}, 実際 {%v %v}", xy.XPct, xy.YPct)
	}
}

// TestCapture_ZeroDimension は幅・高さが0のコンテナで0%が返りNaN/Infにならないことをテストする。
func TestCapture_ZeroDimension(t *testing.T) {
	container := Rect{Left: 10, Top: 10, Width: 0, Height: 0}
	xy := Capture(container, Point{X: 50, Y: 50})
	if xy.XPct != 0 || xy.YPct != 0 {
		t.Errorf("期待 {0 0}, 実際 {%v %v}", xy.XPct, xy.YPct)
	}
	if math.IsNaN(xy.XPct) || math.IsInf(xy.XPct, 0) {
		t.Error("XPctはNaN/Infであってはならない")
	}
}

// TestReplay_CenterAfterResize は中央で記録した座標がリサイズ後も新しい矩形の中央に再現されることをテストする。
func TestReplay_CenterAfterResize(t *testing.T) {
	before := Rect{Left: 0, Top: 0, Width: 400, Height: 300}
	xy := Capture(before, before.Center())

	after := Rect{Left: 50, Top: 80, Width: 800, Height: 600}
	resolve := func(selector string) (Rect, bool) { return after, true }

	a := model.Anchor{Selector: "#box", XY: &xy}
	p := Replay(a, resolve, Rect{Width: 1000, Height: 1000})

	center := after.Center()
	if p.X != center.X || p.Y != center.Y {
		t.Errorf("期待 %+v, 実際 %+v", center, p)
	}
}

// TestReplay_BodyFallback はセレクタが解決できない場合にbody矩形が使われることをテストする。
func TestReplay_BodyFallback(t *testing.T) {
	body := Rect{Left: 0, Top: 0, Width: 1000, Height: 2000}
	resolve := func(selector string) (Rect, bool) { return Rect{}, false }

	a := model.Anchor{Selector: "#gone", XY: &model.XY{XPct: 10, YPct: 25}}
	p := Replay(a, resolve, body)

	if p.X != 100 || p.Y != 500 {
		t.Errorf("期待 {100 500}, 実際 %+v", p)
	}
}

// TestReplay_NoXY は座標がない場合にコンテナ中央が返ることをテストする。
func TestReplay_NoXY(t *testing.T) {
	box := Rect{Left: 10, Top: 20, Width: 100, Height: 50}
	resolve := func(selector string) (Rect, bool) { return box, true }

	a := model.Anchor{Selector: "#box"}
	p := Replay(a, resolve, Rect{Width: 1000, Height: 1000})

	center := box.Center()
	if p.X != center.X || p.Y != center.Y {
		t.Errorf("期待 %+v, 実際 %+v", center, p)
	}
}

// TestReplay_Idempotent は同じ入力に対してReplayが常に同じ結果を返すことをテストする。
func TestReplay_Idempotent(t *testing.T) {
	box := Rect{Left: 5, Top: 5, Width: 90, Height: 40}
	resolve := func(selector string) (Rect, bool) { return box, true }
	a := model.Anchor{Selector: "#box", XY: &model.XY{XPct: 33.3, YPct: 66.6}}

	first := Replay(a, resolve, Rect{})
	for i := 0; i < 3; i++ {
		if got := Replay(a, resolve, Rect{}); got != first {
			t.Errorf("再実行 %d 回目で結果が変化: %+v != %+v", i+1, got, first)
		}
	}
}
