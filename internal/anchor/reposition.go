package anchor

import (
	"context"
	"time"
)

// DefaultFrameInterval はフレーム単位の集約間隔（約60fps相当）。
const DefaultFrameInterval = 16 * time.Millisecond

// Repositioner はピン再配置の実行要求をフレーム単位に集約する。
// リサイズ・スクロールイベントが連続発火しても、1フレームにつき
// 最大1回しか再配置処理を実行しない。再配置自体は冪等なので
// これは正しさの要件ではなくCPU使用量を抑えるための最適化。
type Repositioner struct {
	fn       func()
	interval time.Duration
	trigger  chan struct{}
}

// NewRepositioner はRepositionerを生成する。
// intervalが0以下の場合はDefaultFrameIntervalを使用する。
func NewRepositioner(fn func(), interval time.Duration) *Repositioner {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Repositioner{
		fn:       fn,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Request は再配置を要求する。ノンブロッキングで、
// 既に要求が保留中の場合は1回に集約される。
func (r *Repositioner) Request() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Start は集約ループを実行する。コンテキストがキャンセルされるまでブロックする。
// 要求を受けるとフレーム間隔だけ待ち、その間に届いた追加要求を
// まとめて1回の実行に集約する。
func (r *Repositioner) Start(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			timer.Reset(r.interval)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return
			case <-timer.C:
			}

			// フレーム待機中に届いた要求はこの実行に集約する
			select {
			case <-r.trigger:
			default:
			}

			r.fn()
		}
	}
}
