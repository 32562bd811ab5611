// Package reconcile はコメントストアのミラー整合ジョブを提供する。
// コメントはエンコード済みキーをプライマリ、生キーをミラーとして二重に
// 保存されるが、ミラー書き込みはベストエフォートであるため欠損しうる。
// 本ジョブは全エントリを走査し、欠けている側のキーを補完する。
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/pinnote/internal/comment"
	"github.com/hitoshi/pinnote/internal/model"
	"github.com/hitoshi/pinnote/internal/repository"
)

// MirrorMetrics はミラー修復のメトリクス記録インターフェース。
type MirrorMetrics interface {
	RecordMirrorRepaired()
}

// nopMetrics はメトリクス未設定時のno-op実装。
type nopMetrics struct{}

func (nopMetrics) RecordMirrorRepaired() {}

// Reconciler はミラー整合ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な補完処理を保証する。
type Reconciler struct {
	store   repository.BlobStore
	metrics MirrorMetrics
	logger  *slog.Logger
}

// NewReconciler は新しいReconcilerを生成する。
// metricsがnilの場合はno-op実装を使用する。
func NewReconciler(store repository.BlobStore, metrics MirrorMetrics, logger *slog.Logger) *Reconciler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Reconciler{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Start は指定間隔のティッカーで整合ジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("ミラー整合ジョブを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("ミラー整合ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("ミラー整合ジョブを停止しました")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("ミラー整合ジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全エントリを1回走査し、補完したエントリ数を返す。
// 個々のエントリの読み取り・解析失敗は読み飛ばし、走査は継続する。
// 冪等: 両キーが揃っているエントリには何もしない。
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()

	keys, err := r.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("キー一覧の取得に失敗: %w", err)
	}

	existing := make(map[string]bool, len(keys))
	for _, key := range keys {
		existing[key] = true
	}

	repaired := 0
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			r.logger.Warn("エントリの読み取りに失敗したため読み飛ばします",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		var c model.Comment
		if err := json.Unmarshal(data, &c); err != nil || c.ID == "" || c.PageURL == "" {
			r.logger.Warn("コメントとして解釈できないエントリを読み飛ばします",
				slog.String("key", key),
			)
			continue
		}

		for _, counterpart := range []string{
			comment.SafeKey(c.PageURL, c.ID),
			comment.RawKey(c.PageURL, c.ID),
		} {
			if existing[counterpart] {
				continue
			}
			if err := r.store.SetJSON(ctx, counterpart, &c); err != nil {
				r.logger.Warn("ミラーの補完に失敗しました",
					slog.String("key", counterpart),
					slog.String("error", err.Error()),
				)
				continue
			}
			existing[counterpart] = true
			repaired++
			r.metrics.RecordMirrorRepaired()
		}
	}

	duration := time.Since(start)
	r.logger.Info("ミラー整合ジョブが完了しました",
		slog.Int("scanned_count", len(keys)),
		slog.Int("repaired_count", repaired),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return repaired, nil
}
