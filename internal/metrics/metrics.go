// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordCommentCreated()
	RecordCommentDeleted()
	RecordMirrorWriteFailure()
	RecordListPartialFailure()
	RecordMirrorRepaired()
	RecordHTTPStatus(statusCode int)
	RecordStoreLatency(operation string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	commentsCreated prometheus.Counter
	commentsDeleted prometheus.Counter
	mirrorWriteFail prometheus.Counter
	listPartialFail prometheus.Counter
	mirrorsRepaired prometheus.Counter
	httpStatus      *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinnote_comments_created_total",
			Help: "作成されたコメントの合計数",
		}),
		commentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinnote_comments_deleted_total",
			Help: "削除されたコメントの合計数",
		}),
		mirrorWriteFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinnote_mirror_write_fail_total",
			Help: "旧形式キーへのミラー書き込み失敗の合計数",
		}),
		listPartialFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinnote_list_partial_fail_total",
			Help: "一覧取得で読み飛ばされたエントリの合計数",
		}),
		mirrorsRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinnote_mirrors_repaired_total",
			Help: "整合ワーカーが修復したミラーエントリの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinnote_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pinnote_store_latency_seconds",
			Help:    "ストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.commentsCreated,
		c.commentsDeleted,
		c.mirrorWriteFail,
		c.listPartialFail,
		c.mirrorsRepaired,
		c.httpStatus,
		c.storeLatency,
	)

	return c
}

// RecordCommentCreated はコメント作成を記録する。
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordCommentDeleted はコメント削除を記録する。
func (c *Collector) RecordCommentDeleted() {
	c.commentsDeleted.Inc()
}

// RecordMirrorWriteFailure はミラー書き込み失敗を記録する。
func (c *Collector) RecordMirrorWriteFailure() {
	c.mirrorWriteFail.Inc()
}

// RecordListPartialFailure は一覧取得での読み飛ばしを記録する。
func (c *Collector) RecordListPartialFailure() {
	c.listPartialFail.Inc()
}

// RecordMirrorRepaired は整合ワーカーによるミラー修復を記録する。
func (c *Collector) RecordMirrorRepaired() {
	c.mirrorsRepaired.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStoreLatency はストア操作のレイテンシを記録する。
func (c *Collector) RecordStoreLatency(operation string, duration time.Duration) {
	c.storeLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
