package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pinnote/internal/metrics"
	"github.com/hitoshi/pinnote/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	StatusRecorder     middleware.HTTPStatusRecorder

	// サービス
	CommentService CommentServiceInterface
	AnchorVerifier AnchorVerifierInterface

	// メトリクス公開用。nilの場合は/metricsを公開しない。
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	// メソッド不一致は統一エラーフォーマットで405を返す
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	commentHandler := NewCommentHandler(deps.CommentService)

	// --- 運用系のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/api/comments", func(r chi.Router) {
			r.Get("/", commentHandler.ListComments)
			r.Delete("/", commentHandler.DeleteComment)

			// POST /api/comments - コメント投稿（投稿専用レート制限を追加）
			if deps.RateLimiter != nil {
				r.With(deps.RateLimiter.CreateMiddleware()).Post("/", commentHandler.CreateComment)
			} else {
				r.Post("/", commentHandler.CreateComment)
			}
		})

		if deps.AnchorVerifier != nil {
			anchorHandler := NewAnchorHandler(deps.AnchorVerifier)
			r.Get("/api/anchors/verify", anchorHandler.VerifyAnchor)
		}
	})

	return r
}
