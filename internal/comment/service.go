package comment

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/pinnote/internal/model"
	"github.com/hitoshi/pinnote/internal/repository"
)

// SanitizerService はコメント本文・表示名のサニタイズ機能のインターフェース。
// security.ContentSanitizerServiceを抽象化してテスタビリティを向上させる。
type SanitizerService interface {
	Sanitize(raw string) string
}

// MetricsRecorder はコメント操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordCommentCreated()
	RecordCommentDeleted()
	RecordMirrorWriteFailure()
	RecordListPartialFailure()
}

// nopMetrics はメトリクス未設定時のno-op実装。
type nopMetrics struct{}

func (nopMetrics) RecordCommentCreated()     {}
func (nopMetrics) RecordCommentDeleted()     {}
func (nopMetrics) RecordMirrorWriteFailure() {}
func (nopMetrics) RecordListPartialFailure() {}

// ServiceConfig はコメントサービスの設定。
type ServiceConfig struct {
	// DeleteSecret は削除操作の共有シークレット。
	// 空の場合、削除は常に拒否される。
	DeleteSecret string
}

// Service はblobストアの上にページスコープのコメントCRUDを提供する。
// 書き込みはエンコード済みキーをプライマリとし、生キーへベストエフォートでミラーする。
// 読み取りは両キー形式のプレフィックスを照会してIDで重複排除する。
type Service struct {
	store     repository.BlobStore
	sanitizer SanitizerService
	metrics   MetricsRecorder
	logger    *slog.Logger
	config    ServiceConfig
}

// NewService はServiceを生成する。
// metricsがnilの場合はno-op実装を使用する。
func NewService(
	store repository.BlobStore,
	sanitizer SanitizerService,
	metrics MetricsRecorder,
	logger *slog.Logger,
	config ServiceConfig,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		store:     store,
		sanitizer: sanitizer,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

// CreateInput はコメント作成の入力。
type CreateInput struct {
	PageURL  string
	Text     string
	Author   string
	ParentID *string
	Anchor   model.Anchor
}

// Create はコメントを作成して永続化し、保存されたコメントを返す。
// エンコード済みキーへの書き込み成功が唯一の成功条件で、
// 生キーへのミラー書き込みの失敗はログに残して握りつぶす。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Comment, error) {
	if input.PageURL == "" || input.Text == "" {
		return nil, model.NewMissingFieldsError("pageUrl and text are required")
	}

	pageKey := NormalizePageURL(input.PageURL)
	id := uuid.NewString()

	author := input.Author
	if author == "" {
		author = model.DefaultAuthor
	}

	c := &model.Comment{
		ID:        id,
		PageURL:   pageKey,
		Author:    truncateRunes(s.sanitize(author), model.AuthorMaxLength),
		Text:      truncateRunes(s.sanitize(input.Text), model.TextMaxLength),
		ParentID:  input.ParentID,
		CreatedAt: model.NowISO8601(),
		Anchor:    input.Anchor,
	}

	safeKey := SafeKey(pageKey, id)
	if err := s.store.SetJSON(ctx, safeKey, c); err != nil {
		s.logger.Error("コメントの書き込みに失敗しました",
			slog.String("operation", "create"),
			slog.String("key", safeKey),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreError("Failed to create comment")
	}

	// 生キー形式しか読めない既存デプロイとの互換のためのミラー書き込み
	rawKey := RawKey(pageKey, id)
	if err := s.store.SetJSON(ctx, rawKey, c); err != nil {
		s.metrics.RecordMirrorWriteFailure()
		s.logger.Warn("生キーへのミラー書き込みに失敗しました",
			slog.String("operation", "create"),
			slog.String("key", rawKey),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.RecordCommentCreated()
	return c, nil
}

// List は指定ページの全コメントをcreatedAt昇順で返す。
// 生キー・エンコード済みキー双方のプレフィックスを照会し、IDで重複排除する。
// 個別のプレフィックス照会・blob取得の失敗は全体を失敗させず、
// 部分的な結果を返す（完全な失敗より部分的な結果を優先する）。
func (s *Service) List(ctx context.Context, pageURL string) ([]model.Comment, error) {
	if pageURL == "" {
		return nil, model.NewMissingPageURLError()
	}

	pageKey := NormalizePageURL(pageURL)
	prefixes := []string{RawPrefix(pageKey), SafePrefix(pageKey)}

	// 2つのプレフィックス照会は独立した読み取りなので並行に実行する。
	// マージ順は決定的にするためprefixes順を維持する。
	results := make([][]model.Comment, len(prefixes))
	var wg sync.WaitGroup
	for i, prefix := range prefixes {
		wg.Add(1)
		go func(i int, prefix string) {
			defer wg.Done()
			results[i] = s.listPrefix(ctx, prefix)
		}(i, prefix)
	}
	wg.Wait()

	merged := dedupeByID(append(results[0], results[1]...))

	sort.SliceStable(merged, func(i, j int) bool {
		return parseCreatedAt(merged[i].CreatedAt).Before(parseCreatedAt(merged[j].CreatedAt))
	})

	return merged, nil
}

// listPrefix は1つのプレフィックス配下の全コメントを取得する。
// プレフィックス照会自体の失敗は「該当なし」として扱い、
// 個別blobの取得・デコード失敗はそのエントリのみをスキップする。
func (s *Service) listPrefix(ctx context.Context, prefix string) []model.Comment {
	keys, err := s.store.List(ctx, prefix)
	if err != nil {
		s.metrics.RecordListPartialFailure()
		s.logger.Warn("プレフィックス照会に失敗しました",
			slog.String("operation", "list"),
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		return nil
	}

	comments := make([]model.Comment, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if err != nil {
			s.metrics.RecordListPartialFailure()
			s.logger.Warn("コメントblobの取得に失敗しました",
				slog.String("operation", "list"),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		var c model.Comment
		if err := json.Unmarshal(data, &c); err != nil {
			s.metrics.RecordListPartialFailure()
			s.logger.Warn("コメントblobのデコードに失敗しました",
				slog.String("operation", "list"),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		comments = append(comments, c)
	}

	return comments
}

// Delete は指定のストアキーのコメントを削除する。
// keyはコメントIDではなくストアキーそのもの。
// secretがサーバー側のDeleteSecretと一致しない場合は拒否する。
// 注意: 作成時のミラーと異なり、対になるキーは削除しない（既知の非対称）。
func (s *Service) Delete(ctx context.Context, key, secret string) error {
	if key == "" || secret == "" {
		return model.NewMissingFieldsError("key and secret parameters required")
	}

	if s.config.DeleteSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.DeleteSecret)) != 1 {
		return model.NewInvalidSecretError()
	}

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("コメントの削除に失敗しました",
			slog.String("operation", "delete"),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return model.NewStoreError("Failed to delete comment")
	}

	s.metrics.RecordCommentDeleted()
	return nil
}

// sanitize はサニタイザー設定時のみサニタイズを適用する。
func (s *Service) sanitize(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}

// dedupeByID はIDで重複排除する。最初の出現位置を保ちつつ、
// 同一IDの後続エントリで内容を上書きする。
func dedupeByID(comments []model.Comment) []model.Comment {
	result := make([]model.Comment, 0, len(comments))
	index := make(map[string]int, len(comments))

	for _, c := range comments {
		if pos, seen := index[c.ID]; seen {
			result[pos] = c
			continue
		}
		index[c.ID] = len(result)
		result = append(result, c)
	}
	return result
}

// parseCreatedAt はcreatedAt文字列をパースする。
// パースできない場合はゼロ値を返し、ソートで先頭に寄せられる。
func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// truncateRunes は文字列をn文字（rune単位）に切り詰める。
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
