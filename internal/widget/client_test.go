package widget

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/pinnote/internal/anchor"
	"github.com/hitoshi/pinnote/internal/comment"
	"github.com/hitoshi/pinnote/internal/handler"
	"github.com/hitoshi/pinnote/internal/model"
	"github.com/hitoshi/pinnote/internal/repository"
	"github.com/hitoshi/pinnote/internal/security"
)

// newAPIServer は実サービス構成のAPIサーバーを起動し、クライアントと共に返す。
func newAPIServer(t *testing.T) (*Client, *repository.MemoryBlobRepo) {
	t.Helper()

	store := repository.NewMemoryBlobRepo()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	service := comment.NewService(store, security.NewContentSanitizer(), nil, logger, comment.ServiceConfig{
		DeleteSecret: "client-test-secret",
	})

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:         logger,
		CommentService: service,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, 5*time.Second), store
}

// TestClient_CreateAndList はクライアント経由の投稿と一覧取得のラウンドトリップを検証する。
func TestClient_CreateAndList(t *testing.T) {
	client, _ := newAPIServer(t)
	ctx := context.Background()

	created, err := client.CreateComment(ctx, CreateCommentRequest{
		PageURL: "https://blog.example.com/post",
		Text:    "looks good",
		Author:  "Reviewer",
		Anchor: model.Anchor{
			Selector: "#intro",
			XY:       &model.XY{XPct: 25, YPct: 75},
		},
	})
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if created.ID == "" {
		t.Error("作成されたコメントはIDを持つはず")
	}
	if created.Author != "Reviewer" {
		t.Errorf("Author = %q", created.Author)
	}

	comments, err := client.ListComments(ctx, "https://blog.example.com/post")
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("len(comments) = %d, want 1", len(comments))
	}
	if comments[0].Anchor.Selector != "#intro" {
		t.Errorf("Anchor.Selector = %q", comments[0].Anchor.Selector)
	}
	if comments[0].Anchor.XY == nil || comments[0].Anchor.XY.YPct != 75 {
		t.Errorf("Anchor.XY = %+v", comments[0].Anchor.XY)
	}
}

// TestClient_CreateComment_ValidationError はサーバー側の検証エラーがエラーとして伝播することを検証する。
func TestClient_CreateComment_ValidationError(t *testing.T) {
	client, _ := newAPIServer(t)

	_, err := client.CreateComment(context.Background(), CreateCommentRequest{
		PageURL: "https://blog.example.com/post",
	})
	if err == nil {
		t.Fatal("本文なしの投稿はエラーになるべき")
	}
}

// TestClient_DeleteComment はキー指定の削除がストアに反映されることを検証する。
func TestClient_DeleteComment(t *testing.T) {
	client, store := newAPIServer(t)
	ctx := context.Background()

	created, err := client.CreateComment(ctx, CreateCommentRequest{
		PageURL: "https://blog.example.com/post",
		Text:    "remove me",
	})
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}

	safeKey := comment.SafeKey("https://blog.example.com/post", created.ID)
	if err := client.DeleteComment(ctx, safeKey, "client-test-secret"); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}

	// プライマリキーは削除され、ミラーのみ残る
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}
}

// TestClient_DeleteComment_WrongSecret は不正なシークレットでの削除が拒否されることを検証する。
func TestClient_DeleteComment_WrongSecret(t *testing.T) {
	client, store := newAPIServer(t)
	ctx := context.Background()

	created, err := client.CreateComment(ctx, CreateCommentRequest{
		PageURL: "https://blog.example.com/post",
		Text:    "protected",
	})
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}

	safeKey := comment.SafeKey("https://blog.example.com/post", created.ID)
	if err := client.DeleteComment(ctx, safeKey, "wrong"); err == nil {
		t.Fatal("不正なシークレットはエラーになるべき")
	}
	if store.Len() != 2 {
		t.Errorf("store.Len() = %d, 削除されていないはず", store.Len())
	}
}

// TestSession_EndToEnd はセッション+クライアント+実サーバーの一連の流れを検証する。
func TestSession_EndToEnd(t *testing.T) {
	client, _ := newAPIServer(t)
	interactor := newMockInteractor()
	interactor.rects["#intro"] = anchor.Rect{Left: 100, Top: 100, Width: 400, Height: 200}

	s := NewSession(client, interactor, sessionTestLogger(), SessionConfig{
		PageURL:    "https://blog.example.com/post?utm_source=mail",
		Author:     "Reviewer",
		ReviewMode: true,
	})

	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(s.Comments()); got != 0 {
		t.Fatalf("初期状態のコメント数 = %d, want 0", got)
	}

	created, err := s.AddComment(ctx, "section feedback", nil, model.Anchor{
		Selector: "#intro",
		XY:       &model.XY{XPct: 50, YPct: 50},
	})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if created.PageURL != "https://blog.example.com/post" {
		t.Errorf("PageURL = %q, 正規化されているはず", created.PageURL)
	}

	// 別セッションから同じスレッドを読み込んでも見える
	s2 := NewSession(client, newMockInteractor(), sessionTestLogger(), SessionConfig{
		PageURL: "https://blog.example.com/post",
	})
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(s2.Comments()); got != 1 {
		t.Errorf("別セッションのコメント数 = %d, want 1", got)
	}

	// レビューモードでピンが配置される
	s.repositionAll()
	if p, ok := interactor.pinAt(created.ID); !ok || p.X != 300 || p.Y != 200 {
		t.Errorf("ピン位置 = %+v, want {300 200}", p)
	}
}
