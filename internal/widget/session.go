package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/hitoshi/pinnote/internal/anchor"
	"github.com/hitoshi/pinnote/internal/comment"
	"github.com/hitoshi/pinnote/internal/model"
)

// DefaultAuthor は表示名が未設定の場合に使用する投稿者名。
const DefaultAuthor = "Anonymous"

// CommentAPI はセッションが必要とするコメントAPIのインターフェース。
// Clientを抽象化してテスタビリティを向上させる。
type CommentAPI interface {
	ListComments(ctx context.Context, pageURL string) ([]model.Comment, error)
	CreateComment(ctx context.Context, input CreateCommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, key, secret string) error
}

// NameStore は投稿者の表示名を永続化するインターフェース。
// ホスト環境のローカルストレージ相当を抽象化する。
type NameStore interface {
	// Load は保存済みの表示名を返す。未保存の場合はfalse。
	Load() (string, bool)
	// Save は表示名を保存する。
	Save(name string)
}

// Interactor はホストページのDOM・レイアウトへのアクセスを抽象化する。
// セレクタの矩形解決とピンの表示がセッションから見えるページの全てである。
type Interactor interface {
	// ElementRect はセレクタに一致する要素の矩形を返す。未解決の場合はfalse。
	ElementRect(selector string) (anchor.Rect, bool)
	// BodyRect はページ本文の矩形を返す。アンカー未解決時のフォールバックに使用する。
	BodyRect() anchor.Rect
	// ShowPin は指定コメントのピンを指定座標に表示する。
	ShowPin(commentID string, p anchor.Point)
	// ClearPins は表示中の全ピンを取り除く。
	ClearPins()
	// ConfirmDelete は指定コメントの削除をユーザーに確認する。
	ConfirmDelete(commentID string) bool
}

// Thread は親コメントとその返信のまとまり。
type Thread struct {
	Parent  model.Comment
	Replies []model.Comment
}

// SessionConfig はセッションの設定。
type SessionConfig struct {
	// PageURL は現在のページURL。スレッドキーの算出に使用する。
	PageURL string
	// ThreadKey は明示的なスレッドキー。設定するとページ遷移してもスレッドが固定される。
	ThreadKey string
	// Author は投稿者の表示名。空の場合はNamesの保存値、それも無ければDefaultAuthorを使用する。
	Author string
	// Names は表示名の永続化先。nilの場合は永続化しない。
	Names NameStore
	// ReviewMode は初期状態でレビューモードを有効にするかどうか。
	ReviewMode bool
}

// Session はページ上のコメントスレッドの状態を管理する。
// コメントの取得・投稿、レビューモードの切り替え、ページ遷移の追従、
// リサイズ・スクロールに伴うピンの再配置を担当する。
type Session struct {
	api        CommentAPI
	interactor Interactor
	resolver   *anchor.Resolver
	logger     *slog.Logger

	customThread bool
	names        NameStore

	mu         sync.Mutex
	author     string
	threadKey  string
	reviewMode bool
	comments   []model.Comment

	repositioner *anchor.Repositioner
}

// NewSession はSessionを生成する。
// configにThreadKeyが設定されている場合はそれを固定スレッドキーとして使い、
// 未設定の場合はPageURLを正規化したものをスレッドキーとする。
func NewSession(commentAPI CommentAPI, interactor Interactor, logger *slog.Logger, config SessionConfig) *Session {
	threadKey := config.ThreadKey
	customThread := threadKey != ""
	if !customThread {
		threadKey = comment.NormalizePageURL(config.PageURL)
	}

	author := config.Author
	if author == "" && config.Names != nil {
		if saved, ok := config.Names.Load(); ok {
			author = saved
		}
	}
	if author == "" {
		author = DefaultAuthor
	}

	s := &Session{
		api:          commentAPI,
		interactor:   interactor,
		resolver:     anchor.NewResolver(),
		logger:       logger,
		customThread: customThread,
		names:        config.Names,
		author:       author,
		threadKey:    threadKey,
		reviewMode:   config.ReviewMode,
	}
	s.repositioner = anchor.NewRepositioner(s.repositionAll, anchor.DefaultFrameInterval)
	return s
}

// Start はピン再配置のバックグラウンドループを開始する。
// コンテキストが取り消されるまでブロックするため、goroutineで呼び出す。
func (s *Session) Start(ctx context.Context) {
	s.repositioner.Start(ctx)
}

// ThreadKey は現在のスレッドキーを返す。
func (s *Session) ThreadKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadKey
}

// ReviewMode はレビューモードが有効かどうかを返す。
func (s *Session) ReviewMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewMode
}

// ToggleReviewMode はレビューモードを切り替え、切り替え後の状態を返す。
// レビューモードを抜けるとピンは非表示になる。
func (s *Session) ToggleReviewMode() bool {
	s.mu.Lock()
	s.reviewMode = !s.reviewMode
	on := s.reviewMode
	s.mu.Unlock()

	if on {
		s.RequestReposition()
	} else {
		s.interactor.ClearPins()
	}
	return on
}

// Author は現在の投稿者表示名を返す。
func (s *Session) Author() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.author
}

// SetAuthor は投稿者の表示名を設定し、NameStoreがあれば永続化する。
// 空白のみの名前は無視される。
func (s *Session) SetAuthor(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	s.mu.Lock()
	s.author = name
	s.mu.Unlock()

	if s.names != nil {
		s.names.Save(name)
	}
}

// Load はスレッドのコメントを取得し、ピンを再配置する。
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	threadKey := s.threadKey
	s.mu.Unlock()

	comments, err := s.api.ListComments(ctx, threadKey)
	if err != nil {
		return fmt.Errorf("コメントの読み込みに失敗しました: %w", err)
	}

	s.mu.Lock()
	s.comments = comments
	s.mu.Unlock()

	s.RequestReposition()
	return nil
}

// Comments は取得済みコメントのコピーを返す。
func (s *Session) Comments() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// Threads は取得済みコメントを親コメントごとのスレッドにまとめて返す。
// 親が見つからない返信は無視される。
func (s *Session) Threads() []Thread {
	comments := s.Comments()

	var threads []Thread
	index := make(map[string]int)
	for _, c := range comments {
		if c.IsTopLevel() {
			index[c.ID] = len(threads)
			threads = append(threads, Thread{Parent: c})
		}
	}
	for _, c := range comments {
		if c.IsTopLevel() || c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}

// CaptureAnchor はクリックされた要素からアンカー記述子を構築する。
// 祖先方向で最も近い安定セレクタの要素をコンテナとして選び、
// コンテナ矩形に対するクリック位置をパーセンテージ座標として記録する。
func (s *Session) CaptureAnchor(root, target *html.Node, click anchor.Point) model.Anchor {
	selector, _ := s.resolver.Resolve(root, target)

	var container anchor.Rect
	ok := false
	if selector != "" {
		container, ok = s.interactor.ElementRect(selector)
	}
	if !ok {
		container = s.interactor.BodyRect()
	}

	xy := anchor.Capture(container, click)
	a := model.Anchor{XY: &xy}
	if selector != "" {
		a.Selector = selector
	}
	return a
}

// AddComment はコメントを投稿し、ローカルのキャッシュに反映する。
// レビューモードでない場合、および本文が空の場合は投稿しない。
func (s *Session) AddComment(ctx context.Context, text string, parentID *string, a model.Anchor) (*model.Comment, error) {
	if !s.ReviewMode() {
		return nil, fmt.Errorf("レビューモードが無効です")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("コメント本文が空です")
	}

	s.mu.Lock()
	threadKey := s.threadKey
	author := s.author
	s.mu.Unlock()

	created, err := s.api.CreateComment(ctx, CreateCommentRequest{
		PageURL:  threadKey,
		Text:     text,
		Author:   author,
		ParentID: parentID,
		Anchor:   a,
	})
	if err != nil {
		return nil, fmt.Errorf("コメントの投稿に失敗しました: %w", err)
	}

	s.mu.Lock()
	s.comments = append(s.comments, *created)
	s.mu.Unlock()

	s.RequestReposition()
	return created, nil
}

// DeleteComment は指定コメントを削除する。削除前にInteractor経由でユーザーに確認し、
// 拒否された場合は何もせずfalseを返す。削除後はキャッシュから取り除きピンを再配置する。
func (s *Session) DeleteComment(ctx context.Context, commentID, secret string) (bool, error) {
	s.mu.Lock()
	threadKey := s.threadKey
	found := false
	for _, c := range s.comments {
		if c.ID == commentID {
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return false, fmt.Errorf("コメントが見つかりません: %s", commentID)
	}

	if !s.interactor.ConfirmDelete(commentID) {
		return false, nil
	}

	if err := s.api.DeleteComment(ctx, comment.SafeKey(threadKey, commentID), secret); err != nil {
		return false, fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}

	s.mu.Lock()
	kept := s.comments[:0]
	for _, c := range s.comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	s.comments = kept
	s.mu.Unlock()

	s.RequestReposition()
	return true, nil
}

// OnNavigate はページ遷移を通知する。スレッドキーが変わる場合はコメントを再取得する。
// 明示的なThreadKeyが設定されているセッションでは遷移を無視する。
func (s *Session) OnNavigate(ctx context.Context, newPageURL string) error {
	if s.customThread {
		return nil
	}

	newKey := comment.NormalizePageURL(newPageURL)

	s.mu.Lock()
	if newKey == s.threadKey {
		s.mu.Unlock()
		return nil
	}
	s.threadKey = newKey
	s.comments = nil
	s.mu.Unlock()

	s.interactor.ClearPins()
	return s.Load(ctx)
}

// RequestReposition はピンの再配置を要求する。
// リサイズ・スクロールのバーストは1回の再配置にまとめられる。
func (s *Session) RequestReposition() {
	s.repositioner.Request()
}

// repositionAll は全コメントのピン位置を現在のレイアウトで再計算して配置する。
func (s *Session) repositionAll() {
	s.mu.Lock()
	reviewMode := s.reviewMode
	comments := make([]model.Comment, len(s.comments))
	copy(comments, s.comments)
	s.mu.Unlock()

	if !reviewMode {
		return
	}

	s.interactor.ClearPins()
	body := s.interactor.BodyRect()
	for _, c := range comments {
		// ピンを持つのは親コメントのみ。返信は親のスレッドに表示される。
		if !c.IsTopLevel() {
			continue
		}
		p := anchor.Replay(c.Anchor, s.interactor.ElementRect, body)
		s.interactor.ShowPin(c.ID, p)
	}
}
