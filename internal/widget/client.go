// Package widget は埋め込みウィジェットのクライアント側ロジックを提供する。
//
// Session がコメントスレッドの状態（スレッドキー、レビューモード、
// 取得済みコメント、ピン配置）を管理し、Client がコメントAPIとの
// HTTP通信を担当する。ページのDOM・レイアウトへのアクセスは
// Interactor インターフェースを通じて抽象化される。
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/pinnote/internal/anchor"
	"github.com/hitoshi/pinnote/internal/model"
)

// Client はコメントAPIのHTTPクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient はClientを生成する。baseURLはAPIのルート（例: https://notes.example.com）。
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateCommentRequest はコメント作成リクエスト。
type CreateCommentRequest struct {
	PageURL  string       `json:"pageUrl"`
	Text     string       `json:"text"`
	Author   string       `json:"author,omitempty"`
	ParentID *string      `json:"parentId,omitempty"`
	Anchor   model.Anchor `json:"anchor"`
}

// ListComments はページに紐づくコメント一覧を取得する。
func (c *Client) ListComments(ctx context.Context, pageURL string) ([]model.Comment, error) {
	endpoint := c.baseURL + "/api/comments?pageUrl=" + url.QueryEscape(pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("コメント一覧の取得に失敗しました", resp)
	}

	var comments []model.Comment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return nil, fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return comments, nil
}

// CreateComment はコメントを作成し、保存されたコメントを返す。
func (c *Client) CreateComment(ctx context.Context, input CreateCommentRequest) (*model.Comment, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("リクエストのシリアライズに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/comments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("コメントの作成に失敗しました", resp)
	}

	var created model.Comment
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return &created, nil
}

// DeleteComment はストアキーを指定してコメントを削除する（モデレーション用）。
func (c *Client) DeleteComment(ctx context.Context, key, secret string) error {
	endpoint := c.baseURL + "/api/comments?key=" + url.QueryEscape(key) + "&secret=" + url.QueryEscape(secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return apiError("コメントの削除に失敗しました", resp)
	}
	return nil
}

// VerifyAnchor は保存済みアンカーがライブページ上で解決できるかを確認する。
func (c *Client) VerifyAnchor(ctx context.Context, pageURL, selector string) (*anchor.VerifyResult, error) {
	endpoint := c.baseURL + "/api/anchors/verify?pageUrl=" + url.QueryEscape(pageURL) + "&selector=" + url.QueryEscape(selector)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("アンカー検証に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("アンカー検証に失敗しました", resp)
	}

	var result anchor.VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}
	return &result, nil
}

// apiError はエラーレスポンスのボディからエラーメッセージを取り出してエラーを組み立てる。
func apiError(prefix string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s: %s (status %d)", prefix, payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("%s: status %d", prefix, resp.StatusCode)
}
