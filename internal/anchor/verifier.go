package anchor

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SSRFValidator はSSRF検証のインターフェース。
// security.SSRFGuardServiceを抽象化してテスタビリティを向上させる。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// VerifyResult はライブページに対するアンカー検証の結果。
type VerifyResult struct {
	// Matches はセレクタに一致した要素数。
	Matches int `json:"matches"`
	// Unique は一致がちょうど1件かどうか。
	Unique bool `json:"unique"`
	// Stale は一致が0件（アンカー失効の可能性）かどうか。
	Stale bool `json:"stale"`
}

// Verifier は保存済みアンカーがライブページ上でまだ解決できるかを検証する。
// ページの取得にはSSRF防止機能付きのHTTPクライアントを使用する。
type Verifier struct {
	ssrfGuard SSRFValidator
	timeout   time.Duration
	maxSize   int64
}

// NewVerifier はVerifierの新しいインスタンスを生成する。
func NewVerifier(ssrfGuard SSRFValidator, timeout time.Duration, maxSize int64) *Verifier {
	return &Verifier{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// Verify は指定ページを取得してセレクタを評価し、一致状況を返す。
// 不正なセレクタは一致0件（Stale）として扱い、エラーにしない。
func (v *Verifier) Verify(pageURL, selector string) (*VerifyResult, error) {
	if err := v.ssrfGuard.ValidateURL(pageURL); err != nil {
		return nil, fmt.Errorf("URL検証に失敗しました: %w", err)
	}

	client := v.ssrfGuard.NewSafeClient(v.timeout)
	resp, err := client.Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("ページの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ページの取得に失敗しました: status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, v.maxSize)
	doc, err := goquery.NewDocumentFromReader(limited)
	if err != nil {
		return nil, fmt.Errorf("HTMLの解析に失敗しました: %w", err)
	}

	root := doc.Get(0)
	matches := matchCount(root, selector)

	return &VerifyResult{
		Matches: matches,
		Unique:  matches == 1,
		Stale:   matches == 0,
	}, nil
}
