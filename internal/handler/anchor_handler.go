package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/pinnote/internal/anchor"
	"github.com/hitoshi/pinnote/internal/middleware"
)

// AnchorVerifierInterface はアンカー検証ハンドラーが必要とするインターフェース。
type AnchorVerifierInterface interface {
	// Verify はページを取得してセレクタの一致状況を返す。
	Verify(pageURL, selector string) (*anchor.VerifyResult, error)
}

// AnchorHandler はアンカー検証APIのHTTPハンドラー。
type AnchorHandler struct {
	verifier AnchorVerifierInterface
}

// NewAnchorHandler はAnchorHandlerを生成する。
func NewAnchorHandler(verifier AnchorVerifierInterface) *AnchorHandler {
	return &AnchorHandler{verifier: verifier}
}

// VerifyAnchor は保存済みアンカーがライブページ上でまだ解決できるかを返す。
// GET /api/anchors/verify?pageUrl=...&selector=...
func (h *AnchorHandler) VerifyAnchor(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("pageUrl")
	selector := r.URL.Query().Get("selector")

	if pageURL == "" || selector == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, "pageUrl and selector parameters required")
		return
	}

	result, err := h.verifier.Verify(pageURL, selector)
	if err != nil {
		slog.Warn("anchor verification failed",
			slog.String("page_url", pageURL),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusBadGateway, "Failed to verify anchor")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
