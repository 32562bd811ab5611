// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/pinnote/internal/comment"
	"github.com/hitoshi/pinnote/internal/middleware"
	"github.com/hitoshi/pinnote/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// Create はコメントを検証・サニタイズして保存する。
	Create(ctx context.Context, input comment.CreateInput) (*model.Comment, error)
	// List はページに紐づくコメントを作成日時昇順で返す。
	List(ctx context.Context, pageURL string) ([]model.Comment, error)
	// Delete はストアキーを指定してコメントを削除する（モデレーション用）。
	Delete(ctx context.Context, key, secret string) error
}

// CommentHandler はコメントAPIのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// createCommentRequest はコメント作成リクエストのボディ。
type createCommentRequest struct {
	PageURL  string       `json:"pageUrl"`
	Text     string       `json:"text"`
	Author   string       `json:"author"`
	ParentID *string      `json:"parentId"`
	Anchor   model.Anchor `json:"anchor"`
}

// ListComments はページに紐づくコメント一覧を返す。
// GET /api/comments?pageUrl=...
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("pageUrl")

	comments, err := h.service.List(r.Context(), pageURL)
	if err != nil {
		handleServiceError(w, err, "Failed to load comments")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(comments)
}

// CreateComment はコメントを作成する。
// POST /api/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	created, err := h.service.Create(r.Context(), comment.CreateInput{
		PageURL:  req.PageURL,
		Text:     req.Text,
		Author:   req.Author,
		ParentID: req.ParentID,
		Anchor:   req.Anchor,
	})
	if err != nil {
		handleServiceError(w, err, "Failed to create comment")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// DeleteComment はストアキーを指定してコメントを削除する。
// DELETE /api/comments?key=...&secret=...
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	secret := r.URL.Query().Get("secret")

	if err := h.service.Delete(r.Context(), key, secret); err != nil {
		handleServiceError(w, err, "Failed to delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーは詳細をログのみに記録し、fallbackMessageで500を返す。
func handleServiceError(w http.ResponseWriter, err error, fallbackMessage string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, fallbackMessage)
}

// mapAPIErrorToHTTPStatus はAPIErrorのカテゴリからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Category {
	case "validation":
		return http.StatusBadRequest
	case "authorization":
		return http.StatusForbidden
	case "store":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
