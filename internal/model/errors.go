package model

import "fmt"

// APIError はサービス層が返す分類済みエラーを表す。
// Categoryに応じてハンドラー層でHTTPステータスコードへ変換される。
// 呼び出し元に返すメッセージは内部情報を含まない短いフレーズとする。
type APIError struct {
	Code     string // エラーコード
	Message  string // 呼び出し元に返す短いメッセージ
	Category string // カテゴリ: validation, authorization, store, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingPageURL = "MISSING_PAGE_URL"
	ErrCodeMissingFields  = "MISSING_FIELDS"
	ErrCodeInvalidBody    = "INVALID_BODY"
	ErrCodeInvalidSecret  = "INVALID_SECRET"
	ErrCodeStoreFailure   = "STORE_FAILURE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// NewMissingPageURLError はpageUrlパラメータ欠落エラーを生成する。
func NewMissingPageURLError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingPageURL,
		Message:  "pageUrl parameter required",
		Category: "validation",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  message,
		Category: "validation",
	}
}

// NewInvalidSecretError は削除シークレット不一致エラーを生成する。
// シークレットがサーバーに未設定の場合も同じエラーを返す。
func NewInvalidSecretError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSecret,
		Message:  "Invalid secret",
		Category: "authorization",
	}
}

// NewStoreError はストアのI/O失敗エラーを生成する。
// メッセージには操作に応じた一般的なフレーズのみを載せ、
// 詳細はログ側に記録する。
func NewStoreError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeStoreFailure,
		Message:  message,
		Category: "store",
	}
}
