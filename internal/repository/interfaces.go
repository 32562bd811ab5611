// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
)

// ErrBlobNotFound は指定キーのblobが存在しない場合に返される。
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore はフラットなキーバリューblobストアの永続化インターフェース。
// キーは任意の文字列で、階層構造はプレフィックス一覧でのみ表現される。
type BlobStore interface {
	// Get は指定キーのblobを取得する。存在しない場合はErrBlobNotFoundを返す。
	Get(ctx context.Context, key string) ([]byte, error)

	// SetJSON は値をJSONエンコードして指定キーに保存する。
	// 既存キーの場合は上書きする。
	SetJSON(ctx context.Context, key string, value any) error

	// Delete は指定キーのblobを削除する。キーが存在しない場合もエラーとしない。
	Delete(ctx context.Context, key string) error

	// List は指定プレフィックスで始まる全キーを返す。
	// 該当なしの場合は空スライスを返す（エラーではない）。
	List(ctx context.Context, prefix string) ([]string, error)
}
