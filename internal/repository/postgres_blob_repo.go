package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostgresBlobRepo はPostgreSQLを使用したBlobStoreの実装。
// blobsテーブル1枚にキーとJSON値を保持し、
// プレフィックス一覧はLIKE検索で実現する。
type PostgresBlobRepo struct {
	db *sql.DB
}

// NewPostgresBlobRepo はPostgresBlobRepoを生成する。
func NewPostgresBlobRepo(db *sql.DB) *PostgresBlobRepo {
	return &PostgresBlobRepo{db: db}
}

// Get は指定キーのblobを取得する。存在しない場合はErrBlobNotFoundを返す。
func (r *PostgresBlobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM blobs WHERE key = $1`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blobの取得に失敗しました: %w", err)
	}

	return value, nil
}

// SetJSON は値をJSONエンコードして指定キーに保存する。既存キーは上書きする。
func (r *PostgresBlobRepo) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("blob値のJSONエンコードに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO blobs (key, value, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3`,
		key, data, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("blobの保存に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定キーのblobを削除する。キーが存在しない場合もエラーとしない。
func (r *PostgresBlobRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE key = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("blobの削除に失敗しました: %w", err)
	}
	return nil
}

// List は指定プレフィックスで始まる全キーをキー昇順で返す。
// プレフィックス内のLIKEメタ文字はリテラルとして扱う。
func (r *PostgresBlobRepo) List(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeLikePattern(prefix) + "%"

	rows, err := r.db.QueryContext(ctx,
		`SELECT key FROM blobs WHERE key LIKE $1 ESCAPE '\' ORDER BY key ASC`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("blob一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("blob一覧の読み取りに失敗しました: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blob一覧の読み取りに失敗しました: %w", err)
	}

	return keys, nil
}

// escapeLikePattern はLIKEパターンのメタ文字（% _ \）をエスケープする。
// プレフィックスを文字列リテラルとして一致させるために使用する。
func escapeLikePattern(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return replacer.Replace(s)
}
