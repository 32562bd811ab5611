package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryBlobRepo はメモリ上に保持するBlobStoreの実装。
// テストおよびローカル開発用。スレッドセーフ。
type MemoryBlobRepo struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobRepo はMemoryBlobRepoを生成する。
func NewMemoryBlobRepo() *MemoryBlobRepo {
	return &MemoryBlobRepo{
		blobs: make(map[string][]byte),
	}
}

// Get は指定キーのblobを取得する。存在しない場合はErrBlobNotFoundを返す。
func (r *MemoryBlobRepo) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	// 呼び出し元による書き換えから保護するためコピーを返す
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// SetJSON は値をJSONエンコードして指定キーに保存する。既存キーは上書きする。
func (r *MemoryBlobRepo) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("blob値のJSONエンコードに失敗しました: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[key] = data
	return nil
}

// Delete は指定キーのblobを削除する。キーが存在しない場合もエラーとしない。
func (r *MemoryBlobRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blobs, key)
	return nil
}

// List は指定プレフィックスで始まる全キーをキー昇順で返す。
func (r *MemoryBlobRepo) List(ctx context.Context, prefix string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := []string{}
	for key := range r.blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len は保持中のblob数を返す。テスト用。
func (r *MemoryBlobRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
