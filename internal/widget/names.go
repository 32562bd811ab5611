package widget

import "sync"

// MemoryNameStore はメモリ上に表示名を保持するNameStoreの実装。
// プロセス内でのみ有効。スレッドセーフ。
type MemoryNameStore struct {
	mu    sync.Mutex
	name  string
	saved bool
}

// NewMemoryNameStore はMemoryNameStoreを生成する。
func NewMemoryNameStore() *MemoryNameStore {
	return &MemoryNameStore{}
}

// Load は保存済みの表示名を返す。未保存の場合はfalse。
func (s *MemoryNameStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.saved
}

// Save は表示名を保存する。
func (s *MemoryNameStore) Save(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.saved = true
}
