package repository

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// MemoryBlobRepoはBlobStoreインターフェースを満たすことを検証
func TestMemoryBlobRepo_ImplementsInterface(t *testing.T) {
	var _ BlobStore = (*MemoryBlobRepo)(nil)
}

func TestMemoryBlobRepo_SetAndGet(t *testing.T) {
	repo := NewMemoryBlobRepo()
	ctx := context.Background()

	value := map[string]string{"id": "c-1", "text": "こんにちは"}
	if err := repo.SetJSON(ctx, "comments/page/c-1.json", value); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	data, err := repo.Get(ctx, "comments/page/c-1.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("stored blob is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(got, value) {
		t.Errorf("Get = %v, want %v", got, value)
	}
}

func TestMemoryBlobRepo_Get_NotFound(t *testing.T) {
	repo := NewMemoryBlobRepo()

	_, err := repo.Get(context.Background(), "missing-key")
	if !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrBlobNotFound", err)
	}
}

func TestMemoryBlobRepo_SetJSON_OverwritesExistingKey(t *testing.T) {
	repo := NewMemoryBlobRepo()
	ctx := context.Background()

	if err := repo.SetJSON(ctx, "key", map[string]string{"v": "old"}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if err := repo.SetJSON(ctx, "key", map[string]string{"v": "new"}); err != nil {
		t.Fatalf("SetJSON overwrite failed: %v", err)
	}

	data, err := repo.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to parse blob: %v", err)
	}
	if got["v"] != "new" {
		t.Errorf("v = %q, want %q", got["v"], "new")
	}
	if repo.Len() != 1 {
		t.Errorf("Len = %d, want 1", repo.Len())
	}
}

func TestMemoryBlobRepo_SetJSON_UnencodableValue_ReturnsError(t *testing.T) {
	repo := NewMemoryBlobRepo()

	err := repo.SetJSON(context.Background(), "key", make(chan int))
	if err == nil {
		t.Fatal("expected error for unencodable value, got nil")
	}
}

func TestMemoryBlobRepo_Delete(t *testing.T) {
	repo := NewMemoryBlobRepo()
	ctx := context.Background()

	if err := repo.SetJSON(ctx, "key", "value"); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if err := repo.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.Get(ctx, "key"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Get after delete error = %v, want ErrBlobNotFound", err)
	}
}

func TestMemoryBlobRepo_Delete_MissingKey_NoError(t *testing.T) {
	repo := NewMemoryBlobRepo()

	if err := repo.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
}

func TestMemoryBlobRepo_List_PrefixFiltering(t *testing.T) {
	repo := NewMemoryBlobRepo()
	ctx := context.Background()

	keys := []string{
		"comments/https%3A%2F%2Fa.com/c-2.json",
		"comments/https%3A%2F%2Fa.com/c-1.json",
		"comments/https://a.com/c-3.json",
		"other/entry.json",
	}
	for _, key := range keys {
		if err := repo.SetJSON(ctx, key, "v"); err != nil {
			t.Fatalf("SetJSON(%q) failed: %v", key, err)
		}
	}

	got, err := repo.List(ctx, "comments/https%3A%2F%2Fa.com/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// キー昇順で返ること
	want := []string{
		"comments/https%3A%2F%2Fa.com/c-1.json",
		"comments/https%3A%2F%2Fa.com/c-2.json",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestMemoryBlobRepo_List_NoMatches_ReturnsEmptySlice(t *testing.T) {
	repo := NewMemoryBlobRepo()

	got, err := repo.List(context.Background(), "nothing/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got == nil {
		t.Fatal("List should return an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("List = %v, want empty", got)
	}
}

func TestMemoryBlobRepo_Get_ReturnsCopy(t *testing.T) {
	repo := NewMemoryBlobRepo()
	ctx := context.Background()

	if err := repo.SetJSON(ctx, "key", "value"); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	data, err := repo.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for i := range data {
		data[i] = 'x'
	}

	fresh, err := repo.Get(ctx, "key")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if string(fresh) != `"value"` {
		t.Errorf("stored blob mutated through returned slice: %q", fresh)
	}
}
