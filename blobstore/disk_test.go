package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"nimbusdrive/common"
)

func newDiskStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore error: %v", err)
	}
	return store
}

func TestDiskStore_PutGet(t *testing.T) {
	store := newDiskStore(t)
	ctx := context.Background()

	key, size, err := store.Put(ctx, "owner-1", "obj-1", "hello.txt", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if key != "owner-1/obj-1-hello.txt" {
		t.Errorf("key = %q, want %q", key, "owner-1/obj-1-hello.txt")
	}
	if size != 11 {
		t.Errorf("size = %d, want 11", size)
	}

	r, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("content = %q, want %q", data, "hello world")
	}
}

func TestDiskStore_GetMissing(t *testing.T) {
	store := newDiskStore(t)

	_, err := store.Get(context.Background(), "owner-1/obj-missing-x.txt")
	if !errors.Is(err, common.ErrContentNotFound) {
		t.Errorf("Get error = %v, want ErrContentNotFound", err)
	}
}

func TestDiskStore_DeleteIdempotent(t *testing.T) {
	store := newDiskStore(t)
	ctx := context.Background()

	key, _, err := store.Put(ctx, "owner-1", "obj-1", "a.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	// Deleting a blob that is already gone is not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second Delete error: %v", err)
	}

	if _, err := store.Get(ctx, key); !errors.Is(err, common.ErrContentNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrContentNotFound", err)
	}
}

func TestDiskStore_ListAndListOwners(t *testing.T) {
	store := newDiskStore(t)
	ctx := context.Background()

	if _, _, err := store.Put(ctx, "owner-1", "obj-1", "a.txt", strings.NewReader("a")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, _, err := store.Put(ctx, "owner-1", "obj-2", "b.txt", strings.NewReader("b")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, _, err := store.Put(ctx, "owner-2", "obj-3", "c.txt", strings.NewReader("c")); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	keys, err := store.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("List(owner-1) returned %d keys, want 2", len(keys))
	}

	keys, err = store.List(ctx, "owner-3")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List(owner-3) returned %d keys, want 0", len(keys))
	}

	owners, err := store.ListOwners(ctx)
	if err != nil {
		t.Fatalf("ListOwners error: %v", err)
	}
	if len(owners) != 2 {
		t.Errorf("ListOwners returned %v, want 2 owners", owners)
	}
}

func TestBuildKey_SanitizesName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"plain.txt", "owner/obj-plain.txt"},
		{"back\\slash.txt", "owner/obj-back_slash.txt"},
		{"../../etc/passwd", "owner/obj-.._.._etc_passwd"},
	}
	for _, tc := range tests {
		if got := BuildKey("owner", "obj", tc.name); got != tc.want {
			t.Errorf("BuildKey(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestOwnerFromKey(t *testing.T) {
	if got := OwnerFromKey("owner-1/obj-a.txt"); got != "owner-1" {
		t.Errorf("OwnerFromKey = %q, want %q", got, "owner-1")
	}
	if got := OwnerFromKey("no-slash"); got != "" {
		t.Errorf("OwnerFromKey(no slash) = %q, want empty", got)
	}
}
