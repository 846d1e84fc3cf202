package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFilesystemPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}

	info, err := store.Put(ctx, "exports/1/graph.json", strings.NewReader(`{"ok":true}`), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"export_id": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"ok":true}`)) || info.ETag == "" {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := store.Get(ctx, "exports/1/graph.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("content = %q", data)
	}
	if got.ContentType != "application/json" || got.Metadata["export_id"] != "1" {
		t.Fatalf("metadata lost: %+v", got)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag changed: %q vs %q", got.ETag, info.ETag)
	}

	head, err := store.Head(ctx, "exports/1/graph.json")
	if err != nil || head.Size != info.Size {
		t.Fatalf("head = %+v %v", head, err)
	}
}

func TestFilesystemPutIsCreateOnly(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	if _, err := store.Put(ctx, "key", strings.NewReader("first"), PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "key", strings.NewReader("second"), PutOptions{}); err == nil {
		t.Fatalf("second put must fail")
	}

	// The original content survives the rejected overwrite.
	_, rc, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "first" {
		t.Fatalf("content = %q", data)
	}
}

func TestFilesystemRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q must be rejected", key)
		}
	}
}

func TestFilesystemListAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	for _, key := range []string{"exports/1/b.csv", "exports/1/a.json", "exports/2/a.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "exports/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/1/a.json" || infos[1].Key != "exports/1/b.csv" {
		t.Fatalf("list = %+v", infos)
	}

	existed, err := store.Delete(ctx, "exports/1/a.json")
	if err != nil || !existed {
		t.Fatalf("delete = %v %v", existed, err)
	}
	existed, err = store.Delete(ctx, "exports/1/a.json")
	if err != nil || existed {
		t.Fatalf("second delete = %v %v", existed, err)
	}
	if _, err := store.Head(ctx, "exports/1/a.json"); err == nil {
		t.Fatalf("deleted blob still visible")
	}
}

func TestFilesystemPresignGETOnly(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem: %v", err)
	}
	url, err := store.PresignURL(ctx, "some/key", SignedURLOptions{})
	if err != nil || !strings.Contains(url, "some/key") {
		t.Fatalf("presign = %q %v", url, err)
	}
	if _, err := store.PresignURL(ctx, "some/key", SignedURLOptions{Method: "PUT"}); err != ErrUnsupported {
		t.Fatalf("PUT presign = %v", err)
	}
}
