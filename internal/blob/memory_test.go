package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}

	if _, err := store.Put(ctx, "a/one", strings.NewReader("payload"), PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "a/one", strings.NewReader("other"), PutOptions{}); err == nil {
		t.Fatalf("overwrite must fail")
	}
	if _, err := store.Put(ctx, "b/two", strings.NewReader("x"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	info, rc, err := store.Get(ctx, "a/one")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "payload" || info.ContentType != "text/plain" || info.Size != 7 {
		t.Fatalf("got %q %+v", data, info)
	}

	infos, err := store.List(ctx, "a/")
	if err != nil || len(infos) != 1 || infos[0].Key != "a/one" {
		t.Fatalf("list = %+v %v", infos, err)
	}

	if _, err := store.PresignURL(ctx, "a/one", SignedURLOptions{}); err != ErrUnsupported {
		t.Fatalf("presign = %v", err)
	}

	existed, err := store.Delete(ctx, "a/one")
	if err != nil || !existed {
		t.Fatalf("delete = %v %v", existed, err)
	}
	if _, _, err := store.Get(ctx, "a/one"); err == nil {
		t.Fatalf("deleted blob still readable")
	}
}

func TestOpenSelectsDriverFromEnvironment(t *testing.T) {
	ctx := context.Background()

	t.Setenv("METACORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil || store.Driver() != DriverMemory {
		t.Fatalf("memory open = %v %v", store, err)
	}

	t.Setenv("METACORE_BLOB_DRIVER", "fs")
	t.Setenv("METACORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil || store.Driver() != DriverFilesystem {
		t.Fatalf("fs open = %v %v", store, err)
	}

	t.Setenv("METACORE_BLOB_DRIVER", "gcs")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("unknown driver must fail")
	}
}
