package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/service"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestMediaService(t *testing.T) (*service.MediaService, domain.FileStore) {
	t.Helper()
	db := newTestStore(t)
	return service.NewMediaService(db.Files(), "http://localhost:8080/", testTimeouts), db.Files()
}

func TestMediaService_UploadAndOpen(t *testing.T) {
	media, _ := newTestMediaService(t)
	ctx := context.Background()

	asset, err := media.Upload(ctx, "user-1", domain.FolderPosts, domain.MediaFile{Filename: "cat.png", ContentType: "text/plain", Data: pngHeader})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(asset.ID, "posts/user-1/") || !strings.HasSuffix(asset.ID, ".png") {
		t.Fatalf("unexpected asset id %q", asset.ID)
	}
	if asset.URL != "http://localhost:8080/media/"+asset.ID {
		t.Fatalf("unexpected asset URL %q", asset.URL)
	}

	id, ok := media.AssetIDFromURL(asset.URL)
	if !ok || id != asset.ID {
		t.Fatalf("AssetIDFromURL round trip failed: %q %v", id, ok)
	}

	data, contentType, err := media.Open(ctx, asset.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(data, pngHeader) || contentType != "image/png" {
		t.Fatalf("unexpected content: %q %s", data, contentType)
	}
}

func TestMediaService_Upload_Rejects(t *testing.T) {
	media, _ := newTestMediaService(t)
	ctx := context.Background()

	if _, err := media.Upload(ctx, "user-1", domain.FolderPosts, domain.MediaFile{Filename: "a.txt", Data: []byte("plain text")}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-image, got %v", err)
	}
	big := append(append([]byte{}, pngHeader...), make([]byte, service.MaxMediaSize)...)
	if _, err := media.Upload(ctx, "user-1", domain.FolderPosts, domain.MediaFile{Filename: "big.png", Data: big}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized image, got %v", err)
	}
}

func TestMediaService_Upload_RejectsBadOwner(t *testing.T) {
	media, _ := newTestMediaService(t)
	ctx := context.Background()

	for _, owner := range []string{"", "a/b", ".."} {
		if _, err := media.Upload(ctx, owner, domain.FolderPosts, domain.MediaFile{Filename: "a.png", Data: pngHeader}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("owner %q: expected ErrInvalidInput, got %v", owner, err)
		}
	}
}

func TestMediaService_UploadMany_CleansUpOnFailure(t *testing.T) {
	media, files := newTestMediaService(t)
	ctx := context.Background()

	assets, err := media.UploadMany(ctx, "user-1", domain.FolderPosts, []domain.MediaFile{
		{Filename: "1.png", Data: pngHeader},
		{Filename: "2.png", Data: pngHeader},
	})
	if err != nil {
		t.Fatalf("UploadMany: %v", err)
	}
	if len(assets) != 2 || assets[0].ID == assets[1].ID {
		t.Fatalf("expected two distinct assets, got %+v", assets)
	}

	_, err = media.UploadMany(ctx, "user-1", domain.FolderPosts, []domain.MediaFile{
		{Filename: "ok.png", Data: pngHeader},
		{Filename: "bad.txt", Data: []byte("nope")},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Only the first batch remains stored.
	for _, a := range assets {
		if _, err := files.Get(ctx, a.ID); err != nil {
			t.Fatalf("asset %s should remain: %v", a.ID, err)
		}
	}
}

func TestMediaService_UploadMany_TooMany(t *testing.T) {
	media, _ := newTestMediaService(t)

	files := make([]domain.MediaFile, service.MaxPostMedia+1)
	if _, err := media.UploadMany(context.Background(), "user-1", domain.FolderPosts, files); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMediaService_AssetIDFromURL_Foreign(t *testing.T) {
	media, _ := newTestMediaService(t)

	for _, u := range []string{
		"https://res.cloudinary.com/x/posts/a.png",
		"http://localhost:8080/media/",
		"http://localhost:8080/media/../secret",
	} {
		if _, ok := media.AssetIDFromURL(u); ok {
			t.Fatalf("expected %q to be rejected", u)
		}
	}
}

func TestReleaseMedia_SkipsForeignAndReportsFailures(t *testing.T) {
	relay := newFakeRelay()
	ok := relay.put("posts/ok.png")
	bad := relay.put("posts/bad.png")
	relay.failIDs["posts/bad.png"] = true

	failed := service.ReleaseMedia(context.Background(), relay, []string{ok, "https://elsewhere.test/x.png", bad})
	if len(failed) != 1 || failed[0].URL != bad {
		t.Fatalf("expected only bad to fail, got %+v", failed)
	}
	if relay.has("posts/ok.png") {
		t.Fatal("expected ok asset released")
	}
	if len(relay.deleted) != 1 {
		t.Fatalf("foreign URLs must be skipped, deleted=%v", relay.deleted)
	}
}
