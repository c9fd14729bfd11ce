package domain_test

import (
	"testing"

	"github.com/msomdec/socialfeed/internal/domain"
)

func TestParseAssetID(t *testing.T) {
	id := domain.NewAssetID(domain.FolderPosts, "user-1", "abc.png")
	key, ok := domain.ParseAssetID(id)
	if !ok {
		t.Fatalf("ParseAssetID(%q) failed", id)
	}
	if key.Folder != domain.FolderPosts || key.Owner != "user-1" || key.Name != "abc.png" {
		t.Fatalf("unexpected key %+v", key)
	}

	for _, bad := range []string{"", "posts/abc.png", "posts//abc.png", "posts/user-1/x/abc.png", "posts/../abc.png"} {
		if _, ok := domain.ParseAssetID(bad); ok {
			t.Errorf("ParseAssetID(%q) should fail", bad)
		}
	}
}
