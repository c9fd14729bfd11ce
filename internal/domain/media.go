package domain

import (
	"context"
	"strings"
)

// Media folders used by the application.
const (
	FolderPosts           = "posts"
	FolderProfilePictures = "profile_pictures"
)

// MediaFile is an uploaded file awaiting storage.
type MediaFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaAsset identifies a stored media object.
type MediaAsset struct {
	ID  string // storage key, e.g. "posts/<owner>/3f2a...9c.png"
	URL string // stable public URL
}

// MediaRelay stores and releases binary assets and hands out their URLs.
type MediaRelay interface {
	// Upload stores file in folder on behalf of owner.
	Upload(ctx context.Context, owner, folder string, file MediaFile) (*MediaAsset, error)
	Delete(ctx context.Context, assetID string) error
	// AssetIDFromURL maps a URL issued by Upload back to its asset id.
	// It returns false for URLs this relay did not issue.
	AssetIDFromURL(url string) (string, bool)
}

// FileStore abstracts raw file byte storage.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// AssetKey is the parsed form of an asset id "<folder>/<owner>/<name>".
type AssetKey struct {
	Folder string
	Owner  string
	Name   string
}

// NewAssetID joins the parts of an asset id.
func NewAssetID(folder, owner, name string) string {
	return folder + "/" + owner + "/" + name
}

// ParseAssetID splits an asset id into its parts. It returns false for ids
// that do not have exactly three non-empty segments.
func ParseAssetID(id string) (AssetKey, bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 3 {
		return AssetKey{}, false
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return AssetKey{}, false
		}
	}
	return AssetKey{Folder: parts[0], Owner: parts[1], Name: parts[2]}, true
}
