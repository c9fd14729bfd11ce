package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/msomdec/socialfeed/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	MaxMediaSize  = 10 * 1024 * 1024 // 10MB
	MaxPostMedia  = 5
	mediaParallel = 4
	mediaRoute    = "/media/"
)

var mediaExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService is the media relay: it stores uploaded images in a
// FileStore and serves them under a stable public URL.
type MediaService struct {
	files   domain.FileStore
	baseURL string
	timeout Timeouts
}

// NewMediaService creates a MediaService that issues URLs under baseURL.
func NewMediaService(files domain.FileStore, baseURL string, timeouts Timeouts) *MediaService {
	return &MediaService{
		files:   files,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeouts,
	}
}

var _ domain.MediaRelay = (*MediaService)(nil)

// Upload validates and stores one image in folder on behalf of owner.
// The owner becomes part of the storage key.
func (s *MediaService) Upload(ctx context.Context, owner, folder string, file domain.MediaFile) (*domain.MediaAsset, error) {
	if owner == "" || strings.ContainsAny(owner, "/.") {
		return nil, fmt.Errorf("%w: invalid media owner %q", domain.ErrInvalidInput, owner)
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, file.Filename)
	}
	if len(file.Data) > MaxMediaSize {
		return nil, fmt.Errorf("%w: %s exceeds 10MB limit", domain.ErrInvalidInput, file.Filename)
	}

	// Trust the bytes, not the declared content type.
	contentType := http.DetectContentType(file.Data)
	ext, ok := mediaExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a JPEG, PNG, GIF or WebP image", domain.ErrInvalidInput, file.Filename)
	}

	key, err := generateStorageKey(folder, owner, ext)
	if err != nil {
		return nil, fmt.Errorf("generate storage key: %w", err)
	}

	ctx, cancel := bounded(ctx, s.timeout.Media)
	defer cancel()
	if err := s.files.Save(ctx, key, file.Data); err != nil {
		return nil, fmt.Errorf("save file: %w", transient(err))
	}
	return &domain.MediaAsset{ID: key, URL: s.baseURL + mediaRoute + key}, nil
}

// UploadMany stores files concurrently and returns their assets in input
// order. If any upload fails the ones that succeeded are released.
func (s *MediaService) UploadMany(ctx context.Context, owner, folder string, files []domain.MediaFile) ([]domain.MediaAsset, error) {
	if len(files) > MaxPostMedia {
		return nil, fmt.Errorf("%w: at most %d images per upload", domain.ErrInvalidInput, MaxPostMedia)
	}

	assets := make([]domain.MediaAsset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mediaParallel)
	for i, f := range files {
		g.Go(func() error {
			a, err := s.Upload(gctx, owner, folder, f)
			if err != nil {
				return err
			}
			assets[i] = *a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, a := range assets {
			if a.ID != "" {
				uploaded = append(uploaded, a.URL)
			}
		}
		if leaked := ReleaseMedia(context.WithoutCancel(ctx), s, uploaded); len(leaked) > 0 {
			slog.Warn("failed to clean up partial upload", "assets", leakedIDs(leaked))
		}
		return nil, err
	}
	return assets, nil
}

// Delete removes a stored asset. Deleting a missing asset is not an error.
func (s *MediaService) Delete(ctx context.Context, assetID string) error {
	ctx, cancel := bounded(ctx, s.timeout.Media)
	defer cancel()

	if err := s.files.Delete(ctx, assetID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete file: %w", transient(err))
	}
	return nil
}

// AssetIDFromURL maps a URL issued by Upload back to its storage key.
func (s *MediaService) AssetIDFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+mediaRoute)
	if !ok || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

// Open returns the stored bytes of assetID and their content type.
func (s *MediaService) Open(ctx context.Context, assetID string) ([]byte, string, error) {
	ctx, cancel := bounded(ctx, s.timeout.Media)
	defer cancel()

	data, err := s.files.Get(ctx, assetID)
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", transient(err))
	}
	return data, http.DetectContentType(data), nil
}

// MediaFailure is one asset a relay could not release.
type MediaFailure struct {
	URL     string
	AssetID string
	Err     error
}

// ReleaseMedia deletes every relay-owned URL in urls concurrently and
// waits for all of them. URLs the relay did not issue are skipped. It
// returns the releases that failed; they never abort the others.
func ReleaseMedia(ctx context.Context, relay domain.MediaRelay, urls []string) []MediaFailure {
	var (
		mu     sync.Mutex
		failed []MediaFailure
		g      errgroup.Group
	)
	g.SetLimit(mediaParallel)

	for _, u := range urls {
		id, ok := relay.AssetIDFromURL(u)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := relay.Delete(ctx, id); err != nil {
				mu.Lock()
				failed = append(failed, MediaFailure{URL: u, AssetID: id, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

func leakedIDs(failed []MediaFailure) []string {
	ids := make([]string, len(failed))
	for i, f := range failed {
		ids[i] = f.AssetID
	}
	return ids
}

func generateStorageKey(folder, owner, ext string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return domain.NewAssetID(folder, owner, hex.EncodeToString(b)+ext), nil
}

// ownsMedia reports whether url is a relay asset in folder uploaded by owner.
func ownsMedia(relay domain.MediaRelay, owner, folder, url string) bool {
	id, ok := relay.AssetIDFromURL(url)
	if !ok {
		return false
	}
	key, ok := domain.ParseAssetID(id)
	return ok && key.Owner == owner && (folder == "" || key.Folder == folder)
}

// ownedMedia keeps the urls whose relay asset was uploaded by owner.
func ownedMedia(relay domain.MediaRelay, owner string, urls []string) []string {
	var owned []string
	for _, u := range urls {
		if ownsMedia(relay, owner, "", u) {
			owned = append(owned, u)
		}
	}
	return owned
}
