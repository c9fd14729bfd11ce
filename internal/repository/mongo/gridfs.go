package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/msomdec/socialfeed/internal/domain"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// gridFS implements domain.FileStore on a GridFS bucket, using the
// storage key as the file id.
type gridFS struct {
	bucket *mongo.GridFSBucket
}

func (g *gridFS) Save(ctx context.Context, key string, data []byte) error {
	if err := g.bucket.UploadFromStreamWithID(ctx, key, path.Base(key), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (g *gridFS) Get(ctx context.Context, key string) ([]byte, error) {
	stream, err := g.bucket.OpenDownloadStream(ctx, key)
	if err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (g *gridFS) Delete(ctx context.Context, key string) error {
	if err := g.bucket.Delete(ctx, key); err != nil && !errors.Is(err, mongo.ErrFileNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
