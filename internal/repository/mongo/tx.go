package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// txManager runs scopes inside a session transaction when enabled.
// Without transactions fn runs directly and multi-document writers fall
// back to compensation (see followRepo).
type txManager struct {
	client  *mongo.Client
	enabled bool
}

func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.enabled || inSession(ctx) {
		return fn(ctx)
	}

	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc context.Context) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func inSession(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}
