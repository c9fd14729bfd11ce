package mongo

import (
	"context"
	"fmt"

	"github.com/msomdec/socialfeed/internal/domain"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type feedRepo struct {
	posts *mongo.Collection
}

func (r *feedRepo) Feed(ctx context.Context, q domain.FeedQuery) ([]domain.FeedItem, error) {
	items := []domain.FeedItem{}
	if q.Empty() {
		return items, nil
	}

	cur, err := r.posts.Aggregate(ctx, BuildFeedPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("aggregate feed: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc feedDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode feed row: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	return items, cur.Err()
}
