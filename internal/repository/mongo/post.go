package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/socialfeed/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type postRepo struct {
	coll *mongo.Collection
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	media := post.Media
	if media == nil {
		media = []string{}
	}
	doc := postDoc{
		ID:             uuid.NewString(),
		AuthorID:       post.AuthorID,
		Content:        post.Content,
		Media:          media,
		Likes:          []string{},
		Shares:         []string{},
		OriginalPostID: post.OriginalPostID,
		ShareThoughts:  post.ShareThoughts,
		Seq:            now.UnixNano(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = doc.ID
	post.Media = media
	post.Likes = domain.NewIDSet()
	post.Shares = domain.NewIDSet()
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var doc postDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleLike flips membership with a single pipeline update so concurrent
// toggles by different users never overwrite each other.
func (r *postRepo) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{userID, "$likes"}}},
			bson.D{{Key: "$setDifference", Value: bson.A{"$likes", bson.A{userID}}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{"$likes", bson.A{userID}}}},
		}}}}}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "likes", Value: 1}})

	var doc struct {
		Likes []string `bson:"likes"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: postID}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return slices.Contains(doc.Likes, userID), nil
}

func (r *postRepo) AddShare(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.coll.UpdateByID(ctx, postID, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "shares", Value: userID}}},
	})
	if err != nil {
		return false, fmt.Errorf("add share: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (r *postRepo) RemoveShare(ctx context.Context, postID, userID string) error {
	if _, err := r.coll.UpdateByID(ctx, postID, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "shares", Value: userID}}},
	}); err != nil {
		return fmt.Errorf("remove share: %w", err)
	}
	return nil
}

func (r *postRepo) MediaInUse(ctx context.Context, excludePostID string, urls []string) (domain.IDSet, error) {
	inUse := domain.NewIDSet()
	if len(urls) == 0 {
		return inUse, nil
	}

	filter := bson.D{
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludePostID}}},
		{Key: "original_post_id", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "media", Value: bson.D{{Key: "$in", Value: urls}}},
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "media", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find media references: %w", err)
	}
	var docs []struct {
		Media []string `bson:"media"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode media references: %w", err)
	}

	wanted := domain.NewIDSet(urls...)
	for _, d := range docs {
		for _, u := range d.Media {
			if wanted.Has(u) {
				inUse.Add(u)
			}
		}
	}
	return inUse, nil
}
