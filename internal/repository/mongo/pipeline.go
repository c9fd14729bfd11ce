package mongo

import (
	"github.com/msomdec/socialfeed/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	stageMatch     = "$match"
	stageAddFields = "$addFields"
	stageSort      = "$sort"
	stageSkip      = "$skip"
	stageLimit     = "$limit"
	stageLookup    = "$lookup"
	stageUnwind    = "$unwind"
	stageProject   = "$project"
)

// BuildFeedPipeline renders q as an aggregation over the posts collection.
// Ranking and paging run before the joins so lookups only touch the page.
func BuildFeedPipeline(q domain.FeedQuery) mongo.Pipeline {
	var pipe mongo.Pipeline

	if q.RestrictAuthors {
		authors := q.AuthorIDs
		if authors == nil {
			authors = []string{}
		}
		pipe = append(pipe, bson.D{{Key: stageMatch, Value: bson.D{
			{Key: "author_id", Value: bson.D{{Key: "$in", Value: authors}}},
		}}})
	}

	pipe = append(pipe, bson.D{{Key: stageAddFields, Value: bson.D{
		{Key: "like_count", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}}}},
		{Key: "share_count", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$shares", bson.A{}}}}}}},
	}}})

	recency := bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}}
	var sort bson.D
	switch q.Rank {
	case domain.RankMostLiked:
		pipe = append(pipe, bson.D{{Key: stageMatch, Value: bson.D{{Key: "like_count", Value: bson.D{{Key: "$gt", Value: 0}}}}}})
		sort = append(bson.D{{Key: "like_count", Value: -1}}, recency...)
	case domain.RankMostShared:
		pipe = append(pipe, bson.D{{Key: stageMatch, Value: bson.D{{Key: "share_count", Value: bson.D{{Key: "$gt", Value: 0}}}}}})
		sort = append(bson.D{{Key: "share_count", Value: -1}}, recency...)
	default:
		sort = recency
	}

	pipe = append(pipe,
		bson.D{{Key: stageSort, Value: sort}},
		bson.D{{Key: stageSkip, Value: int64(q.Offset)}},
		bson.D{{Key: stageLimit, Value: int64(q.Limit)}},
	)

	pipe = append(pipe, lookupOne(usersCollection, "author_id", "author", profileProjection())...)
	pipe = append(pipe, lookupOne(postsCollection, "original_post_id", "original", nil)...)
	pipe = append(pipe, lookupOne(usersCollection, "original.author_id", "original_author", profileProjection())...)
	return pipe
}

// lookupOne joins at most one document from coll onto as, keeping the
// row when nothing matches.
func lookupOne(coll, localField, as string, project bson.D) []bson.D {
	lookup := bson.D{
		{Key: "from", Value: coll},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}
	if project != nil {
		lookup = append(lookup, bson.E{Key: "pipeline", Value: bson.A{bson.D{{Key: stageProject, Value: project}}}})
	}
	return []bson.D{
		{{Key: stageLookup, Value: lookup}},
		{{Key: stageUnwind, Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

func profileProjection() bson.D {
	return bson.D{
		{Key: "_id", Value: 1},
		{Key: "name", Value: 1},
		{Key: "profile_picture", Value: 1},
	}
}
