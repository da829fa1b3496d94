package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newestFirst is the sort order for every post listing.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// PostRepository implements repository.PostRepository on the posts collection.
// Engagement updates use $addToSet, $pull and $push so each is atomic on the document.
type PostRepository struct {
	coll *mongo.Collection
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(coll *mongo.Collection) *PostRepository {
	return &PostRepository{coll: coll}
}

// Create inserts a new post document.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.Normalize()
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post by its ID.
func (r *PostRepository) GetByID(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return models.Post{}, translate(err)
	}
	post.Normalize()
	return post, nil
}

// List retrieves all posts, newest first.
func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

// ListByAuthor retrieves the posts written by the given account, newest first.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author.id": authorID})
}

// Search matches query literally against titles and tags, ignoring case.
// A regex on an array field matches when any element matches.
func (r *PostRepository) Search(ctx context.Context, query string) ([]models.Post, error) {
	pattern := primitive.Regex{Pattern: repository.FoldPattern(query)}
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"tags": pattern},
	}})
}

// Update applies the non-nil fields of patch with a single $set.
func (r *PostRepository) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Thumbnail != nil {
		set["thumbnail"] = *patch.Thumbnail
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if patch.IsFavourite != nil {
		set["isFavourite"] = *patch.IsFavourite
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

// Delete removes the post document and everything embedded in it.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetLike adds or removes accountID in likes and returns the resulting count.
func (r *PostRepository) SetLike(ctx context.Context, postID, accountID string, like bool) (int, error) {
	op := "$pull"
	if like {
		op = "$addToSet"
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var result struct {
		Likes []string `bson:"likes"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID}, bson.M{op: bson.M{"likes": accountID}}, opts).Decode(&result)
	if err != nil {
		return 0, translate(err)
	}
	return len(result.Likes), nil
}

// SetFavourite sets the flag and adds or removes accountID in favouritedBy in one update.
func (r *PostRepository) SetFavourite(ctx context.Context, postID, accountID string, isFavourite bool) (models.Post, error) {
	op := "$pull"
	if isFavourite {
		op = "$addToSet"
	}
	return r.findOneAndUpdate(ctx, postID, bson.M{
		"$set": bson.M{"isFavourite": isFavourite},
		op:     bson.M{"favouritedBy": accountID},
	})
}

// AddComment appends comment to the post's comments.
func (r *PostRepository) AddComment(ctx context.Context, postID string, comment models.Comment) (models.Post, error) {
	return r.findOneAndUpdate(ctx, postID, bson.M{"$push": bson.M{"comments": comment}})
}

func (r *PostRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var post models.Post
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post); err != nil {
		return models.Post{}, translate(err)
	}
	post.Normalize()
	return post, nil
}

func (r *PostRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
