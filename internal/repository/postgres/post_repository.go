package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
)

const postColumns = `id, title, content, thumbnail, author, tags, is_favourite, favourited_by, likes, comments, created_at`

// PostRepository implements repository.PostRepository on Postgres.
// Likes and favourites are TEXT[] columns, comments a JSONB array.
type PostRepository struct {
	db DBTX
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	var authorJSON, commentsJSON []byte
	var favouritedBy, likes []string
	err := row.Scan(
		&post.ID, &post.Title, &post.Content, &post.Thumbnail, &authorJSON, &post.Tags,
		&post.IsFavourite, &favouritedBy, &likes, &commentsJSON, &post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}
	if err := json.Unmarshal(authorJSON, &post.Author); err != nil {
		return models.Post{}, fmt.Errorf("decode author of post %s: %w", post.ID, err)
	}
	if err := json.Unmarshal(commentsJSON, &post.Comments); err != nil {
		return models.Post{}, fmt.Errorf("decode comments of post %s: %w", post.ID, err)
	}
	post.FavouritedBy = models.IDSet(favouritedBy)
	post.Likes = models.IDSet(likes)
	post.CreatedAt = post.CreatedAt.UTC()
	post.Normalize()
	return post, nil
}

// Create implements PostRepository.Create
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.Normalize()
	authorJSON, err := json.Marshal(post.Author)
	if err != nil {
		return fmt.Errorf("encode author: %w", err)
	}
	commentsJSON, err := json.Marshal(post.Comments)
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		post.ID, post.Title, post.Content, post.Thumbnail, authorJSON, post.Tags,
		post.IsFavourite, []string(post.FavouritedBy), []string(post.Likes), commentsJSON, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID implements PostRepository.GetByID
func (r *PostRepository) GetByID(ctx context.Context, id string) (models.Post, error) {
	return r.getOne(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
}

// List implements PostRepository.List
func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.queryPosts(ctx, `TRUE`)
}

// ListByAuthor implements PostRepository.ListByAuthor
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.queryPosts(ctx, `author->>'id' = $1`, authorID)
}

// Search implements PostRepository.Search
func (r *PostRepository) Search(ctx context.Context, query string) ([]models.Post, error) {
	return r.queryPosts(ctx,
		`title ~ $1 OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ~ $1)`,
		repository.FoldPattern(query),
	)
}

// Update implements PostRepository.Update
func (r *PostRepository) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	var sets []string
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Content != nil {
		set("content", *patch.Content)
	}
	if patch.Thumbnail != nil {
		set("thumbnail", *patch.Thumbnail)
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set("tags", tags)
	}
	if patch.IsFavourite != nil {
		set("is_favourite", *patch.IsFavourite)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	return r.getOne(ctx,
		`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+postColumns,
		args...)
}

// Delete implements PostRepository.Delete
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetLike implements PostRepository.SetLike
func (r *PostRepository) SetLike(ctx context.Context, postID, accountID string, like bool) (int, error) {
	query := `
		UPDATE posts
		SET likes = CASE WHEN $2::text = ANY(likes) THEN likes ELSE array_append(likes, $2::text) END
		WHERE id = $1
		RETURNING cardinality(likes)`
	if !like {
		query = `UPDATE posts SET likes = array_remove(likes, $2::text) WHERE id = $1 RETURNING cardinality(likes)`
	}

	var count int
	if err := r.db.QueryRow(ctx, query, postID, accountID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("update likes: %w", err)
	}
	return count, nil
}

// SetFavourite implements PostRepository.SetFavourite
func (r *PostRepository) SetFavourite(ctx context.Context, postID, accountID string, isFavourite bool) (models.Post, error) {
	return r.getOne(ctx, `
		UPDATE posts
		SET is_favourite = $3::boolean,
			favourited_by = CASE
				WHEN NOT $3::boolean THEN array_remove(favourited_by, $2::text)
				WHEN $2::text = ANY(favourited_by) THEN favourited_by
				ELSE array_append(favourited_by, $2::text)
			END
		WHERE id = $1
		RETURNING `+postColumns,
		postID, accountID, isFavourite)
}

// AddComment implements PostRepository.AddComment
func (r *PostRepository) AddComment(ctx context.Context, postID string, comment models.Comment) (models.Post, error) {
	commentJSON, err := json.Marshal(comment)
	if err != nil {
		return models.Post{}, fmt.Errorf("encode comment: %w", err)
	}
	return r.getOne(ctx, `
		UPDATE posts
		SET comments = comments || jsonb_build_array($2::jsonb)
		WHERE id = $1
		RETURNING `+postColumns,
		postID, string(commentJSON))
}

func (r *PostRepository) getOne(ctx context.Context, query string, args ...any) (models.Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, repository.ErrNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) queryPosts(ctx context.Context, where string, args ...any) ([]models.Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+postColumns+` FROM posts WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
