package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
)

const postColumns = `id, title, content, thumbnail,
	author_id, author_first_name, author_last_name, author_bio, author_snapshot_at,
	tags_json, is_favourite, created_at`

// Membership tables for the two account sets a post owns.
const (
	likesTable      = "post_likes"
	favouritesTable = "post_favourites"
)

// PostRepository stores posts in the posts table and their engagement data in child tables.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// scanPost is a helper to scan a post row without its engagement data.
func scanPost(scanner interface{ Scan(...interface{}) error }) (models.Post, error) {
	var post models.Post
	var snapshotAt, tagsJSON, createdAt string
	err := scanner.Scan(
		&post.ID, &post.Title, &post.Content, &post.Thumbnail,
		&post.Author.ID, &post.Author.FirstName, &post.Author.LastName, &post.Author.Bio, &snapshotAt,
		&tagsJSON, &post.IsFavourite, &createdAt,
	)
	if err != nil {
		return models.Post{}, err
	}
	if post.Author.SnapshotAt, err = parseTime(snapshotAt); err != nil {
		return models.Post{}, err
	}
	if post.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Post{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &post.Tags); err != nil {
		return models.Post{}, fmt.Errorf("decode tags of post %s: %w", post.ID, err)
	}
	post.Normalize()
	return post, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// Create inserts a new post. Engagement collections start empty.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.Normalize()
	tagsJSON, err := marshalTags(post.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Content, post.Thumbnail,
		post.Author.ID, post.Author.FirstName, post.Author.LastName, post.Author.Bio, formatTime(post.Author.SnapshotAt),
		tagsJSON, post.IsFavourite, formatTime(post.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post with its likes, favourites and comments.
func (r *PostRepository) GetByID(ctx context.Context, id string) (models.Post, error) {
	posts, err := r.queryPosts(ctx, "id = ?", id)
	if err != nil {
		return models.Post{}, err
	}
	if len(posts) == 0 {
		return models.Post{}, repository.ErrNotFound
	}
	return posts[0], nil
}

// List retrieves all posts, newest first.
func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	return r.queryPosts(ctx, "1 = 1")
}

// ListByAuthor retrieves the posts written by the given account, newest first.
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.queryPosts(ctx, "author_id = ?", authorID)
}

// Search matches query against titles and tags, ignoring case.
func (r *PostRepository) Search(ctx context.Context, query string) ([]models.Post, error) {
	pattern := repository.ContainsPattern(strings.ToLower(query))
	return r.queryPosts(ctx,
		`unicode_lower(title) LIKE ? ESCAPE '\'
		OR EXISTS (SELECT 1 FROM json_each(posts.tags_json) WHERE unicode_lower(json_each.value) LIKE ? ESCAPE '\')`,
		pattern, pattern,
	)
}

// Update applies the non-nil fields of patch in a single statement.
func (r *PostRepository) Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	var sets []string
	var args []interface{}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Thumbnail != nil {
		sets = append(sets, "thumbnail = ?")
		args = append(args, *patch.Thumbnail)
	}
	if patch.Tags != nil {
		tagsJSON, err := marshalTags(*patch.Tags)
		if err != nil {
			return models.Post{}, err
		}
		sets = append(sets, "tags_json = ?")
		args = append(args, tagsJSON)
	}
	if patch.IsFavourite != nil {
		sets = append(sets, "is_favourite = ?")
		args = append(args, *patch.IsFavourite)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return models.Post{}, fmt.Errorf("update post: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return models.Post{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a post together with the likes, favourites and comments it owns.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{likesTable, favouritesTable, "post_comments"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// SetLike adds or removes a like and returns the post's like count.
func (r *PostRepository) SetLike(ctx context.Context, postID, accountID string, like bool) (int, error) {
	if err := r.ensureExists(ctx, postID); err != nil {
		return 0, err
	}
	if err := r.setMember(ctx, likesTable, postID, accountID, like); err != nil {
		return 0, err
	}

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// SetFavourite updates the favourite flag and the favouritedBy membership of accountID.
func (r *PostRepository) SetFavourite(ctx context.Context, postID, accountID string, isFavourite bool) (models.Post, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET is_favourite = ? WHERE id = ?`, isFavourite, postID)
	if err != nil {
		return models.Post{}, fmt.Errorf("update favourite flag: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return models.Post{}, err
	}
	if err := r.setMember(ctx, favouritesTable, postID, accountID, isFavourite); err != nil {
		return models.Post{}, err
	}
	return r.GetByID(ctx, postID)
}

// AddComment appends a comment to the post.
func (r *PostRepository) AddComment(ctx context.Context, postID string, comment models.Comment) (models.Post, error) {
	if err := r.ensureExists(ctx, postID); err != nil {
		return models.Post{}, err
	}
	if err := r.insertComment(ctx, postID, comment); err != nil {
		return models.Post{}, err
	}
	return r.GetByID(ctx, postID)
}

// insertComment reports repository.ErrNotFound when the post is gone.
func (r *PostRepository) insertComment(ctx context.Context, postID string, comment models.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO post_comments (id, post_id, author_id, author_first_name, author_last_name, author_bio, author_snapshot_at, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		comment.ID, postID,
		comment.Author.ID, comment.Author.FirstName, comment.Author.LastName, comment.Author.Bio, formatTime(comment.Author.SnapshotAt),
		comment.Text, formatTime(comment.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// setMember idempotently adds or removes accountID in one of the membership tables.
func (r *PostRepository) setMember(ctx context.Context, table, postID, accountID string, member bool) error {
	var err error
	if member {
		_, err = r.db.ExecContext(ctx, `INSERT OR IGNORE INTO `+table+` (post_id, account_id) VALUES (?, ?)`, postID, accountID)
	} else {
		_, err = r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE post_id = ? AND account_id = ?`, postID, accountID)
	}
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (r *PostRepository) ensureExists(ctx context.Context, postID string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// queryPosts loads the posts matching where, newest first, and attaches their engagement data.
func (r *PostRepository) queryPosts(ctx context.Context, where string, args ...interface{}) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx,
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// hydrate loads likes, favourites and comments for posts in insertion order.
func (r *PostRepository) hydrate(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[string]*models.Post, len(posts))
	ids := make([]interface{}, len(posts))
	for i := range posts {
		index[posts[i].ID] = &posts[i]
		ids[i] = posts[i].ID
	}
	in := placeholders(len(ids))

	err := r.loadMembers(ctx, likesTable, in, ids, index, func(post *models.Post, accountID string) {
		post.Likes.Add(accountID)
	})
	if err != nil {
		return err
	}
	err = r.loadMembers(ctx, favouritesTable, in, ids, index, func(post *models.Post, accountID string) {
		post.FavouritedBy.Add(accountID)
	})
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT post_id, id, author_id, author_first_name, author_last_name, author_bio, author_snapshot_at, text, created_at
		FROM post_comments WHERE post_id IN (`+in+`) ORDER BY rowid`, ids...)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID, snapshotAt, createdAt string
		var comment models.Comment
		err := rows.Scan(&postID, &comment.ID,
			&comment.Author.ID, &comment.Author.FirstName, &comment.Author.LastName, &comment.Author.Bio, &snapshotAt,
			&comment.Text, &createdAt)
		if err != nil {
			return err
		}
		if comment.Author.SnapshotAt, err = parseTime(snapshotAt); err != nil {
			return err
		}
		if comment.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		if post, ok := index[postID]; ok {
			post.Comments = append(post.Comments, comment)
		}
	}
	return rows.Err()
}

func (r *PostRepository) loadMembers(ctx context.Context, table, in string, ids []interface{}, index map[string]*models.Post, add func(*models.Post, string)) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id, account_id FROM `+table+` WHERE post_id IN (`+in+`) ORDER BY rowid`, ids...)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID, accountID string
		if err := rows.Scan(&postID, &accountID); err != nil {
			return err
		}
		if post, ok := index[postID]; ok {
			add(post, accountID)
		}
	}
	return rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
