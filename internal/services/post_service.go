package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/techinsight/techinsight-be/internal/clock"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	CreatePost(ctx context.Context, in CreatePostInput) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	UpdatePost(ctx context.Context, id string, patch models.PostPatch) (models.Post, error)
	DeletePost(ctx context.Context, id string) error
	SetLike(ctx context.Context, postID, accountID string, like bool) (int, error)
	AddComment(ctx context.Context, postID, accountID, text string) (models.Post, error)
	SetFavourite(ctx context.Context, postID, accountID string, isFavourite bool) (models.Post, error)
	SearchPosts(ctx context.Context, query string) ([]models.Post, error)
}

// CreatePostInput holds the fields of a new post.
type CreatePostInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Thumbnail   string   `json:"thumbnail"`
	AuthorID    string   `json:"author"`
	Tags        []string `json:"tags"`
	IsFavourite bool     `json:"isFavourite"`
}

// PostService provides business logic for posts and their engagement.
type PostService struct {
	accounts repository.AccountRepository
	posts    repository.PostRepository
	clock    clock.Clock
	notifier Notifier
}

// NewPostService creates a new PostService. A nil notifier discards activity.
func NewPostService(store repository.Store, clk clock.Clock, notifier Notifier) *PostService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PostService{
		accounts: store.Accounts(),
		posts:    store.Posts(),
		clock:    clk,
		notifier: notifier,
	}
}

// CreatePost stores a new post with a snapshot of its author.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (models.Post, error) {
	authorID, err := parseID("author", in.AuthorID)
	if err != nil {
		return models.Post{}, err
	}
	author, err := s.account(ctx, authorID)
	if err != nil {
		return models.Post{}, err
	}

	createdAt := now(s.clock)
	post := models.Post{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Content:      in.Content,
		Thumbnail:    in.Thumbnail,
		Author:       author.Snapshot(createdAt),
		Tags:         cleanTags(in.Tags),
		CreatedAt:    createdAt,
		IsFavourite:  in.IsFavourite,
		FavouritedBy: models.IDSet{},
		Likes:        models.IDSet{},
		Comments:     []models.Comment{},
	}
	if err := s.posts.Create(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}

	log.Info().Str("post_id", post.ID).Str("author_id", authorID).Msg("Post created")
	s.notifier.Notify(post.ID, ActionPostCreated, post)
	return post, nil
}

// ListPosts retrieves all posts, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a single post by its ID.
func (s *PostService) GetPost(ctx context.Context, id string) (models.Post, error) {
	id, err := parseID("post", id)
	if err != nil {
		return models.Post{}, err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return models.Post{}, postError(id, err)
	}
	return post, nil
}

// UpdatePost applies the provided fields of patch to a post.
func (s *PostService) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	id, err := parseID("post", id)
	if err != nil {
		return models.Post{}, err
	}
	if patch.Tags != nil {
		tags := cleanTags(*patch.Tags)
		patch.Tags = &tags
	}

	post, err := s.posts.Update(ctx, id, patch)
	if err != nil {
		return models.Post{}, postError(id, err)
	}
	if !patch.IsEmpty() {
		s.notifier.Notify(post.ID, ActionPostUpdated, post)
	}
	return post, nil
}

// DeletePost removes a post and the engagement data it owns.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	id, err := parseID("post", id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return postError(id, err)
	}

	log.Info().Str("post_id", id).Msg("Post deleted")
	s.notifier.Notify(id, ActionPostDeleted, DeleteEvent{PostID: id})
	return nil
}

// SetLike adds or removes an account's like and returns the resulting like count.
func (s *PostService) SetLike(ctx context.Context, postID, accountID string, like bool) (int, error) {
	postID, accountID, err := s.engagementIDs(ctx, postID, accountID)
	if err != nil {
		return 0, err
	}

	count, err := s.posts.SetLike(ctx, postID, accountID, like)
	if err != nil {
		return 0, postError(postID, err)
	}

	action := ActionPostUnliked
	if like {
		action = ActionPostLiked
	}
	s.notifier.Notify(postID, action, LikeEvent{PostID: postID, AccountID: accountID, LikeCount: count})
	return count, nil
}

// AddComment appends a comment written by accountID to a post.
func (s *PostService) AddComment(ctx context.Context, postID, accountID, text string) (models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return models.Post{}, fmt.Errorf("%w: comment text is required", ErrValidation)
	}
	postID, err := parseID("post", postID)
	if err != nil {
		return models.Post{}, err
	}
	accountID, err = parseID("account", accountID)
	if err != nil {
		return models.Post{}, err
	}
	author, err := s.account(ctx, accountID)
	if err != nil {
		return models.Post{}, err
	}

	createdAt := now(s.clock)
	comment := models.Comment{
		ID:        uuid.New().String(),
		Author:    author.Snapshot(createdAt),
		Text:      text,
		CreatedAt: createdAt,
	}
	post, err := s.posts.AddComment(ctx, postID, comment)
	if err != nil {
		return models.Post{}, postError(postID, err)
	}

	s.notifier.Notify(postID, ActionPostCommented, CommentEvent{PostID: postID, Comment: comment})
	return post, nil
}

// SetFavourite sets the post's favourite flag and records who set it.
func (s *PostService) SetFavourite(ctx context.Context, postID, accountID string, isFavourite bool) (models.Post, error) {
	postID, accountID, err := s.engagementIDs(ctx, postID, accountID)
	if err != nil {
		return models.Post{}, err
	}

	post, err := s.posts.SetFavourite(ctx, postID, accountID, isFavourite)
	if err != nil {
		return models.Post{}, postError(postID, err)
	}

	action := ActionPostUnfavourited
	if isFavourite {
		action = ActionPostFavourited
	}
	s.notifier.Notify(postID, action, FavouriteEvent{PostID: postID, AccountID: accountID, IsFavourite: isFavourite})
	return post, nil
}

// SearchPosts returns posts whose title or any tag contains query, ignoring case.
// A blank query returns every post.
func (s *PostService) SearchPosts(ctx context.Context, query string) ([]models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListPosts(ctx)
	}
	posts, err := s.posts.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

// engagementIDs validates both ids and checks the account exists.
func (s *PostService) engagementIDs(ctx context.Context, postID, accountID string) (string, string, error) {
	postID, err := parseID("post", postID)
	if err != nil {
		return "", "", err
	}
	accountID, err = parseID("account", accountID)
	if err != nil {
		return "", "", err
	}
	if _, err := s.account(ctx, accountID); err != nil {
		return "", "", err
	}
	return postID, accountID, nil
}

func (s *PostService) account(ctx context.Context, id string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func postError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("post %s: %w", id, err)
}

// cleanTags trims every tag and drops the empty ones.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
