// Package repository defines the persistence contracts shared by every storage backend.
package repository

import (
	"context"
	"errors"

	"github.com/techinsight/techinsight-be/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail indicates an account with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// AccountRepository persists accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (models.Account, error)
	// GetByEmail returns the account including its password hash.
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// PostRepository persists posts together with the engagement data they own.
//
// Engagement mutations (SetLike, SetFavourite, AddComment) must be applied by
// the backend as a single atomic update so concurrent callers never lose
// each other's writes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (models.Post, error)
	// List returns all posts, newest first.
	List(ctx context.Context) ([]models.Post, error)
	// ListByAuthor returns the posts whose author snapshot has the given account ID, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	// Search returns posts whose title or any tag contains query, case-insensitively, newest first.
	Search(ctx context.Context, query string) ([]models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch) (models.Post, error)
	Delete(ctx context.Context, id string) error
	// SetLike adds or removes accountID from the post's likes and returns the resulting like count.
	SetLike(ctx context.Context, postID, accountID string, like bool) (int, error)
	// SetFavourite sets the post-level flag and adds or removes accountID from favouritedBy.
	SetFavourite(ctx context.Context, postID, accountID string, isFavourite bool) (models.Post, error)
	AddComment(ctx context.Context, postID string, comment models.Comment) (models.Post, error)
}

// Store is an open storage backend. It must be closed when no longer needed.
type Store interface {
	Accounts() AccountRepository
	Posts() PostRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
