// Package mongodb implements the repository contracts on MongoDB, storing each
// post as one document with its likes, favourites and comments embedded.
package mongodb

import (
	"context"
	"fmt"

	"github.com/techinsight/techinsight-be/internal/database"
	"github.com/techinsight/techinsight-be/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store bundles the MongoDB repositories over one client.
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	accounts *AccountRepository
	posts    *PostRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store over db. The client is disconnected on Close.
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		db:       db,
		accounts: NewAccountRepository(db.Collection(database.AccountsCollection)),
		posts:    NewPostRepository(db.Collection(database.PostsCollection)),
	}
}

// Open connects to uri, ensures indexes on the named database and returns a Store.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := database.NewMongoClient(ctx, uri)
	if err != nil {
		return nil, err
	}
	db := client.Database(dbName)
	if err := database.MigrateMongo(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return NewStore(client, db), nil
}

// Accounts returns the account repository.
func (s *Store) Accounts() repository.AccountRepository { return s.accounts }

// Posts returns the post repository.
func (s *Store) Posts() repository.PostRepository { return s.posts }

// Ping verifies the deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Intended for tests.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.db.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}
