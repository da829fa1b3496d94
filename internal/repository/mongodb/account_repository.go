package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository implements repository.AccountRepository on the accounts collection.
type AccountRepository struct {
	coll *mongo.Collection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(coll *mongo.Collection) *AccountRepository {
	return &AccountRepository{coll: coll}
}

// Create inserts a new account. The unique email index reports duplicates.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if _, err := r.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves a single account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves a single account by its email, including the password hash.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// List retrieves all accounts in registration order.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}

	accounts := []models.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (models.Account, error) {
	var account models.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Account{}, repository.ErrNotFound
		}
		return models.Account{}, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}
