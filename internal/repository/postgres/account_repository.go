package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
)

const accountColumns = `id, first_name, last_name, bio, email, password_hash, created_at`

// AccountRepository implements repository.AccountRepository on Postgres.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Bio,
		&account.Email, &account.PasswordHash, &account.CreatedAt,
	)
	if err != nil {
		return models.Account{}, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return account, nil
}

// Create implements AccountRepository.Create
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.FirstName, account.LastName, account.Bio,
		account.Email, account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID implements AccountRepository.GetByID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail implements AccountRepository.GetByEmail
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// List implements AccountRepository.List
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg string) (models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, repository.ErrNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
