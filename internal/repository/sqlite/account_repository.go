package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
)

const accountColumns = `id, first_name, last_name, bio, email, password_hash, created_at`

// AccountRepository stores accounts in the accounts table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// scanAccount is a helper to scan an account from a row or rows object.
func scanAccount(scanner interface{ Scan(...interface{}) error }) (models.Account, error) {
	var account models.Account
	var createdAt string
	err := scanner.Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Bio,
		&account.Email, &account.PasswordHash, &createdAt,
	)
	if err != nil {
		return models.Account{}, err
	}
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.FirstName, account.LastName, account.Bio,
		account.Email, account.PasswordHash, formatTime(account.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves a single account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return r.scanOne(row)
}

// GetByEmail retrieves a single account by its email, including the password hash.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return r.scanOne(row)
}

// List retrieves all accounts in registration order.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
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

func (r *AccountRepository) scanOne(row *sql.Row) (models.Account, error) {
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, repository.ErrNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}
