package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/techinsight/techinsight-be/internal/clock"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes of a password.
const maxPasswordBytes = 72

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.Account, error)
	Authenticate(ctx context.Context, email, password string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccountByID(ctx context.Context, id string) (models.Account, error)
}

// RegisterInput holds the fields of a new account.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Bio       string `json:"bio"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AccountService provides business logic for account management.
type AccountService struct {
	accounts   repository.AccountRepository
	posts      repository.PostRepository
	bcryptCost int
	clock      clock.Clock
}

// NewAccountService creates a new AccountService.
func NewAccountService(store repository.Store, bcryptCost int, clk clock.Clock) *AccountService {
	return &AccountService{
		accounts:   store.Accounts(),
		posts:      store.Posts(),
		bcryptCost: bcryptCost,
		clock:      clk,
	}
}

// Register creates a new account, hashing its password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.Account, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return models.Account{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.Account{}, fmt.Errorf("%w: password exceeds %d bytes", ErrValidation, maxPasswordBytes)
		}
		return models.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.Account{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Bio:          in.Bio,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now(s.clock),
	}
	if err := s.accounts.Create(ctx, &account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.Account{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
		}
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	// Return account without password hash
	account.PasswordHash = ""
	account.Posts = []models.Post{}
	return account, nil
}

// Authenticate verifies an account's credentials and returns it with its posts.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.Account{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Account{}, fmt.Errorf("account %s: %w", email, ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if len(password) > maxPasswordBytes {
		return models.Account{}, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return models.Account{}, ErrInvalidCredential
	}

	account.PasswordHash = ""
	return s.withPosts(ctx, account)
}

// ListAccounts retrieves all accounts, each with its authored posts.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	byAuthor := make(map[string][]models.Post)
	for _, post := range posts {
		byAuthor[post.Author.ID] = append(byAuthor[post.Author.ID], post)
	}
	for i := range accounts {
		accounts[i].PasswordHash = ""
		accounts[i].Posts = byAuthor[accounts[i].ID]
		if accounts[i].Posts == nil {
			accounts[i].Posts = []models.Post{}
		}
	}
	return accounts, nil
}

// GetAccountByID retrieves a single account by its ID, with its authored posts.
func (s *AccountService) GetAccountByID(ctx context.Context, id string) (models.Account, error) {
	id, err := parseID("account", id)
	if err != nil {
		return models.Account{}, err
	}
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	account.PasswordHash = ""
	return s.withPosts(ctx, account)
}

func (s *AccountService) withPosts(ctx context.Context, account models.Account) (models.Account, error) {
	posts, err := s.posts.ListByAuthor(ctx, account.ID)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to list posts of account %s: %w", account.ID, err)
	}
	account.Posts = posts
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// now truncates to milliseconds, the coarsest precision of any backend.
func now(c clock.Clock) time.Time {
	return c.Now().UTC().Truncate(time.Millisecond)
}
