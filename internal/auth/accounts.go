package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidEmail indicates a missing or malformed email address.
	ErrInvalidEmail = errors.New("auth: invalid email")
	// ErrInvalidPassword indicates a missing or too-short password.
	ErrInvalidPassword = errors.New("auth: invalid password")
	// ErrEmailTaken indicates an account already exists under the email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials indicates a failed sign-in attempt.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountNotFound indicates that no account exists under the identifier.
	ErrAccountNotFound = errors.New("auth: account not found")
)

const minPasswordLength = 8

// Account holds a registered user's credentials.
type Account struct {
	UserID       string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName exposes the table backing user accounts.
func (Account) TableName() string {
	return "accounts"
}

// IDProvider issues identifiers for new accounts.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// AccountServiceConfig describes the dependencies for account management.
type AccountServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	BcryptCost int
	Logger     *zap.Logger
}

// AccountService registers accounts and verifies sign-in credentials.
type AccountService struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider IDProvider
	bcryptCost int
	logger     *zap.Logger
}

// NewAccountService constructs the account service.
func NewAccountService(cfg AccountServiceConfig) (*AccountService, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("auth: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	idProvider := cfg.IDProvider
	if idProvider == nil {
		idProvider = NewUUIDProvider()
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		db:         cfg.Database,
		now:        clock,
		idProvider: idProvider,
		bcryptCost: cost,
		logger:     logger,
	}, nil
}

// SignUp registers a new account under the normalized email.
func (s *AccountService) SignUp(ctx context.Context, email, password string) (Account, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return Account{}, err
	}
	if len(password) < minPasswordLength {
		return Account{}, fmt.Errorf("%w: at least %d characters required", ErrInvalidPassword, minPasswordLength)
	}

	var existing Account
	err = s.db.WithContext(ctx).Where("email = ?", normalized).Take(&existing).Error
	if err == nil {
		return Account{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("account lookup failed", zap.Error(err))
		return Account{}, fmt.Errorf("auth: account lookup failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("auth: password hashing failed: %w", err)
	}
	userID, err := s.idProvider.NewID()
	if err != nil {
		return Account{}, fmt.Errorf("auth: id generation failed: %w", err)
	}

	account := Account{
		UserID:       userID,
		Email:        normalized,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		s.logger.Error("account insert failed", zap.Error(err))
		return Account{}, fmt.Errorf("auth: account insert failed: %w", err)
	}
	return account, nil
}

// SignIn verifies the credentials and returns the matching account.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (Account, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return Account{}, ErrInvalidCredentials
	}

	var account Account
	err = s.db.WithContext(ctx).Where("email = ?", normalized).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("account lookup failed", zap.Error(err))
		return Account{}, fmt.Errorf("auth: account lookup failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// GetByID returns the account stored under the given user id.
func (s *AccountService) GetByID(ctx context.Context, userID string) (Account, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return Account{}, ErrAccountNotFound
	}

	var account Account
	err := s.db.WithContext(ctx).Where("user_id = ?", trimmed).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		s.logger.Error("account lookup failed", zap.Error(err))
		return Account{}, fmt.Errorf("auth: account lookup failed: %w", err)
	}
	return account, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || !strings.Contains(normalized, "@") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return normalized, nil
}
