package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"todo-api/internal/models"
	"todo-api/internal/repositories"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	Lookup(ctx context.Context, userID uuid.UUID) *models.User
	RefreshAccessToken(ctx context.Context, userID uuid.UUID) (string, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error)
	Logout(ctx context.Context, tokens ...string) error
}

type AuthResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// ProfileUpdate carries the optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

type AuthServiceImpl struct {
	db         *gorm.DB
	users      *repositories.UserRepository
	tokens     *TokenManager
	revoked    RevocationStore
	bcryptCost int
	log        *slog.Logger
}

func NewAuthService(db *gorm.DB, tokens *TokenManager, revoked RevocationStore, bcryptCost int) *AuthServiceImpl {
	if revoked == nil {
		revoked = NewNoopRevocationStore()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthServiceImpl{
		db:         db,
		users:      repositories.NewUserRepository(db),
		tokens:     tokens,
		revoked:    revoked,
		bcryptCost: bcryptCost,
		log:        slog.Default().With("component", "auth"),
	}
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name, err := validateUserName(name)
	if err != nil {
		return nil, err
	}
	email, err = validateEmail(email)
	if err != nil {
		return nil, err
	}
	if !ValidatePassword(password) {
		return nil, ValidationError("password must be at least 6 characters")
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, InternalError("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		if _, err := users.FindByEmail(ctx, user.Email); err == nil {
			return ConflictError("email already registered")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return InternalError("failed to check email", err)
		}

		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ConflictError("email already registered")
			}
			return InternalError("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, InvalidCredentialsError()
		}
		return nil, InternalError("failed to load user", err)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, InvalidCredentialsError()
	}

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, InternalError("failed to issue token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, InternalError("failed to issue token", err)
	}

	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Lookup returns nil both when the user does not exist and when the store
// fails; failures are logged.
func (s *AuthServiceImpl) Lookup(ctx context.Context, userID uuid.UUID) *models.User {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.log.Warn("user lookup failed", "user_id", userID, "error", err)
		}
		return nil
	}
	return user
}

func (s *AuthServiceImpl) RefreshAccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.Lookup(ctx, userID) == nil {
		return "", NotFoundError("user not found")
	}

	token, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", InternalError("failed to issue token", err)
	}
	return token, nil
}

func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	var newName, newEmail, newHash string

	// Blank names are ignored rather than rejected.
	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		name, err := validateUserName(*update.Name)
		if err != nil {
			return nil, err
		}
		newName = name
	}
	if update.Email != nil {
		email, err := validateEmail(*update.Email)
		if err != nil {
			return nil, err
		}
		newEmail = email
	}
	if update.Password != nil {
		if !ValidatePassword(*update.Password) {
			return nil, ValidationError("password must be at least 6 characters")
		}
		hash, err := HashPassword(*update.Password, s.bcryptCost)
		if err != nil {
			return nil, InternalError("failed to hash password", err)
		}
		newHash = hash
	}

	var updated *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return NotFoundError("user not found")
			}
			return InternalError("failed to load user", err)
		}

		if newName != "" {
			user.Name = newName
		}

		if newEmail != "" && newEmail != user.Email {
			taken, err := users.EmailTaken(ctx, newEmail, user.ID)
			if err != nil {
				return InternalError("failed to check email", err)
			}
			if taken {
				return ConflictError("email already in use")
			}
			user.Email = newEmail
		}

		if newHash != "" {
			user.PasswordHash = newHash
		}

		user.UpdatedAt = time.Now().UTC()
		if err := users.Save(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ConflictError("email already in use")
			}
			return InternalError("failed to update user", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Logout revokes each token that still verifies. Revocation is best effort:
// failures are logged and never returned.
func (s *AuthServiceImpl) Logout(ctx context.Context, tokens ...string) error {
	now := time.Now()
	for _, raw := range tokens {
		if raw == "" {
			continue
		}

		claims, err := s.tokens.Verify(raw, AccessToken)
		if errors.Is(err, ErrTokenWrongType) {
			claims, err = s.tokens.Verify(raw, RefreshToken)
		}
		if err != nil {
			continue
		}

		if err := s.revoked.Revoke(ctx, claims.ID, claims.Remaining(now)); err != nil {
			s.log.Warn("token revocation failed", "jti", claims.ID, "error", err)
		}
	}
	return nil
}

// IsRevoked is fail-open: a store error is logged and the token accepted.
func (s *AuthServiceImpl) IsRevoked(ctx context.Context, claims *Claims) bool {
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Warn("revocation check failed", "jti", claims.ID, "error", err)
		return false
	}
	return revoked
}

func (s *AuthServiceImpl) Tokens() *TokenManager {
	return s.tokens
}
