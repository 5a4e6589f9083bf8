package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"nimbusdrive/catalog"
	"nimbusdrive/common"
	"nimbusdrive/models"
	"nimbusdrive/token"
	"nimbusdrive/utils"
)

// AuthResult bundles the created/authenticated user with a session token.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles registration, login and profile lookup. Passwords are
// stored as bcrypt hashes only.
type AuthService struct {
	userRepo   catalog.UserRepository
	tokens     *token.Service
	sessionTTL time.Duration
}

func NewAuthService(userRepo catalog.UserRepository, tokens *token.Service, sessionTTL time.Duration) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = token.DefaultSessionTTL
	}
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		sessionTTL: sessionTTL,
	}
}

// Register creates a user. A second registration with the same email fails
// ErrAlreadyExists.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	if name == "" || password == "" {
		return nil, fmt.Errorf("name and password are required: %w", common.ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := nowUTC()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueSession(user)
}

// Login verifies credentials. Unknown email and wrong password fail the same
// way so neither leaks which part was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	return s.issueSession(user)
}

// Profile returns the principal's own user record.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, id)
}

func (s *AuthService) issueSession(user *models.User) (*AuthResult, error) {
	signed, err := s.tokens.IssueSession(user.ID.Hex(), user.Email, user.Name, s.sessionTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: signed, User: user}, nil
}
