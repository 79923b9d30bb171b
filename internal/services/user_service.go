package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"store-rating/internal/apperrors"
	"store-rating/internal/db"
	"store-rating/internal/metrics"
	"store-rating/internal/models"
	"store-rating/internal/validation"

	"github.com/rs/zerolog"
)

const msgInvalidCredentials = "Invalid credentials"

// TokenIssuer signs a token for an authenticated identity.
type TokenIssuer interface {
	GenerateToken(userID int, role string) (string, error)
}

// UserService handles registration, login and password rotation.
type UserService struct {
	db     *sql.DB
	hasher PasswordHasher
	tokens TokenIssuer
	logger zerolog.Logger
}

func NewUserService(db *sql.DB, hasher PasswordHasher, tokens TokenIssuer, logger zerolog.Logger) *UserService {
	return &UserService{
		db:     db,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a user. Only store_owner may be requested; any other role,
// admin included, is downgraded to user.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (int, error) {
	if err := validation.Struct(req); err != nil {
		return 0, err
	}

	role := models.ResolveSignupRole(req.Role)

	userID, err := insertUser(ctx, s.db, s.hasher, newUser{
		name:     req.Name,
		email:    req.Email,
		password: req.Password,
		address:  req.Address,
		role:     role,
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.KindDuplicateEmail) {
			s.logger.Error().Err(err).Msg("Error registering user")
		}
		return 0, err
	}

	metrics.RecordRegistration()
	s.logger.Info().Int("user_id", userID).Str("email", req.Email).Str("role", string(role)).Msg("User registered successfully")
	return userID, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, role FROM users WHERE email = ?",
		req.Email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn().Str("email", req.Email).Msg("Failed authentication attempt")
		metrics.RecordLogin(false)
		return nil, apperrors.InvalidCredentials(msgInvalidCredentials)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error querying user")
		return nil, apperrors.Internal(fmt.Errorf("query user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn().Str("email", req.Email).Msg("Failed authentication attempt")
		metrics.RecordLogin(false)
		return nil, apperrors.InvalidCredentials(msgInvalidCredentials)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("generate token: %w", err))
	}

	metrics.RecordLogin(true)
	s.logger.Info().Int("user_id", user.ID).Msg("User authenticated successfully")

	return &models.LoginResponse{
		Token: token,
		Role:  user.Role,
		Name:  user.Name,
		ID:    user.ID,
	}, nil
}

// ChangePassword rotates the caller's password. Tokens issued earlier stay
// valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, userID int, req *models.UpdatePasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	var passwordHash string
	err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", userID).Scan(&passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("User not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error fetching user")
		return apperrors.Internal(fmt.Errorf("query user: %w", err))
	}

	if err := s.hasher.Compare(passwordHash, req.CurrentPassword); err != nil {
		s.logger.Warn().Int("user_id", userID).Msg("Password change rejected: current password mismatch")
		return apperrors.InvalidCredentials("Incorrect current password")
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", newHash, userID); err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error updating password")
		return apperrors.Internal(fmt.Errorf("update password: %w", err))
	}

	s.logger.Info().Int("user_id", userID).Msg("Password updated")
	return nil
}

type newUser struct {
	name     string
	email    string
	password string
	address  string
	role     models.UserRole
}

// insertUser checks for an existing email, hashes the password and inserts
// the row. A unique-key violation on insert is reported the same way as the
// pre-check, covering two registrations racing for one email.
func insertUser(ctx context.Context, conn *sql.DB, hasher PasswordHasher, u newUser) (int, error) {
	var existingID int
	err := conn.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", u.email).Scan(&existingID)
	if err == nil {
		return 0, apperrors.DuplicateEmail()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.Internal(fmt.Errorf("check existing user: %w", err))
	}

	hash, err := hasher.Hash(u.password)
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	result, err := conn.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, address, role) VALUES (?, ?, ?, ?, ?)",
		u.name, u.email, hash, nullable(u.address), string(u.role),
	)
	if db.IsDuplicateEntry(err) {
		return 0, apperrors.DuplicateEmail()
	}
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("insert user: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("user id: %w", err))
	}

	return int(id), nil
}
