package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRollNumberNotFound = errors.New("roll number not found")
)

// TokenType distinguishes student vs admin tokens.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields. Subject holds
// the student or admin ID.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	Name      string    `json:"name,omitempty"`
}

// AdminStore is the admin lookup used for login.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetByID(ctx context.Context, id int) (*model.Admin, error)
}

// AuthService handles login, JWT issuing and password hashing.
type AuthService struct {
	cfg      *config.Config
	students StudentStore
	admins   AdminStore
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, students StudentStore, admins AdminStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		students: students,
		admins:   admins,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginStudent looks the roll number up and issues a student token.
func (s *AuthService) LoginStudent(ctx context.Context, roll string) (*model.StudentLoginResponse, error) {
	student, err := s.students.GetByRollNumber(ctx, strings.TrimSpace(roll))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRollNumberNotFound
		}
		return nil, fmt.Errorf("lookup roll number: %w", err)
	}

	token, err := s.sign(TokenTypeStudent, student.ID, student.Name)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("student_id", student.ID).Msg("Student logged in")
	return &model.StudentLoginResponse{Token: token, Student: *student}, nil
}

// LoginAdmin verifies username and password and issues an admin token.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (*model.AdminLoginResponse, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same cost as a wrong password.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	if err := s.CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, err
	}

	token, err := s.sign(TokenTypeAdmin, strconv.Itoa(admin.ID), admin.Username)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("admin_id", admin.ID).Msg("Admin logged in")
	return &model.AdminLoginResponse{Token: token, Admin: *admin}, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)

func (s *AuthService) sign(tt TokenType, subject, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: tt,
		Name:      name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Admin returns the admin named by a token subject.
func (s *AuthService) Admin(ctx context.Context, subject string) (*model.Admin, error) {
	id, err := strconv.Atoi(subject)
	if err != nil {
		return nil, fmt.Errorf("admin subject %q: %w", subject, ErrInvalidCredentials)
	}
	return s.admins.GetByID(ctx, id)
}
