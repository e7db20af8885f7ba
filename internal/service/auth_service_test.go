package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
)

type memAdmins struct{ admins []*model.Admin }

func (m *memAdmins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	for _, a := range m.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAdmins) GetByID(_ context.Context, id int) (*model.Admin, error) {
	for _, a := range m.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	admins := &memAdmins{admins: []*model.Admin{{ID: 7, Username: "root", PasswordHash: string(hash)}}}
	students := newMemStudents(&model.Student{ID: "s1", Name: "Asha", RollNumber: "ROLL0001"})
	return NewAuthService(cfg, students, admins, zerolog.Nop())
}

func TestLoginStudent(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.LoginStudent(context.Background(), " ROLL0001 ")
	if err != nil {
		t.Fatalf("LoginStudent: %v", err)
	}
	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "s1" || claims.TokenType != TokenTypeStudent {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := auth.LoginStudent(context.Background(), "ROLL9999"); !errors.Is(err, ErrRollNumberNotFound) {
		t.Errorf("unknown roll = %v, want ErrRollNumberNotFound", err)
	}
}

func TestLoginAdmin(t *testing.T) {
	auth := newTestAuth(t)

	tests := []struct {
		name     string
		user     string
		password string
		wantErr  error
	}{
		{name: "valid", user: "root", password: "s3cret-pass"},
		{name: "wrong password", user: "root", password: "nope-nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", user: "ghost", password: "s3cret-pass", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := auth.LoginAdmin(context.Background(), tt.user, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoginAdmin: %v", err)
			}
			claims, err := auth.ValidateToken(resp.Token)
			if err != nil {
				t.Fatal(err)
			}
			if claims.Subject != "7" || claims.TokenType != TokenTypeAdmin {
				t.Errorf("claims = %+v", claims)
			}
		})
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	auth := newTestAuth(t)
	resp, err := auth.LoginStudent(context.Background(), "ROLL0001")
	if err != nil {
		t.Fatal(err)
	}

	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil, nil, zerolog.Nop())
	if _, err := other.ValidateToken(resp.Token); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}
