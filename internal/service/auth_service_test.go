package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-osa/care-desk-api/internal/models"
)

type authUserStub struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
}

func newAuthUserStub() *authUserStub {
	return &authUserStub{users: make(map[string]*models.User), lastLogin: make(map[string]time.Time)}
}

func (s *authUserStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin[id] = ts
	return nil
}

func seedUser(t *testing.T, stub *authUserStub, role models.UserRole, department *string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "user-1",
		Email:        "staff@example.com",
		PasswordHash: string(hash),
		FullName:     "Care Staff",
		Role:         role,
		Department:   department,
		Active:       true,
	}
	stub.users[user.ID] = user
	return user
}

func newAuthFixture(t *testing.T) (*AuthService, *authUserStub, *auditStub) {
	stub := newAuthUserStub()
	audits := &auditStub{}
	svc := NewAuthService(stub, audits, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "care-desk-api",
	})
	return svc, stub, audits
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, stub, audits := newAuthFixture(t)
	dept := "CCS"
	seedUser(t, stub, models.RoleDepartment, &dept)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "staff@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "CCS", resp.User.Department)
	require.Len(t, audits.logs, 1)
	require.Equal(t, models.AuditActionLogin, audits.logs[0].Action)
	require.Contains(t, stub.lastLogin, "user-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleDepartment, claims.Role)
	require.Equal(t, "CCS", claims.Department)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, stub, _ := newAuthFixture(t)
	seedUser(t, stub, models.RoleCareStaff, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "staff@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, stub, _ := newAuthFixture(t)
	user := seedUser(t, stub, models.RoleCareStaff, nil)
	user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "staff@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
