package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pkgAuth "github.com/mateovidal/storelane-backend/pkg/auth"
	"github.com/mateovidal/storelane-backend/pkg/auth/session"
	"github.com/mateovidal/storelane-backend/pkg/config"
	"github.com/mateovidal/storelane-backend/pkg/db/models"
	"github.com/mateovidal/storelane-backend/pkg/enums"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/mateovidal/storelane-backend/pkg/security"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	created []*models.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.created = append(s.created, user)
	if s.byEmail == nil {
		s.byEmail = map[string]*models.User{}
	}
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessionManager struct {
	generated map[string]string
	revoked   []string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if s.generated == nil {
		s.generated = map[string]string{}
	}
	token := "refresh-" + accessID
	s.generated[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.generated, oldAccessID)
	newID := uuid.NewString()
	token, _ := s.Generate(ctx, newID)
	return newID, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.generated, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storelane",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestRegisterCreatesCustomerAndIssuesTokens(t *testing.T) {
	repo := &stubUserRepo{}
	svc, _ := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Jane Shopper",
		Email:    "Jane@Example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(repo.created))
	}
	if repo.created[0].Email != "jane@example.com" {
		t.Fatalf("expected lowercased email, got %q", repo.created[0].Email)
	}
	if repo.created[0].Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", repo.created[0].Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role claim, got %s", claims.Role)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := &models.User{
		ID:    uuid.New(),
		Email: "taken@example.com",
		Role:  enums.UserRoleCustomer,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{existing.Email: existing}}
	svc, _ := buildTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Second Taker",
		Email:    "taken@example.com",
		Password: "hunter2hunter2",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWithValidCredentials(t *testing.T) {
	password := "correct-horse"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Sam Buyer",
		Email:        "sam@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleCustomer,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, sessions := buildTestService(t, repo)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Sam@Example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected user in response")
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.generated))
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		Role:         enums.UserRoleCustomer,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong-password"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	svc, _ := buildTestService(t, &stubUserRepo{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	password := "correct-horse"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleCustomer,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, _ := buildTestService(t, repo)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == login.AccessToken {
		t.Fatal("expected rotated access token")
	}

	// The old refresh token is single-use.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err == nil {
		t.Fatal("expected rejection of reused refresh token")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	password := "correct-horse"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleCustomer,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, sessions := buildTestService(t, repo)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(sessions.revoked))
	}
}
