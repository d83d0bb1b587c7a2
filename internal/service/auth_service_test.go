package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/service"
	"github.com/roamtrails/tours-api/pkg/auth"
	"github.com/roamtrails/tours-api/pkg/config"
)

// ---------- Mocks ----------

type mockUserStore struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User

	resetTokenHash    string
	resetTokenExpires time.Time
	resetTokenUser    *domain.User
	clearCalls        int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[string]*domain.User),
	}
}

func (m *mockUserStore) add(user *domain.User) *domain.User {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID.Hex()] = user
	return user
}

func (m *mockUserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := m.byEmail[user.Email]; exists {
		return nil, &domain.DuplicateError{Field: "email", Value: user.Email}
	}
	return m.add(user), nil
}

func (m *mockUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserStore) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	if m.resetTokenUser == nil || m.resetTokenHash != tokenHash || now.After(m.resetTokenExpires) {
		return nil, domain.ErrNotFound
	}
	return m.resetTokenUser, nil
}

func (m *mockUserStore) SetResetToken(_ context.Context, id bson.ObjectID, tokenHash string, expires time.Time) error {
	m.resetTokenHash = tokenHash
	m.resetTokenExpires = expires
	m.resetTokenUser = m.byID[id.Hex()]
	return nil
}

func (m *mockUserStore) ClearResetToken(_ context.Context, id bson.ObjectID) error {
	m.clearCalls++
	m.resetTokenHash = ""
	m.resetTokenUser = nil
	return nil
}

func (m *mockUserStore) SetPassword(_ context.Context, id bson.ObjectID, hash string, changedAt time.Time) error {
	user, ok := m.byID[id.Hex()]
	if !ok {
		return domain.ErrNotFound
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = changedAt
	m.resetTokenHash = ""
	m.resetTokenUser = nil
	return nil
}

type mockMailer struct {
	welcomeTo string
	resetTo   string
	resetURL  string
	sendErr   error
}

func (m *mockMailer) SendWelcome(toEmail, toName, accountURL string) error {
	m.welcomeTo = toEmail
	return m.sendErr
}

func (m *mockMailer) SendPasswordReset(toEmail, toName, resetURL string) error {
	m.resetTo = toEmail
	m.resetURL = resetURL
	return m.sendErr
}

// ---------- Test setup ----------

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.ResetTokenTTL = 10 * time.Minute
	return cfg
}

func setupAuth() (service.AuthService, *mockUserStore, *mockMailer) {
	users := newMockUserStore()
	mail := &mockMailer{}
	return service.NewAuthService(users, mail, testConfig()), users, mail
}

func seedUser(t *testing.T, users *mockUserStore, email, password string) *domain.User {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	return users.add(&domain.User{
		Name:         "Test User",
		Email:        email,
		Role:         domain.RoleUser,
		PasswordHash: hash,
		Active:       true,
	})
}

// ---------- Tests ----------

func TestSignUp_HashesPasswordAndIssuesToken(t *testing.T) {
	svc, users, mail := setupAuth()

	user, token, err := svc.SignUp(context.Background(), &domain.SignupRequest{
		Name:            "Jonas",
		Email:           "Jonas@Example.com",
		Password:        "pass12345",
		PasswordConfirm: "pass12345",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	if user.Email != "jonas@example.com" {
		t.Fatalf("Expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "pass12345" || user.PasswordHash == "" {
		t.Fatal("Password must be stored hashed")
	}
	if mail.welcomeTo != "jonas@example.com" {
		t.Fatalf("Expected welcome mail, got %q", mail.welcomeTo)
	}

	claims, err := auth.Parse(token, "test-secret")
	if err != nil {
		t.Fatalf("Failed to parse issued token: %v", err)
	}
	if claims.Sub != users.byEmail["jonas@example.com"].ID.Hex() {
		t.Fatalf("Token subject mismatch: %s", claims.Sub)
	}
}

func TestSignUp_SucceedsWhenWelcomeMailFails(t *testing.T) {
	svc, _, mail := setupAuth()
	mail.sendErr = errors.New("smtp down")

	_, token, err := svc.SignUp(context.Background(), &domain.SignupRequest{
		Name:            "Jonas",
		Email:           "jonas@example.com",
		Password:        "pass12345",
		PasswordConfirm: "pass12345",
	})
	if err != nil {
		t.Fatalf("SignUp must not fail on mail errors: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a session token")
	}
}

// A wrong password and an unknown email must be indistinguishable to the
// caller.
func TestLogin_UniformFailureMessage(t *testing.T) {
	svc, users, _ := setupAuth()
	seedUser(t, users, "jonas@example.com", "correct-password")

	_, _, wrongPassword := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "jonas@example.com",
		Password: "wrong-password",
	})
	_, _, unknownEmail := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("Failure messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, users, _ := setupAuth()
	seeded := seedUser(t, users, "jonas@example.com", "correct-password")

	user, token, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "jonas@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != seeded.ID || token == "" {
		t.Fatal("Expected the seeded user and a token")
	}
}

func TestAuthenticate_RejectsTokenIssuedBeforePasswordChange(t *testing.T) {
	svc, users, _ := setupAuth()
	user := seedUser(t, users, "jonas@example.com", "correct-password")

	_, token, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "jonas@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// password changes after the token was issued
	user.PasswordChangedAt = time.Now().Add(time.Hour)

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrTokenStale) {
		t.Fatalf("Expected ErrTokenStale, got %v", err)
	}
}

func TestAuthenticate_RejectsDeletedUser(t *testing.T) {
	svc, users, _ := setupAuth()
	user := seedUser(t, users, "jonas@example.com", "correct-password")

	_, token, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "jonas@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	delete(users.byID, user.ID.Hex())

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	svc, _, _ := setupAuth()

	if _, err := svc.Authenticate(context.Background(), "not-a-jwt"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestForgotPassword_StoresOnlyTokenDigest(t *testing.T) {
	svc, users, mail := setupAuth()
	seedUser(t, users, "jonas@example.com", "correct-password")

	err := svc.ForgotPassword(context.Background(),
		&domain.ForgotPasswordRequest{Email: "jonas@example.com"}, "https://app.example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	if mail.resetURL == "" {
		t.Fatal("Expected a reset URL in the mail")
	}
	if users.resetTokenHash == "" {
		t.Fatal("Expected a stored token digest")
	}
	// the mail carries the plaintext token; the URL must not contain the digest
	if strings.Contains(mail.resetURL, users.resetTokenHash) {
		t.Fatal("Stored digest leaked into the reset URL")
	}
}

// When the reset mail cannot be sent, the stored token must be rolled back so
// no unusable reset state lingers.
func TestForgotPassword_RollsBackTokenOnMailFailure(t *testing.T) {
	svc, users, mail := setupAuth()
	seedUser(t, users, "jonas@example.com", "correct-password")
	mail.sendErr = errors.New("provider 500")

	err := svc.ForgotPassword(context.Background(),
		&domain.ForgotPasswordRequest{Email: "jonas@example.com"}, "")

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if users.clearCalls != 1 {
		t.Fatalf("Expected the reset token to be cleared once, got %d", users.clearCalls)
	}
	if users.resetTokenHash != "" {
		t.Fatal("Reset token must not survive a failed send")
	}
}

func TestResetPassword_Roundtrip(t *testing.T) {
	svc, users, mail := setupAuth()
	seedUser(t, users, "jonas@example.com", "old-password")

	if err := svc.ForgotPassword(context.Background(),
		&domain.ForgotPasswordRequest{Email: "jonas@example.com"}, "https://app.example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	// the plaintext token is the last path segment of the mailed URL
	token := lastSegment(mail.resetURL)

	user, session, err := svc.ResetPassword(context.Background(), token, &domain.ResetPasswordRequest{
		Password:        "new-password-1",
		PasswordConfirm: "new-password-1",
	})
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if session == "" {
		t.Fatal("Expected a fresh session token")
	}

	// old credentials are dead, new ones work
	if _, _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "jonas@example.com", Password: "old-password",
	}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Old password must stop working, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "jonas@example.com", Password: "new-password-1",
	}); err != nil {
		t.Fatalf("New password must work: %v", err)
	}
	_ = user
}

func TestResetPassword_BogusToken(t *testing.T) {
	svc, _, _ := setupAuth()

	_, _, err := svc.ResetPassword(context.Background(), "bogus", &domain.ResetPasswordRequest{
		Password:        "new-password-1",
		PasswordConfirm: "new-password-1",
	})
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("Expected ErrTokenInvalid, got %v", err)
	}
}

func TestUpdatePassword_RequiresCurrentPassword(t *testing.T) {
	svc, users, _ := setupAuth()
	user := seedUser(t, users, "jonas@example.com", "current-password")

	_, err := svc.UpdatePassword(context.Background(), user, &domain.UpdatePasswordRequest{
		OldPassword:     "wrong-guess",
		Password:        "new-password-1",
		PasswordConfirm: "new-password-1",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
	}

	token, err := svc.UpdatePassword(context.Background(), user, &domain.UpdatePasswordRequest{
		OldPassword:     "current-password",
		Password:        "new-password-1",
		PasswordConfirm: "new-password-1",
	})
	if err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a fresh session token")
	}
}

// ---------- Helpers ----------

func lastSegment(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return url
}
