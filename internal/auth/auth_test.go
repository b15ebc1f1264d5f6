package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// --- in-memory test doubles ---

type memUsers struct {
	byEmail map[string]model.User
	nextID  int
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]model.User)}
}

func (s *memUsers) Create(_ context.Context, u model.User) (*model.User, error) {
	if _, ok := s.byEmail[u.Email]; ok {
		return nil, repository.ErrEmailTaken
	}
	s.nextID++
	u.ID = "user-" + string(rune('0'+s.nextID))
	s.byEmail[u.Email] = u
	return &u, nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func newTestService() *Service {
	svc := NewService(newMemUsers(), NewTokens(testSecret, "eventhub", time.Hour, nil))
	svc.cost = bcrypt.MinCost
	return svc
}

// --- tests ---

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, "eventhub", time.Hour, nil)
	id := model.Identity{UserID: "u1", Email: "a@example.com", Name: "Ada"}

	token, exp, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry %v is not in the future", exp)
	}
	got, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != id {
		t.Fatalf("Parse = %+v, want %+v", got, id)
	}
}

func TestTokensRejects(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokens(testSecret, "eventhub", time.Hour, func() time.Time { return now })
	token, _, err := issuer.Issue(model.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		tokens *Tokens
		token  string
	}{
		{name: "empty", tokens: issuer, token: ""},
		{name: "garbage", tokens: issuer, token: "not-a-jwt"},
		{name: "wrong secret", tokens: NewTokens("ffffffffffffffffffffffffffffffff", "eventhub", time.Hour, func() time.Time { return now }), token: token},
		{name: "wrong issuer", tokens: NewTokens(testSecret, "other", time.Hour, func() time.Time { return now }), token: token},
		{name: "expired", tokens: NewTokens(testSecret, "eventhub", time.Hour, func() time.Time { return now.Add(2 * time.Hour) }), token: token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.tokens.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Parse error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIssueRejectsAnonymous(t *testing.T) {
	tokens := NewTokens(testSecret, "eventhub", time.Hour, nil)
	if _, _, err := tokens.Issue(model.Identity{}); err == nil {
		t.Fatal("Issue for anonymous identity should fail")
	}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, err := svc.Signup(ctx, model.SignupRequest{Name: " Ada ", Email: " Ada@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "ada@example.com" || user.Name != "Ada" {
		t.Fatalf("user = %+v", user)
	}
	if user.PasswordHash == "secret1" {
		t.Fatal("password stored in clear")
	}

	session, err := svc.Login(ctx, model.LoginRequest{Email: "ADA@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.User.UserID != user.ID || session.Token == "" {
		t.Fatalf("session = %+v", session)
	}
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "taken@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("seed signup: %v", err)
	}

	tests := []struct {
		name string
		req  model.SignupRequest
		want error
	}{
		{name: "empty email", req: model.SignupRequest{Password: "secret1"}, want: ErrInvalidEmail},
		{name: "no domain dot", req: model.SignupRequest{Email: "a@localhost", Password: "secret1"}, want: ErrInvalidEmail},
		{name: "short password", req: model.SignupRequest{Email: "b@example.com", Password: "12345"}, want: ErrPasswordTooShort},
		{name: "duplicate", req: model.SignupRequest{Email: "Taken@example.com", Password: "secret1"}, want: ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Signup(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("Signup error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	for _, req := range []model.LoginRequest{
		{Email: "a@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "secret1"},
		{Email: "", Password: "secret1"},
	} {
		if _, err := svc.Login(ctx, req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q) error = %v, want ErrInvalidCredentials", req.Email, err)
		}
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	tokens := NewTokens(testSecret, "eventhub", time.Hour, nil)
	cookies := Cookies{Name: "session"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	token, _, err := tokens.Issue(model.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var seen model.Identity
	h := Authenticate(tokens, cookies, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(*http.Request)
		want    string
	}{
		{name: "anonymous", prepare: func(*http.Request) {}, want: ""},
		{name: "bearer", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, want: "u1"},
		{name: "cookie", prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) }, want: "u1"},
		{name: "invalid token stays anonymous", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = model.Identity{UserID: "unset"}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			h.ServeHTTP(httptest.NewRecorder(), req)
			if seen.UserID != tt.want {
				t.Fatalf("identity = %q, want %q", seen.UserID, tt.want)
			}
		})
	}
}
