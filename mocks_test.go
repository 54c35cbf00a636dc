package accounts_test

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/persistence"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "test-signing-key-0123456789"

type testEnv struct {
	db        *bun.DB
	repo      accounts.RepositoryManager
	directory *accounts.Directory
	hasher    accounts.PasswordHasher
	activity  *recordingSink
}

func newTestEnv(t *testing.T, opts ...func(*accounts.Config)) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, persistence.Config{Driver: persistence.DriverSQLite, DSN: ":memory:"}, opts...)
}

func newTestEnvWithDB(t *testing.T, dbcfg persistence.Config, opts ...func(*accounts.Config)) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := persistence.Open(ctx, dbcfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := accounts.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())
	require.NoError(t, repo.Migrate(ctx))

	cfg := accounts.DefaultConfig()
	cfg.SigningKey = testSigningKey
	for _, opt := range opts {
		opt(&cfg)
	}

	hasher := accounts.NewBcryptHasher(bcrypt.MinCost)
	sink := &recordingSink{}
	directory := accounts.NewDirectory(repo, hasher, cfg).
		WithLogger(nopLogger{}).
		WithActivitySink(sink)

	return &testEnv{
		db:        db,
		repo:      repo,
		directory: directory,
		hasher:    hasher,
		activity:  sink,
	}
}

func (e *testEnv) register(t *testing.T, username, email string) *accounts.UserDTO {
	t.Helper()
	user, err := e.directory.Register(context.Background(), accounts.RegisterUserInput{
		Username: username,
		Password: "Passw0rd!",
		Email:    email,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) holders(t *testing.T, authority string) int {
	t.Helper()
	n, err := e.repo.Users().CountAuthorityHoldersTx(context.Background(), e.db, authority)
	require.NoError(t, err)
	return n
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type recordingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event accounts.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []accounts.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]accounts.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *recordingSink) last(eventType accounts.ActivityEventType) (accounts.ActivityEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].EventType == eventType {
			return s.events[i], true
		}
	}
	return accounts.ActivityEvent{}, false
}

// MockCredentialSource implements accounts.CredentialSource
type MockCredentialSource struct {
	mock.Mock
}

func (m *MockCredentialSource) Credentials(ctx context.Context, username string) (*accounts.Credentials, error) {
	args := m.Called(ctx, username)
	if c, ok := args.Get(0).(*accounts.Credentials); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTokenService implements accounts.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(identity accounts.Identity, authorities []string) (string, error) {
	args := m.Called(identity, authorities)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(token string) (*accounts.AccountClaims, error) {
	args := m.Called(token)
	if c, ok := args.Get(0).(*accounts.AccountClaims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
