package auth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"expense-ledger/internal/apperr"
	"expense-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byName: map[string]*models.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, username, email, hash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return nil, apperr.Conflict("Username already registered")
	}
	m.nextID++
	u := &models.User{ID: m.nextID, Username: username, Email: email, PasswordHash: hash}
	m.byName[username] = u
	return u, nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byName[username]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func newTestCredentials(t *testing.T) (*Credentials, *memUsers) {
	t.Helper()
	users := newMemUsers()
	creds, err := NewCredentials(users, bcrypt.MinCost)
	require.NoError(t, err)
	return creds, users
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	creds, users := newTestCredentials(t)

	id, err := creds.Register(context.Background(), "alice", "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	u := users.byName["alice"]
	require.NotNil(t, u)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEqual(t, "pw123", u.PasswordHash)
	assert.True(t, CheckPassword("pw123", u.PasswordHash))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	creds, users := newTestCredentials(t)
	ctx := context.Background()

	_, err := creds.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)
	original := *users.byName["alice"]

	_, err = creds.Register(ctx, "alice", "other@x.com", "different")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, original, *users.byName["alice"], "first user must be unaffected")
}

func TestRegister_Validation(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "  ", "a@x.com", "pw"},
		{"missing email", "bob", "", "pw"},
		{"missing password", "bob", "b@x.com", ""},
		{"password too long", "bob", "b@x.com", strings.Repeat("p", 73)},
		{"username too long", strings.Repeat("u", 101), "b@x.com", "pw"},
		{"email too long", "bob", strings.Repeat("e", 95) + "@x.com", "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := creds.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	creds, _ := newTestCredentials(t)
	ctx := context.Background()

	id, err := creds.Register(ctx, "alice", "a@x.com", "pw123")
	require.NoError(t, err)

	u, err := creds.Authenticate(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, wrongPw := creds.Authenticate(ctx, "alice", "nope")
	_, unknown := creds.Authenticate(ctx, "mallory", "pw123")

	assert.ErrorIs(t, wrongPw, apperr.ErrAuthentication)
	assert.ErrorIs(t, unknown, apperr.ErrAuthentication)
	assert.Equal(t, wrongPw.Error(), unknown.Error(), "failures must be indistinguishable")
}

func TestVerifyPassword_NilUser(t *testing.T) {
	creds, _ := newTestCredentials(t)
	assert.False(t, creds.VerifyPassword(nil, "pw"))
}

func TestHashPasswordWithCost_OutOfRange(t *testing.T) {
	hash, err := HashPasswordWithCost("pw", 1)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}
