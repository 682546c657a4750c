package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	users map[uuid.UUID]*User
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepository) Create(ctx context.Context, user *User) error {
	for _, u := range m.users {
		if u.Name == user.Name {
			return ErrNameExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (m *mockRepository) FindByName(ctx context.Context, name string) (*User, error) {
	for _, u := range m.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) Update(ctx context.Context, user *User) error {
	for id, u := range m.users {
		if id != user.ID && u.Name == user.Name {
			return ErrNameExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func TestRegister(t *testing.T) {
	svc := NewService(newMockRepository())

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:            "alice",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMockRepository())

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"short password", RegisterInput{Name: "a", Password: "12345", PasswordConfirm: "12345"}, ErrPasswordTooShort},
		{"mismatched confirm", RegisterInput{Name: "a", Password: "secret123", PasswordConfirm: "secret124"}, ErrPasswordMismatch},
		{"blank name", RegisterInput{Name: "  ", Password: "secret123", PasswordConfirm: "secret123"}, ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	svc := NewService(newMockRepository())
	input := RegisterInput{Name: "alice", Password: "secret123", PasswordConfirm: "secret123"}

	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMockRepository())
	registered, err := svc.Register(context.Background(), RegisterInput{
		Name: "alice", Password: "secret123", PasswordConfirm: "secret123",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	user, err := svc.Register(context.Background(), RegisterInput{
		Name: "alice", Password: "secret123", PasswordConfirm: "secret123",
	})
	require.NoError(t, err)

	repo.users[user.ID].IsActive = false

	_, err = svc.Authenticate(context.Background(), "alice", "secret123")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestUpdateProfile(t *testing.T) {
	svc := NewService(newMockRepository())
	user, err := svc.Register(context.Background(), RegisterInput{
		Name: "alice", Password: "secret123", PasswordConfirm: "secret123",
	})
	require.NoError(t, err)

	newName := "alice2"
	newPassword := "newsecret"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		Name:     &newName,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Name)

	_, err = svc.Authenticate(context.Background(), "alice2", "newsecret")
	require.NoError(t, err)
}

func TestUpdateProfileShortPassword(t *testing.T) {
	svc := NewService(newMockRepository())
	user, err := svc.Register(context.Background(), RegisterInput{
		Name: "alice", Password: "secret123", PasswordConfirm: "secret123",
	})
	require.NoError(t, err)

	short := "123"
	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{Password: &short})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
