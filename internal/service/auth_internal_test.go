package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/recipe-api/internal/domain"
)

type emptyUsers struct {
	domain.UserRepository
}

func (emptyUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func TestIssueToken_UnknownEmailRunsBcrypt(t *testing.T) {
	auth := NewAuthService(emptyUsers{}, "test-secret-for-internal-tests-0123456789", time.Hour, 5)
	require.Nil(t, auth.dummyHash)

	_, err := auth.IssueToken(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NotNil(t, auth.dummyHash)
	cost, err := bcrypt.Cost(auth.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, 5, cost, "dummy hash uses the configured cost")

	first := auth.dummyHash
	_, err = auth.IssueToken(context.Background(), "ghost2@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, first, auth.dummyHash, "dummy hash is computed once")
}
