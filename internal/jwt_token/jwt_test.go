package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certitrack/internal/domain"
	dErrors "certitrack/pkg/domain-errors"
)

var svc = NewService("test-signing-key", "certitrack-test")

func TestGenerateAndValidate(t *testing.T) {
	actorID := uuid.New()

	token, err := svc.GenerateToken(actorID, string(domain.RoleProcessor), time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actorID.String(), claims.ActorID)
	assert.Equal(t, string(domain.RoleProcessor), claims.Role)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := svc.GenerateToken(uuid.New(), string(domain.RoleClerk), -time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func TestValidateToken_WrongKey(t *testing.T) {
	other := NewService("a-different-key", "certitrack-test")
	token, err := other.GenerateToken(uuid.New(), string(domain.RoleAdmin), time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
