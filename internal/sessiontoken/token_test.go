package sessiontoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "elan/pkg/domain-errors"

	"elan/internal/session/models"
)

func TestMintAndValidate(t *testing.T) {
	svc := NewService("signing-key", "elan", 7*24*time.Hour)
	identity := models.Identity{ID: "uid-1", Email: "a@x.com"}

	token, err := svc.Mint(identity)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), token.ExpiresAt, time.Minute)

	claims, err := svc.Validate(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "elan", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "token needs a jti for revocation")
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewService("signing-key", "elan", -time.Minute)
	token, err := svc.Mint(models.Identity{ID: "uid-1"})
	require.NoError(t, err)

	_, err = svc.Validate(token.Value)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	minter := NewService("key-a", "elan", time.Hour)
	verifier := NewService("key-b", "elan", time.Hour)

	token, err := minter.Mint(models.Identity{ID: "uid-1"})
	require.NoError(t, err)

	_, err = verifier.Validate(token.Value)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestStaticMinterUsesFixedValue(t *testing.T) {
	token, err := Static{TTL: time.Hour}.Mint(models.Identity{ID: "whoever"})
	require.NoError(t, err)
	assert.Equal(t, "mock-session-token", token.Value)
	assert.False(t, token.Expired(time.Now()))
}
