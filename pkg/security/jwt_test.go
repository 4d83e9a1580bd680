package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var secret = []byte(strings.Repeat("s", 32))

func TestNewKeyManager_ShortSecret(t *testing.T) {
	_, err := security.NewKeyManager([]byte("curto"), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestKeyManager_RoundTrip(t *testing.T) {
	km, err := security.NewKeyManager(secret, zaptest.NewLogger(t))
	require.NoError(t, err)

	token, err := km.GenerateToken("0b1c-uuid", "ADMIN", time.Hour)
	require.NoError(t, err)

	claims, err := km.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0b1c-uuid", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestKeyManager_Expired(t *testing.T) {
	km, err := security.NewKeyManager(secret, zaptest.NewLogger(t))
	require.NoError(t, err)

	token, err := km.GenerateToken("u", "HOTEL", -time.Minute)
	require.NoError(t, err)

	_, err = km.VerifyToken(token)
	assert.ErrorIs(t, err, security.ErrTokenExpired)
}

func TestKeyManager_OtherSecret(t *testing.T) {
	km, err := security.NewKeyManager(secret, zaptest.NewLogger(t))
	require.NoError(t, err)
	other, err := security.NewKeyManager([]byte(strings.Repeat("o", 32)), zaptest.NewLogger(t))
	require.NoError(t, err)

	token, err := other.GenerateToken("u", "HOTEL", time.Hour)
	require.NoError(t, err)

	_, err = km.VerifyToken(token)
	assert.Error(t, err)
}

func TestGetJWTSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "da-configuracao"

	t.Setenv(security.JWTSecretEnv, "")
	assert.Equal(t, []byte("da-configuracao"), security.GetJWTSecret(cfg))

	t.Setenv(security.JWTSecretEnv, "do-ambiente")
	assert.Equal(t, []byte("do-ambiente"), security.GetJWTSecret(cfg))
}
