package accounts_test

import (
	"testing"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ACCOUNTS_SIGNING_KEY", "secret")

	cfg, err := accounts.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.GetSigningKey())
	assert.Equal(t, "HS256", cfg.GetSigningMethod())
	assert.Equal(t, "account", cfg.GetContextKey())
	assert.Equal(t, 168, cfg.GetTokenExpiration())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
	assert.Equal(t, "http://localhost:3000", cfg.PublicBaseURL)
	assert.Equal(t, ":3000", cfg.ServerAddr)
}

func TestLoadConfig_RequiresSigningKey(t *testing.T) {
	t.Setenv("ACCOUNTS_SIGNING_KEY", "")

	_, err := accounts.LoadConfig()
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Contains(t, richErr.Message, "ACCOUNTS_SIGNING_KEY")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ACCOUNTS_SIGNING_KEY", "secret")
	t.Setenv("ACCOUNTS_TOKEN_EXPIRATION", "12")
	t.Setenv("ACCOUNTS_ISSUER", "accounts.example.com")
	t.Setenv("ACCOUNTS_AUDIENCE", "web,mobile")
	t.Setenv("ACCOUNTS_CONTEXT_KEY", "session")

	cfg, err := accounts.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.GetTokenExpiration())
	assert.Equal(t, "accounts.example.com", cfg.GetIssuer())
	assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
	assert.Equal(t, "session", cfg.GetContextKey())
}

func TestBaseConfig_FallbackDefaults(t *testing.T) {
	cfg := &accounts.BaseConfig{}

	assert.Equal(t, "account", cfg.GetContextKey())
	assert.Equal(t, accounts.DefaultTokenExpiration, cfg.GetTokenExpiration())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
}
