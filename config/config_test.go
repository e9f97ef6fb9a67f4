package config_test

import (
	"os"
	"path/filepath"
	"testing"

	auth "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-credentials/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, auth.DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, "credentials", cfg.JWT.Issuer)
	assert.Equal(t, []string{"credentials-api"}, cfg.JWT.Audiences)
	assert.Equal(t, auth.DefaultPasswordPolicy(), cfg.Password)
	assert.Equal(t, 10, cfg.HashCost)
	assert.Equal(t, "json", cfg.Log.Format)

	err = cfg.Validate()
	assert.Error(t, err, "no signing key is configured by default")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  debug: true
database:
  driver: postgres
  dsn: postgres://localhost/credentials
jwt:
  signing_key: 0123456789abcdef0123
  issuer: example
  audiences:
    - web
    - mobile
password:
  required_length: 12
  require_non_alphanumeric: true
sign_in:
  require_confirmed_email: true
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, auth.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, []string{"web", "mobile"}, cfg.JWT.Audiences)
	assert.Equal(t, 12, cfg.Password.RequiredLength)
	assert.True(t, cfg.Password.RequireNonAlphanumeric)
	assert.True(t, cfg.Password.RequireDigit, "unset keys keep their defaults")
	assert.True(t, cfg.SignIn.RequireConfirmedEmail)

	tc := cfg.TokenConfig()
	assert.Equal(t, "0123456789abcdef0123", tc.SigningKey)
	assert.Equal(t, "example", tc.Issuer)

	_, err = auth.NewTokenIssuer(tc)
	assert.NoError(t, err)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log":{"level":"debug","format":"text"}}`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT__SIGNING_KEY", "env-signing-key-0123456789")
	t.Setenv("AUTH_JWT__ISSUER", "from-env")
	t.Setenv("AUTH_SERVER__ADDR", ":7000")
	t.Setenv("AUTH_HASH_COST", "12")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "env-signing-key-0123456789", cfg.JWT.SigningKey)
	assert.Equal(t, "from-env", cfg.JWT.Issuer)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 12, cfg.HashCost)
}

func TestLoadRejectsUnknownFileType(t *testing.T) {
	_, err := config.Load("config.toml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg, err := config.Load("")
		require.NoError(t, err)
		cfg.JWT.SigningKey = "0123456789abcdef0123"
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.JWT.Audiences = nil
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.JWT.SigningKey = "short"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.HashCost = 2
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestLoadAudiencesFromEnvironment(t *testing.T) {
	t.Setenv("AUTH_JWT__AUDIENCES", "web, mobile ,")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "mobile"}, cfg.JWT.Audiences)
}
