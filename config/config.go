// Package config loads the service configuration from defaults, an
// optional file and AUTH_ prefixed environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/goliatone/go-credentials"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides. AUTH_JWT__SIGNING_KEY
// sets jwt.signing_key.
const EnvPrefix = "AUTH_"

type Config struct {
	Server   Server              `koanf:"server"`
	Database Database            `koanf:"database"`
	JWT      JWT                 `koanf:"jwt"`
	Password auth.PasswordPolicy `koanf:"password"`
	HashCost int                 `koanf:"hash_cost"`
	SignIn   auth.SignInOptions  `koanf:"sign_in"`
	Log      Log                 `koanf:"log"`
}

type Server struct {
	Addr      string `koanf:"addr"`
	Debug     bool   `koanf:"debug"`
	AccessLog bool   `koanf:"access_log"`
}

type Database struct {
	Driver    string `koanf:"driver"`
	DSN       string `koanf:"dsn"`
	Migrate   bool   `koanf:"migrate"`
	UseHashid bool   `koanf:"use_hashid"`
}

type JWT struct {
	SigningKey string   `koanf:"signing_key"`
	Issuer     string   `koanf:"issuer"`
	Audiences  []string `koanf:"audiences"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TokenConfig returns the issuer configuration
func (c Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		SigningKey: c.JWT.SigningKey,
		Issuer:     c.JWT.Issuer,
		Audiences:  c.JWT.Audiences,
	}
}

func Defaults() map[string]any {
	policy := auth.DefaultPasswordPolicy()
	return map[string]any{
		"server.addr":                       ":8080",
		"server.debug":                      false,
		"server.access_log":                 true,
		"database.driver":                   auth.DriverSQLite,
		"database.dsn":                      "file:credentials.db?cache=shared",
		"database.migrate":                  true,
		"database.use_hashid":               false,
		"jwt.issuer":                        "credentials",
		"jwt.audiences":                     []string{"credentials-api"},
		"password.required_length":          policy.RequiredLength,
		"password.require_digit":            policy.RequireDigit,
		"password.require_lowercase":        policy.RequireLowercase,
		"password.require_uppercase":        policy.RequireUppercase,
		"password.require_non_alphanumeric": policy.RequireNonAlphanumeric,
		"hash_cost":                         10,
		"sign_in.require_confirmed_email":   false,
		"log.level":                         "info",
		"log.format":                        "json",
	}
}

// Load reads defaults, then path when not empty, then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config file type %q", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// envValue maps AUTH_JWT__SIGNING_KEY to jwt.signing_key. Audiences are
// a comma separated list.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	if key == "jwt.audiences" {
		var out []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return key, out
	}

	return key, value
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Database),
		validation.Field(&c.JWT),
		validation.Field(&c.Password),
		validation.Field(&c.HashCost, validation.Min(4), validation.Max(31)),
		validation.Field(&c.Log),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(auth.DriverSQLite, auth.DriverPostgres)),
		validation.Field(&d.DSN, validation.Required),
	)
}

func (j JWT) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&j.Issuer, validation.Required),
		validation.Field(&j.Audiences, validation.Required, validation.Each(validation.Required, is.PrintableASCII)),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("json", "text", "pretty")),
	)
}
