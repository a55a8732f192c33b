package accounts

import (
	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// BaseConfig is an environment-driven Config implementation. Library
// consumers with their own configuration layer only need to satisfy the
// Config interface; this struct covers the common case.
type BaseConfig struct {
	SigningKey      string   `env:"ACCOUNTS_SIGNING_KEY"`
	SigningMethod   string   `env:"ACCOUNTS_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"ACCOUNTS_CONTEXT_KEY" envDefault:"account"`
	TokenExpiration int      `env:"ACCOUNTS_TOKEN_EXPIRATION" envDefault:"168"`
	TokenLookup     string   `env:"ACCOUNTS_TOKEN_LOOKUP"`
	AuthScheme      string   `env:"ACCOUNTS_AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"ACCOUNTS_ISSUER"`
	Audience        []string `env:"ACCOUNTS_AUDIENCE" envSeparator:","`

	// PublicBaseURL is the externally reachable base used to build
	// verification links, e.g. https://accounts.example.com
	PublicBaseURL string `env:"ACCOUNTS_PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`
	AppScheme     string `env:"ACCOUNTS_APP_SCHEME"`

	SMTPHost     string `env:"ACCOUNTS_SMTP_HOST"`
	SMTPPort     string `env:"ACCOUNTS_SMTP_PORT" envDefault:"465"`
	SMTPUsername string `env:"ACCOUNTS_SMTP_USERNAME"`
	SMTPPassword string `env:"ACCOUNTS_SMTP_PASSWORD"`
	SMTPFrom     string `env:"ACCOUNTS_SMTP_FROM"`

	DatabaseDSN string `env:"ACCOUNTS_DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
	ServerAddr  string `env:"ACCOUNTS_SERVER_ADDR" envDefault:":3000"`
}

var _ Config = (*BaseConfig)(nil)

// LoadConfig reads configuration from the environment.
func LoadConfig() (*BaseConfig, error) {
	cfg := &BaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse environment configuration")
	}

	if cfg.SigningKey == "" {
		return nil, goerrors.New("ACCOUNTS_SIGNING_KEY is required", goerrors.CategoryOperation)
	}

	return cfg, nil
}

func (c *BaseConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *BaseConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *BaseConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "account"
	}
	return c.ContextKey
}

func (c *BaseConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c *BaseConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:" + router.HeaderAuthorization
	}
	return c.TokenLookup
}

func (c *BaseConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *BaseConfig) GetIssuer() string {
	return c.Issuer
}

func (c *BaseConfig) GetAudience() []string {
	return c.Audience
}
