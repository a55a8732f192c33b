// Package bearer authenticates requests carrying a bearer token. It is
// transport-level glue: token validation and account resolution are
// injected through small interfaces so the package has no dependency on
// the accounts package.
package bearer

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "header:" + router.HeaderAuthorization

	// ErrMissingToken is handed to the ErrorHandler when no token is found.
	ErrMissingToken = errors.New("missing or malformed bearer token")
)

// TokenValidator validates a raw token and returns its claims.
// This mirrors the TokenService.Validate method from the accounts package.
type TokenValidator interface {
	Validate(tokenString string) (Claims, error)
}

// Claims is the minimal claim surface the middleware needs.
type Claims interface {
	AccountID() string
}

// AccountResolver turns validated claims into the live account attached to
// the request. Returning an error rejects the request.
type AccountResolver func(ctx context.Context, claims Claims) (any, error)

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(router.Context) bool

	// ErrorHandler receives extraction, validation, and resolution failures
	ErrorHandler router.ErrorHandler

	// TokenValidator is required
	TokenValidator TokenValidator

	// AccountResolver is optional; without it the claims are attached instead
	AccountResolver AccountResolver

	// ContextKey is the Locals key for the resolved account (default "account")
	ContextKey string

	// TokenLookup is a comma-separated list of "<source>:<name>" entries,
	// e.g. "header:Authorization,query:token"
	TokenLookup string

	// AuthScheme is the expected header scheme (default "Bearer")
	AuthScheme string

	// ContextEnricher propagates the resolved account into the standard
	// request context after successful authentication
	ContextEnricher func(c context.Context, account any) context.Context
}

// Extractor pulls a raw token from the request, ErrMissingToken if absent.
type Extractor func(c router.Context) (string, error)

func New(config ...Config) router.MiddlewareFunc {
	cfg := getDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := extractToken(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			attached := any(claims)
			if cfg.AccountResolver != nil {
				account, err := cfg.AccountResolver(ctx.Context(), claims)
				if err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
				attached = account
			}

			ctx.Locals(cfg.ContextKey, attached)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), attached))
			}

			return ctx.Next()
		}
	}
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenValidator == nil {
		panic("bearer: TokenValidator is required")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusUnauthorized).SendString(err.Error())
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "account"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// GetExtractors parses a TokenLookup string into extractor functions.
func GetExtractors(tokenLookup string, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, entry := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			continue
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, tokenFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, tokenFromParam(parts[1]))
		}
	}

	if len(extractors) == 0 {
		extractors = append(extractors, tokenFromHeader(router.HeaderAuthorization, authScheme))
	}

	return extractors
}

func extractToken(ctx router.Context, extractors []Extractor) (string, error) {
	for _, extractor := range extractors {
		if token, err := extractor(ctx); err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

func tokenFromHeader(header string, authScheme string) Extractor {
	return func(c router.Context) (string, error) {
		value := c.Header(header)
		if value == "" {
			return "", ErrMissingToken
		}

		if authScheme == "" {
			return value, nil
		}

		prefix := authScheme + " "
		if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			return strings.TrimSpace(value[len(prefix):]), nil
		}

		return "", ErrMissingToken
	}
}

func tokenFromQuery(param string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}

func tokenFromParam(param string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param, "")
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}
