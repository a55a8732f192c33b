package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/bearer"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// ProtectedRoute gates a route behind bearer authentication: the token is
// validated, its account resolved (a deleted account fails closed with
// ErrAccountNotFound), and the sanitized account attached to the request.
func (s *Auther) ProtectedRoute(cfg Config, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = respondError
	}

	return bearer.New(bearer.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: tokenServiceValidator{ts: s.tokenService},
		AccountResolver: func(ctx context.Context, claims bearer.Claims) (any, error) {
			account, err := s.repo.Accounts().GetByID(ctx, claims.AccountID())
			if err != nil {
				if repository.IsRecordNotFound(err) {
					return nil, ErrAccountNotFound
				}
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve authenticated account")
			}
			return account.Sanitize(), nil
		},
		ContextKey:  cfg.GetContextKey(),
		TokenLookup: cfg.GetTokenLookup(),
		AuthScheme:  cfg.GetAuthScheme(),
		ContextEnricher: func(c context.Context, attached any) context.Context {
			if account, ok := attached.(*Account); ok {
				return WithContext(c, account)
			}
			return c
		},
	})
}

// AccountFromRouterContext reads the authenticated account stored by
// ProtectedRoute under the configured context key.
func AccountFromRouterContext(ctx router.Context, key string) (*Account, bool) {
	if key == "" {
		key = "account"
	}

	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}

	account, ok := raw.(*Account)
	return account, ok
}

// tokenServiceValidator adapts TokenService to the middleware's validator
// without leaking jwt types into the bearer package.
type tokenServiceValidator struct {
	ts TokenService
}

func (v tokenServiceValidator) Validate(raw string) (bearer.Claims, error) {
	claims, err := v.ts.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
