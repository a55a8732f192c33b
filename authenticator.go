package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther owns credential login, federated login, and token resolution.
type Auther struct {
	repo         RepositoryManager
	tokenService TokenService
	dispatcher   *Dispatcher
	logger       Logger
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithDispatcher sets the dispatcher used for welcome emails on first
// federated login.
func (s *Auther) WithDispatcher(d *Dispatcher) *Auther {
	s.dispatcher = d
	return s
}

// WithTokenService overrides the token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies a local credential and issues a session token. Unknown
// emails, federated accounts, and password mismatches all return
// ErrInvalidCredentials; each path pays for a bcrypt comparison.
func (s *Auther) Login(ctx context.Context, email, password string) (*Account, string, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			CompareBurn(password)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if !account.RequiresCredential() || account.PasswordHash == "" {
		CompareBurn(password)
		return nil, "", ErrInvalidCredentials
	}

	if !account.Verified() {
		return nil, "", ErrEmailNotVerified
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.logger.Debug("login password mismatch", "email", NormalizeEmail(email))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		return nil, "", err
	}

	return account.Sanitize(), token, nil
}

// OAuthLogin provisions or reuses an account for an externally asserted
// identity and issues a session token. The caller has already
// authenticated with the provider; no token exchange happens here.
//
// An existing account is reused by email match alone, with no password
// check. A local-origin account reached this way is logged at Warn so the
// takeover-shaped flow is auditable.
func (s *Auther) OAuthLogin(ctx context.Context, email, fullName, provider string) (*Account, string, error) {
	if !FederatedOrigin(provider) {
		return nil, "", ErrUnsupportedProvider
	}

	created := false

	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during oauth login")
		}

		record := &Account{
			FullName:        fullName,
			Email:           NormalizeEmail(email),
			AuthOrigin:      provider,
			IsFederated:     true,
			IsEmailVerified: true,
		}

		account, err = s.repo.Accounts().Create(ctx, record)
		if err != nil {
			if goerrors.Is(err, ErrDuplicateAccount) {
				// lost a creation race; the other request's account wins
				account, err = s.repo.Accounts().GetByEmail(ctx, email)
			}
			if err != nil {
				return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to provision federated account")
			}
		} else {
			created = true
		}
	}

	if !created && account.AuthOrigin == OriginLocal {
		s.logger.Warn(
			"oauth login reused a local-origin account without a password check",
			"account_id", account.ID.String(),
			"provider", provider,
		)
	}

	token, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		return nil, "", err
	}

	if created {
		s.dispatcher.DispatchWelcome(account)
	}

	return account.Sanitize(), token, nil
}

// AccountFromToken validates a bearer token and resolves its account. A
// valid token whose account no longer exists yields ErrAccountNotFound.
func (s *Auther) AccountFromToken(ctx context.Context, token string) (*Account, error) {
	claims, err := s.tokenService.Validate(token)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Accounts().GetByID(ctx, claims.AccountID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account from token")
	}

	return account.Sanitize(), nil
}
