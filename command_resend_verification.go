package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResendVerificationMessage struct {
	Email      string `json:"email"`
	OnResponse func(account *Account)
}

func (e ResendVerificationMessage) Type() string { return "account.resend_verification" }

// ResendVerificationHandler rotates the verification token for an
// unverified local account. Unknown emails and already-verified accounts
// fail identically.
type ResendVerificationHandler struct {
	repo       RepositoryManager
	dispatcher *Dispatcher
	logger     Logger
}

func NewResendVerificationHandler(repo RepositoryManager) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithDispatcher sets the dispatcher used for the verification email.
func (h *ResendVerificationHandler) WithDispatcher(d *Dispatcher) *ResendVerificationHandler {
	h.dispatcher = d
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	account := &Account{}
	var token string

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error

		account, err = h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrNotFoundOrAlreadyVerified
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for verification resend")
		}

		if account.Verified() {
			return ErrNotFoundOrAlreadyVerified
		}

		token, err = NewVerificationToken()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
		}

		// Rotation invalidates the previous token even if it had time left.
		if VerificationWindowOpen(account.VerificationExpiry, time.Now()) {
			h.logger.Info("rotating unexpired verification token", "id", account.ID)
		}

		expiry := time.Now().Add(VerificationTokenTTL)
		account, err = h.repo.Accounts().RotateVerificationTokenTx(ctx, tx, account.ID, token, expiry)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrNotFoundOrAlreadyVerified
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to rotate verification token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resend verification email")
	}

	h.dispatcher.DispatchVerification(account, token)

	if event.OnResponse != nil {
		event.OnResponse(account.Sanitize())
	}

	return nil
}
