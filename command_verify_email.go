package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(account *Account)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

// VerifyEmailHandler consumes a verification token. Unknown, expired, and
// already-consumed tokens are indistinguishable to the caller.
type VerifyEmailHandler struct {
	repo       RepositoryManager
	dispatcher *Dispatcher
	logger     Logger
}

func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithDispatcher sets the dispatcher used for the welcome email.
func (h *VerifyEmailHandler) WithDispatcher(d *Dispatcher) *VerifyEmailHandler {
	h.dispatcher = d
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Single conditional update: verify-and-clear happens atomically, so a
	// concurrent attempt with the same token lands here with zero rows.
	account, err := h.repo.Accounts().ConsumeVerificationToken(ctx, event.Token, time.Now())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidOrExpiredToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification token")
	}

	h.dispatcher.DispatchWelcome(account)

	if event.OnResponse != nil {
		event.OnResponse(account.Sanitize())
	}

	return nil
}
