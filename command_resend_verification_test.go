package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResendVerificationHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the token and dispatches a fresh email", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		store := &MockAccounts{}
		notifier := &MockNotifier{}

		id := uuid.New()
		unverified := &accounts.Account{
			ID:         id,
			FullName:   "Jane Doe",
			Email:      "jane@example.com",
			AuthOrigin: accounts.OriginLocal,
		}
		rotated := &accounts.Account{
			ID:         id,
			FullName:   "Jane Doe",
			Email:      "jane@example.com",
			AuthOrigin: accounts.OriginLocal,
		}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

		store.On("GetByEmailTx", mock.Anything, mock.Anything, "jane@example.com").
			Return(unverified, nil).Once()
		store.On("RotateVerificationTokenTx", mock.Anything, mock.Anything, id, mock.Anything, mock.Anything).
			Return(rotated, nil).Once()

		notifier.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()

		dispatcher := accounts.NewDispatcher(notifier, "http://localhost:3000", accounts.WithDispatchLogger(testLogger{}))

		handler := accounts.NewResendVerificationHandler(repo).
			WithDispatcher(dispatcher).
			WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResendVerificationMessage{Email: "jane@example.com"})
		require.NoError(t, err)

		dispatcher.Wait()
		notifier.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("unknown email fails with a collapsed error", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		store := &MockAccounts{}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

		store.On("GetByEmailTx", mock.Anything, mock.Anything, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		handler := accounts.NewResendVerificationHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResendVerificationMessage{Email: "ghost@example.com"})
		assert.ErrorIs(t, err, accounts.ErrNotFoundOrAlreadyVerified)
	})

	t.Run("already verified account fails identically", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		store := &MockAccounts{}

		verified := &accounts.Account{
			ID:              uuid.New(),
			Email:           "jane@example.com",
			AuthOrigin:      accounts.OriginLocal,
			IsEmailVerified: true,
		}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

		store.On("GetByEmailTx", mock.Anything, mock.Anything, "jane@example.com").
			Return(verified, nil).Once()

		handler := accounts.NewResendVerificationHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResendVerificationMessage{Email: "jane@example.com"})
		assert.ErrorIs(t, err, accounts.ErrNotFoundOrAlreadyVerified)
	})

	t.Run("federated account fails identically", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		store := &MockAccounts{}

		federated := &accounts.Account{
			ID:          uuid.New(),
			Email:       "jane@example.com",
			AuthOrigin:  accounts.OriginGoogle,
			IsFederated: true,
		}

		repo.On("Accounts").Return(store)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil)

		store.On("GetByEmailTx", mock.Anything, mock.Anything, "jane@example.com").
			Return(federated, nil).Once()

		handler := accounts.NewResendVerificationHandler(repo).WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResendVerificationMessage{Email: "jane@example.com"})
		assert.ErrorIs(t, err, accounts.ErrNotFoundOrAlreadyVerified)
	})
}

func TestResendVerificationMessage_Type(t *testing.T) {
	assert.Equal(t, "account.resend_verification", accounts.ResendVerificationMessage{}.Type())
}
