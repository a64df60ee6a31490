package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage is the sign-up payload.
type RegisterAccountMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	Password   string `json:"password"`
	OnResponse func(resp *RegisterAccountResponse)
}

func (m RegisterAccountMessage) Type() string { return "account.register" }

// Validate runs the canonical rule set over the payload.
func (m RegisterAccountMessage) Validate() *goerrors.Error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Name, NameRules()...),
		validation.Field(&m.Email, EmailRules()...),
		validation.Field(&m.Mobile, MobileRules()...),
		validation.Field(&m.Password, PasswordRules()...),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// RegisterAccountResponse carries the created account and the pending
// verification token.
type RegisterAccountResponse struct {
	Account           *Account
	VerificationToken string
}

// RegisterAccountHandler creates unverified accounts and kicks off the
// verification flow.
type RegisterAccountHandler struct {
	repo RepositoryManager
	flow *AccountFlow
}

// NewRegisterAccountHandler creates the handler.
func NewRegisterAccountHandler(repo RepositoryManager, flow *AccountFlow) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo: repo,
		flow: flow,
	}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return err
	}

	if err := ValidateMobile(event.Mobile); err != nil {
		return err
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Accounts().ExistsAnyTx(ctx, tx, event.Email, event.Mobile)
		if err != nil {
			return err
		}

		if exists {
			return ErrAccountExists.Clone().WithMetadata(map[string]any{
				"email": event.Email,
			})
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return err
		}

		account.Name = event.Name
		account.Email = event.Email
		account.Mobile = event.Mobile
		account.PasswordHash = hash
		account.Verified = false

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	// Token storage and delivery happen after the insert commits;
	// failures here leave a valid unverified account and requesting
	// verification again is idempotent.
	token, err := h.flow.RequestVerification(ctx, account)
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{
			Account:           account,
			VerificationToken: token,
		})
	}

	return nil
}
