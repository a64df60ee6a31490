package accounts_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	accounts "github.com/stallhq/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerFixture struct {
	dir      *memoryDirectory
	notifier *recordingNotifier
	handler  *accounts.RegisterAccountHandler
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()

	cfg := testConfig()
	dir := newMemoryDirectory()
	notifier := &recordingNotifier{}
	tokens := accounts.NewTokenService(cfg)
	flow := accounts.NewAccountFlow(dir, tokens, cfg,
		accounts.WithFlowNotifier(notifier),
		accounts.WithFlowLogger(silentLogger{}),
	)

	return &registerFixture{
		dir:      dir,
		notifier: notifier,
		handler:  accounts.NewRegisterAccountHandler(newFakeRepoManager(dir), flow),
	}
}

func validRegisterMessage() accounts.RegisterAccountMessage {
	return accounts.RegisterAccountMessage{
		Name:     "Asha Kumar",
		Email:    "a@x.com",
		Mobile:   "9876543210",
		Password: "Abcd123$",
	}
}

func TestRegisterAccount(t *testing.T) {
	f := newRegisterFixture(t)

	var resp *accounts.RegisterAccountResponse
	msg := validRegisterMessage()
	msg.OnResponse = func(r *accounts.RegisterAccountResponse) { resp = r }

	err := f.handler.Execute(context.Background(), msg)
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Account)
	assert.NotEmpty(t, resp.VerificationToken)

	stored, err := f.dir.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, stored.Verified, "new accounts start unverified")
	assert.True(t, stored.HasPendingVerification())
	assert.NoError(t, accounts.ComparePasswordAndHash("Abcd123$", stored.PasswordHash))

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, accounts.SubjectVerification, f.notifier.last().Subject)
}

func TestRegisterAccount_DuplicateIdentifier(t *testing.T) {
	f := newRegisterFixture(t)

	require.NoError(t, f.handler.Execute(context.Background(), validRegisterMessage()))

	tests := []struct {
		name string
		mut  func(*accounts.RegisterAccountMessage)
	}{
		{"same email", func(m *accounts.RegisterAccountMessage) {
			m.Mobile = "9876543211"
		}},
		{"same mobile", func(m *accounts.RegisterAccountMessage) {
			m.Email = "b@x.com"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validRegisterMessage()
			tt.mut(&msg)

			err := f.handler.Execute(context.Background(), msg)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, accounts.TextCodeAccountExists, richErr.TextCode)
		})
	}
}

func TestRegisterAccount_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*accounts.RegisterAccountMessage)
	}{
		{"bad name", func(m *accounts.RegisterAccountMessage) { m.Name = "Asha2" }},
		{"bad email", func(m *accounts.RegisterAccountMessage) { m.Email = "not-an-email" }},
		{"bad mobile", func(m *accounts.RegisterAccountMessage) { m.Mobile = "12345" }},
		{"weak password", func(m *accounts.RegisterAccountMessage) { m.Password = "weak" }},
		{"empty password", func(m *accounts.RegisterAccountMessage) { m.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegisterFixture(t)

			msg := validRegisterMessage()
			tt.mut(&msg)

			err := f.handler.Execute(context.Background(), msg)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, accounts.TextCodeValidation, richErr.TextCode)

			// Nothing was created and nothing was sent.
			exists, err := f.dir.ExistsAny(context.Background(), msg.Email, msg.Mobile)
			require.NoError(t, err)
			assert.False(t, exists)
			assert.Equal(t, 0, f.notifier.count())
		})
	}
}

func TestRegisterAccount_CancelledContext(t *testing.T) {
	f := newRegisterFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.handler.Execute(ctx, validRegisterMessage())
	require.Error(t, err)
}

func TestRegisterAccountMessage_Type(t *testing.T) {
	assert.Equal(t, "account.register", validRegisterMessage().Type())
}
