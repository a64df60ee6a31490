package accounts_test

import (
	"context"
	"database/sql"
	"sync"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	accounts "github.com/stallhq/go-accounts"
	"github.com/uptrace/bun"
)

func testConfig() *accounts.ConfigValues {
	return &accounts.ConfigValues{
		SigningKey:       "test-signing-key",
		Issuer:           "accounts-test",
		Audience:         []string{"marketplace"},
		VerificationURL:  "https://shop.example.com/verify-email",
		PasswordResetURL: "https://shop.example.com/reset-password",
	}
}

// memoryDirectory implements accounts.Directory with the same
// conditional-update semantics as the SQL store: consume and swap
// operations succeed for exactly one caller under concurrency.
type memoryDirectory struct {
	mu      sync.Mutex
	records map[uuid.UUID]*accounts.Account
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{records: map[uuid.UUID]*accounts.Account{}}
}

func cloneAccount(a *accounts.Account) *accounts.Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.VerificationToken != nil {
		v := *a.VerificationToken
		clone.VerificationToken = &v
	}
	if a.ResetToken != nil {
		v := *a.ResetToken
		clone.ResetToken = &v
	}
	return &clone
}

func (m *memoryDirectory) Register(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	for _, rec := range m.records {
		if rec.Email == account.Email || rec.Mobile == account.Mobile {
			return nil, accounts.ErrAccountExists
		}
	}
	m.records[account.ID] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (m *memoryDirectory) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.Email == email {
			return cloneAccount(rec), nil
		}
	}
	return nil, accounts.ErrAccountNotFound
}

func (m *memoryDirectory) FindByMobile(ctx context.Context, mobile string) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.Mobile == mobile {
			return cloneAccount(rec), nil
		}
	}
	return nil, accounts.ErrAccountNotFound
}

func (m *memoryDirectory) FindByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[id]; ok {
		return cloneAccount(rec), nil
	}
	return nil, accounts.ErrAccountNotFound
}

func (m *memoryDirectory) ExistsAny(ctx context.Context, email, mobile string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.Email == email || rec.Mobile == mobile {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryDirectory) StoreVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return accounts.ErrAccountNotFound
	}
	rec.VerificationToken = &token
	return nil
}

func (m *memoryDirectory) StoreResetToken(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return accounts.ErrAccountNotFound
	}
	rec.ResetToken = &token
	return nil
}

func (m *memoryDirectory) ConsumeVerificationToken(ctx context.Context, id uuid.UUID, token string) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok || rec.VerificationToken == nil || *rec.VerificationToken != token {
		return nil, accounts.ErrTokenMismatch
	}
	rec.Verified = true
	rec.VerificationToken = nil
	return cloneAccount(rec), nil
}

func (m *memoryDirectory) ConsumeResetToken(ctx context.Context, id uuid.UUID, token, passwordHash string) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok || rec.ResetToken == nil || *rec.ResetToken != token {
		return nil, accounts.ErrTokenMismatch
	}
	rec.PasswordHash = passwordHash
	rec.ResetToken = nil
	return cloneAccount(rec), nil
}

func (m *memoryDirectory) SwapPasswordHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok || rec.PasswordHash != oldHash {
		return nil, accounts.ErrInvalidCredentials
	}
	rec.PasswordHash = newHash
	return cloneAccount(rec), nil
}

// recordingNotifier captures every Send for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	err   error
	sends []notification
}

type notification struct {
	To      string
	Subject string
	Link    string
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sends = append(n.sends, notification{To: to, Subject: subject, Link: link})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends)
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sends[len(n.sends)-1]
}

// fakeAccounts adapts memoryDirectory to the full Accounts interface.
// The embedded repository surface is never exercised by these tests.
type fakeAccounts struct {
	repository.Repository[*accounts.Account]
	*memoryDirectory
}

func (f *fakeAccounts) RegisterTx(ctx context.Context, tx bun.IDB, account *accounts.Account) (*accounts.Account, error) {
	return f.memoryDirectory.Register(ctx, account)
}

func (f *fakeAccounts) ExistsAnyTx(ctx context.Context, tx bun.IDB, email, mobile string) (bool, error) {
	return f.memoryDirectory.ExistsAny(ctx, email, mobile)
}

func (f *fakeAccounts) StoreVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	return f.memoryDirectory.StoreVerificationToken(ctx, id, token)
}

func (f *fakeAccounts) StoreResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	return f.memoryDirectory.StoreResetToken(ctx, id, token)
}

func (f *fakeAccounts) ConsumeVerificationTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*accounts.Account, error) {
	return f.memoryDirectory.ConsumeVerificationToken(ctx, id, token)
}

func (f *fakeAccounts) ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token, passwordHash string) (*accounts.Account, error) {
	return f.memoryDirectory.ConsumeResetToken(ctx, id, token, passwordHash)
}

func (f *fakeAccounts) SwapPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, oldHash, newHash string) (*accounts.Account, error) {
	return f.memoryDirectory.SwapPasswordHash(ctx, id, oldHash, newHash)
}

// fakeRepoManager satisfies RepositoryManager without a database; the
// transaction callback runs against the in-memory store.
type fakeRepoManager struct {
	accounts accounts.Accounts
}

func newFakeRepoManager(dir *memoryDirectory) *fakeRepoManager {
	return &fakeRepoManager{accounts: &fakeAccounts{memoryDirectory: dir}}
}

func (f *fakeRepoManager) Validate() error { return nil }

func (f *fakeRepoManager) MustValidate() {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepoManager) Accounts() accounts.Accounts { return f.accounts }

type silentLogger struct{}

func (silentLogger) Debug(format string, args ...any) {}
func (silentLogger) Info(format string, args ...any)  {}
func (silentLogger) Warn(format string, args ...any)  {}
func (silentLogger) Error(format string, args ...any) {}
