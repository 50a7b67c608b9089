package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
	"github.com/dominggo/multi-account-multi-platform/internal/registry"
	"github.com/dominggo/multi-account-multi-platform/internal/relay"
)

var testIdentity = &domain.Identity{
	ID:        42,
	FirstName: "Test",
	LastName:  "User",
	Username:  "testuser",
}

// fakeClient is a mock implementation of domain.TelegramClient
type fakeClient struct {
	connected bool
	calls     []string
	handler   func(domain.MessageEvent)

	connectFunc        func(ctx context.Context) error
	sendCodeFunc       func(ctx context.Context, phoneNumber string) (string, error)
	signInFunc         func(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error)
	signInPasswordFunc func(ctx context.Context, password string) (*domain.Identity, error)
	authorizedFunc     func(ctx context.Context) (bool, error)
	meFunc             func(ctx context.Context) (*domain.Identity, error)
	dialogsFunc        func(ctx context.Context, limit int) ([]domain.ChatSummary, error)
	sendMessageFunc    func(ctx context.Context, chatID, text string) (*domain.SentMessage, error)
	exportFunc         func(ctx context.Context) ([]byte, error)
}

func (c *fakeClient) record(call string) {
	c.calls = append(c.calls, call)
}

func (c *fakeClient) called(call string) int {
	count := 0
	for _, name := range c.calls {
		if name == call {
			count++
		}
	}
	return count
}

func (c *fakeClient) Connect(ctx context.Context) error {
	c.record("Connect")
	if c.connectFunc != nil {
		if err := c.connectFunc(ctx); err != nil {
			return err
		}
	}
	c.connected = true
	return nil
}

func (c *fakeClient) SendCode(ctx context.Context, phoneNumber string) (string, error) {
	c.record("SendCode")
	if c.sendCodeFunc != nil {
		return c.sendCodeFunc(ctx, phoneNumber)
	}
	return "hash-1", nil
}

func (c *fakeClient) SignIn(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
	c.record("SignIn")
	if c.signInFunc != nil {
		return c.signInFunc(ctx, phoneNumber, code, codeHash)
	}
	return testIdentity, nil
}

func (c *fakeClient) SignInPassword(ctx context.Context, password string) (*domain.Identity, error) {
	c.record("SignInPassword")
	if c.signInPasswordFunc != nil {
		return c.signInPasswordFunc(ctx, password)
	}
	return testIdentity, nil
}

func (c *fakeClient) Authorized(ctx context.Context) (bool, error) {
	c.record("Authorized")
	if c.authorizedFunc != nil {
		return c.authorizedFunc(ctx)
	}
	return false, nil
}

func (c *fakeClient) Me(ctx context.Context) (*domain.Identity, error) {
	c.record("Me")
	if c.meFunc != nil {
		return c.meFunc(ctx)
	}
	return testIdentity, nil
}

func (c *fakeClient) Dialogs(ctx context.Context, limit int) ([]domain.ChatSummary, error) {
	c.record("Dialogs")
	if c.dialogsFunc != nil {
		return c.dialogsFunc(ctx, limit)
	}
	return nil, nil
}

func (c *fakeClient) SendMessage(ctx context.Context, chatID, text string) (*domain.SentMessage, error) {
	c.record("SendMessage")
	if c.sendMessageFunc != nil {
		return c.sendMessageFunc(ctx, chatID, text)
	}
	return &domain.SentMessage{MessageID: 1}, nil
}

func (c *fakeClient) OnNewMessage(handler func(domain.MessageEvent)) {
	c.handler = handler
}

func (c *fakeClient) ExportSession(ctx context.Context) ([]byte, error) {
	c.record("ExportSession")
	if c.exportFunc != nil {
		return c.exportFunc(ctx)
	}
	return []byte("session-blob"), nil
}

func (c *fakeClient) IsConnected() bool {
	return c.connected
}

func (c *fakeClient) Disconnect(ctx context.Context) error {
	c.record("Disconnect")
	c.connected = false
	return nil
}

// fakeStore is an in-memory mock of domain.SessionStore
type fakeStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	putCalls int
	putErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (s *fakeStore) Put(ctx context.Context, accountID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.putErr != nil {
		return s.putErr
	}
	s.blobs[accountID] = append([]byte(nil), blob...)
	return nil
}

func (s *fakeStore) Get(ctx context.Context, accountID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[accountID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return blob, nil
}

func (s *fakeStore) Delete(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, accountID)
	return nil
}

// sessionTestKit wires a session use case around fake collaborators. The
// factory hands out the given clients in order, one per creation.
type sessionTestKit struct {
	uc           *SessionUseCase
	registry     *registry.Registry
	relay        *relay.Relay
	store        *fakeStore
	factoryCalls int
}

func newSessionTestKit(t *testing.T, clients ...*fakeClient) *sessionTestKit {
	t.Helper()

	kit := &sessionTestKit{
		registry: registry.New(zerolog.Nop()),
		relay:    relay.New(zerolog.Nop()),
		store:    newFakeStore(),
	}

	factory := func(phoneNumber string) (domain.TelegramClient, error) {
		if kit.factoryCalls >= len(clients) {
			t.Fatalf("factory called %d times but only %d clients prepared", kit.factoryCalls+1, len(clients))
		}
		client := clients[kit.factoryCalls]
		kit.factoryCalls++
		return client, nil
	}

	kit.uc = NewSessionUseCase(kit.registry, kit.relay, kit.store, factory, zerolog.Nop())
	return kit
}

const testPhone = "+15551230000"

func TestRequestCode_SendsCode(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)

	hash, err := kit.uc.RequestCode(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hash != "hash-1" {
		t.Errorf("Expected hash-1, got %q", hash)
	}

	s, ok := kit.registry.Get(testPhone)
	if !ok {
		t.Fatal("Expected session to be registered")
	}
	if s.State() != domain.StateAwaitingCode {
		t.Errorf("Expected awaiting_code state, got %s", s.State())
	}
	if client.called("Connect") != 1 || client.called("SendCode") != 1 {
		t.Errorf("Expected one Connect and one SendCode, got %v", client.calls)
	}
}

func TestRequestCode_NewRequestReplacesChallenge(t *testing.T) {
	hashes := []string{"hash-1", "hash-2"}
	client := &fakeClient{}
	client.sendCodeFunc = func(ctx context.Context, phoneNumber string) (string, error) {
		return hashes[client.called("SendCode")-1], nil
	}
	kit := newSessionTestKit(t, client)

	if _, err := kit.uc.RequestCode(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := kit.uc.RequestCode(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if second != "hash-2" {
		t.Errorf("Expected hash-2 from second request, got %q", second)
	}

	// The superseded hash must be rejected.
	_, err = kit.uc.VerifyCode(context.Background(), testPhone, "12345", "hash-1")
	if !errors.Is(err, domain.ErrHashMismatch) {
		t.Errorf("Expected hash mismatch for stale hash, got %v", err)
	}

	// The fresh hash still works.
	result, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", "hash-2")
	if err != nil {
		t.Fatalf("Expected no error for current hash, got %v", err)
	}
	if !result.Authenticated {
		t.Error("Expected authentication to complete")
	}
}

func TestRequestCode_SendCodeFailure(t *testing.T) {
	client := &fakeClient{
		sendCodeFunc: func(ctx context.Context, phoneNumber string) (string, error) {
			return "", fmt.Errorf("%w: flood wait", domain.ErrTransport)
		},
	}
	kit := newSessionTestKit(t, client)

	_, err := kit.uc.RequestCode(context.Background(), testPhone)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("Expected transport error, got %v", err)
	}

	s, _ := kit.registry.Get(testPhone)
	if s.State() == domain.StateFailed {
		t.Error("Expected recoverable failure not to move session to failed")
	}
	if s.LastError() == nil {
		t.Error("Expected failure detail to be recorded")
	}
}

func TestVerifyCode_Authenticates(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	result, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Authenticated || result.RequiresPassword {
		t.Errorf("Expected completed authentication, got %+v", result)
	}
	if result.Identity == nil || result.Identity.ID != testIdentity.ID {
		t.Errorf("Expected identity %d, got %+v", testIdentity.ID, result.Identity)
	}

	s, _ := kit.registry.Get(testPhone)
	state, hash, _, _ := s.Snapshot()
	if state != domain.StateAuthenticated {
		t.Errorf("Expected authenticated state, got %s", state)
	}
	if hash != "" {
		t.Errorf("Expected cleared code hash, got %q", hash)
	}

	// The credential blob must be persisted for restart recovery.
	blob, err := kit.store.Get(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("Expected persisted session, got %v", err)
	}
	if string(blob) != "session-blob" {
		t.Errorf("Expected session-blob, got %q", blob)
	}

	// Authentication binds the inbound-message callback.
	if client.handler == nil {
		t.Error("Expected event callback to be bound after authentication")
	}
}

func TestVerifyCode_WithoutPendingRequest(t *testing.T) {
	kit := newSessionTestKit(t)

	_, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", "hash-1")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Expected invalid state error, got %v", err)
	}
}

func TestVerifyCode_HashMismatch(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)

	if _, err := kit.uc.RequestCode(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", "wrong-hash")
	if !errors.Is(err, domain.ErrHashMismatch) {
		t.Fatalf("Expected hash mismatch, got %v", err)
	}
	if client.called("SignIn") != 0 {
		t.Error("Expected no SignIn call on hash mismatch")
	}

	s, _ := kit.registry.Get(testPhone)
	if s.State() != domain.StateAwaitingCode {
		t.Errorf("Expected challenge to stay pending, got %s", s.State())
	}
}

func TestVerifyCode_InvalidCodeKeepsChallenge(t *testing.T) {
	attempts := 0
	client := &fakeClient{
		signInFunc: func(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
			attempts++
			if attempts == 1 {
				return nil, domain.ErrInvalidCode
			}
			return testIdentity, nil
		},
	}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)

	_, err := kit.uc.VerifyCode(context.Background(), testPhone, "00000", hash)
	if !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("Expected invalid code, got %v", err)
	}

	// Retry with the same hash must still be possible.
	result, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if !result.Authenticated {
		t.Error("Expected authentication on retry")
	}
}

func TestVerifyCode_UnrecoverableFailure(t *testing.T) {
	client := &fakeClient{
		signInFunc: func(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
			return nil, fmt.Errorf("%w: PHONE_NUMBER_BANNED", domain.ErrUnrecoverable)
		},
	}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	_, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
	if !errors.Is(err, domain.ErrUnrecoverable) {
		t.Fatalf("Expected unrecoverable error, got %v", err)
	}

	s, _ := kit.registry.Get(testPhone)
	if s.State() != domain.StateFailed {
		t.Errorf("Expected failed state, got %s", s.State())
	}
}

func TestTwoFactorFlow(t *testing.T) {
	client := &fakeClient{
		signInFunc: func(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
			return nil, domain.ErrPasswordRequired
		},
	}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)

	result, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
	if err != nil {
		t.Fatalf("Expected no error for 2FA detection, got %v", err)
	}
	if !result.RequiresPassword || result.Authenticated {
		t.Fatalf("Expected password requirement, got %+v", result)
	}

	s, _ := kit.registry.Get(testPhone)
	if s.State() != domain.StateAwaitingPassword {
		t.Fatalf("Expected awaiting_password state, got %s", s.State())
	}

	identity, err := kit.uc.VerifyPassword(context.Background(), testPhone, "hunter2")
	if err != nil {
		t.Fatalf("Expected password verification to succeed, got %v", err)
	}
	if identity == nil || identity.ID != testIdentity.ID {
		t.Errorf("Expected identity %d, got %+v", testIdentity.ID, identity)
	}
	if s.State() != domain.StateAuthenticated {
		t.Errorf("Expected authenticated state, got %s", s.State())
	}
}

func TestVerifyPassword_WrongPasswordAllowsRetry(t *testing.T) {
	attempts := 0
	client := &fakeClient{
		signInFunc: func(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
			return nil, domain.ErrPasswordRequired
		},
		signInPasswordFunc: func(ctx context.Context, password string) (*domain.Identity, error) {
			attempts++
			if password != "hunter2" {
				return nil, domain.ErrInvalidPassword
			}
			return testIdentity, nil
		},
	}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	if _, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err := kit.uc.VerifyPassword(context.Background(), testPhone, "wrong")
	if !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("Expected invalid password, got %v", err)
	}

	s, _ := kit.registry.Get(testPhone)
	if s.State() != domain.StateAwaitingPassword {
		t.Fatalf("Expected session to keep awaiting password, got %s", s.State())
	}

	if _, err := kit.uc.VerifyPassword(context.Background(), testPhone, "hunter2"); err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 password attempts, got %d", attempts)
	}
}

func TestVerifyPassword_WithoutPasswordStep(t *testing.T) {
	kit := newSessionTestKit(t)

	_, err := kit.uc.VerifyPassword(context.Background(), testPhone, "hunter2")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Expected invalid state error, got %v", err)
	}
}

func TestDisconnect_IsIdempotent(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	if _, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := kit.uc.Disconnect(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := kit.uc.Disconnect(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected second disconnect to succeed, got %v", err)
	}
	if err := kit.uc.Disconnect(context.Background(), "+19998887777"); err != nil {
		t.Fatalf("Expected disconnect of unknown account to succeed, got %v", err)
	}

	if client.called("Disconnect") != 1 {
		t.Errorf("Expected exactly 1 client disconnect, got %d", client.called("Disconnect"))
	}
	if _, ok := kit.registry.Get(testPhone); ok {
		t.Error("Expected session removed from registry")
	}
	if client.handler != nil {
		t.Error("Expected event callback unbound on disconnect")
	}
}

func TestDisconnect_ThenFreshAuthCycle(t *testing.T) {
	first := &fakeClient{}
	second := &fakeClient{
		sendCodeFunc: func(ctx context.Context, phoneNumber string) (string, error) {
			return "hash-2", nil
		},
	}
	kit := newSessionTestKit(t, first, second)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	if _, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := kit.uc.Disconnect(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A new cycle starts from scratch with a fresh client and challenge.
	newHash, err := kit.uc.RequestCode(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("Expected fresh cycle to start, got %v", err)
	}
	if newHash != "hash-2" {
		t.Errorf("Expected hash-2 from fresh client, got %q", newHash)
	}
	if kit.factoryCalls != 2 {
		t.Errorf("Expected 2 client creations, got %d", kit.factoryCalls)
	}
}

func TestRequestCode_RestoredSessionRejectsNewCode(t *testing.T) {
	client := &fakeClient{
		authorizedFunc: func(ctx context.Context) (bool, error) {
			return true, nil
		},
	}
	kit := newSessionTestKit(t, client)

	// The stored credential blob restores authorization during connect, so a
	// new code cycle is not valid.
	_, err := kit.uc.RequestCode(context.Background(), testPhone)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("Expected invalid state for restored session, got %v", err)
	}

	s, _ := kit.registry.Get(testPhone)
	if s.State() != domain.StateAuthenticated {
		t.Errorf("Expected restored session to be authenticated, got %s", s.State())
	}
	if client.called("SendCode") != 0 {
		t.Error("Expected no code request for restored session")
	}
}

func TestStatus_UnknownAccount(t *testing.T) {
	kit := newSessionTestKit(t)

	status := kit.uc.Status(context.Background(), testPhone)
	if status.State != domain.StateDisconnected || status.IsConnected {
		t.Errorf("Expected disconnected status, got %+v", status)
	}
	if status.Identity != nil {
		t.Error("Expected no identity for unknown account")
	}
}

func TestStatus_AuthenticatedAccount(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	if _, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	status := kit.uc.Status(context.Background(), testPhone)
	if status.State != domain.StateAuthenticated || !status.IsConnected {
		t.Errorf("Expected authenticated status, got %+v", status)
	}
	if status.Identity == nil || status.Identity.Username != "testuser" {
		t.Errorf("Expected cached identity, got %+v", status.Identity)
	}
}

func TestStatus_IdentityRefreshFailureDegrades(t *testing.T) {
	client := &fakeClient{
		meFunc: func(ctx context.Context) (*domain.Identity, error) {
			return nil, fmt.Errorf("%w: timeout", domain.ErrTransport)
		},
	}
	kit := newSessionTestKit(t, client)

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	result, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Authenticated {
		t.Fatal("Expected authentication despite identity fetch failure")
	}

	// SignIn supplied the identity, so it is cached even though Me fails.
	status := kit.uc.Status(context.Background(), testPhone)
	if status.State != domain.StateAuthenticated {
		t.Errorf("Expected authenticated state, got %s", status.State)
	}
}

func TestActiveAccountCount(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)

	if kit.uc.ActiveAccountCount() != 0 {
		t.Errorf("Expected 0 accounts, got %d", kit.uc.ActiveAccountCount())
	}

	if _, err := kit.uc.RequestCode(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if kit.uc.ActiveAccountCount() != 1 {
		t.Errorf("Expected 1 account, got %d", kit.uc.ActiveAccountCount())
	}

	if err := kit.uc.Disconnect(context.Background(), testPhone); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if kit.uc.ActiveAccountCount() != 0 {
		t.Errorf("Expected 0 accounts after disconnect, got %d", kit.uc.ActiveAccountCount())
	}
}

func TestShutdown_WaitsForInFlightVerify(t *testing.T) {
	signInStarted := make(chan struct{})
	releaseSignIn := make(chan struct{})
	client := &fakeClient{
		signInFunc: func(ctx context.Context, phoneNumber, code, codeHash string) (*domain.Identity, error) {
			close(signInStarted)
			<-releaseSignIn
			return testIdentity, nil
		},
	}
	kit := newSessionTestKit(t, client)

	hash, err := kit.uc.RequestCode(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	verifyDone := make(chan error, 1)
	go func() {
		_, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
		verifyDone <- err
	}()
	<-signInStarted

	shutdownDone := make(chan int, 1)
	go func() {
		shutdownDone <- kit.registry.Shutdown(context.Background())
	}()

	// Teardown holds the session's operation lock, so it must not proceed
	// while the verification is still inside the collaborator call.
	select {
	case <-shutdownDone:
		t.Fatal("Expected shutdown to wait for the in-flight verification")
	case <-time.After(50 * time.Millisecond):
	}

	close(releaseSignIn)

	if err := <-verifyDone; err != nil {
		t.Fatalf("Expected verification to complete cleanly, got %v", err)
	}
	if n := <-shutdownDone; n != 1 {
		t.Errorf("Expected 1 clean disconnect, got %d", n)
	}
	if client.called("Disconnect") != 1 {
		t.Errorf("Expected client disconnected during shutdown, got %d", client.called("Disconnect"))
	}
}

func TestStorePutFailureDoesNotFailAuthentication(t *testing.T) {
	client := &fakeClient{}
	kit := newSessionTestKit(t, client)
	kit.store.putErr = errors.New("disk full")

	hash, _ := kit.uc.RequestCode(context.Background(), testPhone)
	result, err := kit.uc.VerifyCode(context.Background(), testPhone, "12345", hash)
	if err != nil {
		t.Fatalf("Expected authentication to succeed despite store failure, got %v", err)
	}
	if !result.Authenticated {
		t.Error("Expected completed authentication")
	}
}
