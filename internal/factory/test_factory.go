package factory

import (
	"log/slog"
	"net/http/httptest"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/dependencies/mocks"
	"github.com/mcoot/communityportal/internal/storage"
	"github.com/mcoot/communityportal/internal/storage/memory"
	"github.com/mcoot/communityportal/internal/stubapi"
)

// TestApp extends App with an in-process remote API and a mocked clock
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock

	// Stub is the stand-in remote API, seeded with the admin and member accounts
	Stub   *stubapi.Server
	Remote *httptest.Server
}

// TestOption customises NewTestApp
type TestOption func(*testOptions)

type testOptions struct {
	storage   storage.Storage
	loginRate int
	logger    *slog.Logger
}

// WithStorage replaces the in-memory storage
func WithStorage(s storage.Storage) TestOption {
	return func(o *testOptions) { o.storage = s }
}

// WithLoginRate enables the login rate limiter
func WithLoginRate(perMinute int) TestOption {
	return func(o *testOptions) { o.loginRate = perMinute }
}

// WithLogger sets the logger used by every component
func WithLogger(l *slog.Logger) TestOption {
	return func(o *testOptions) { o.logger = l }
}

// NewTestApp creates an App wired to a stand-in remote API. Call Close when done.
func NewTestApp(opts ...TestOption) (*TestApp, error) {
	mockClock := mocks.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))

	o := testOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.storage == nil {
		o.storage = memory.New(mockClock, time.Minute)
	}

	stub := stubapi.New(stubapi.Config{
		Logger:       o.logger,
		Clock:        mockClock,
		Secret:       []byte("test-app"),
		TokenTTL:     time.Hour,
		PasswordCost: bcrypt.MinCost,
	})
	if err := stub.SeedAccounts(); err != nil {
		return nil, err
	}
	remote := httptest.NewServer(stub.Handler())

	app := newWithDependencies(o.storage, mockClock, apiclient.New(remote.URL), o.loginRate, o.logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Stub:      stub,
		Remote:    remote,
	}, nil
}

// Close stops the remote API and the app
func (t *TestApp) Close() {
	t.Remote.Close()
	_ = t.App.Close()
}
