package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/dependencies/mocks"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/storage/memory"
	"github.com/mcoot/communityportal/internal/testutil"
)

type GatewaySuite struct {
	suite.Suite
	ctx     context.Context
	storage *memory.Storage
	store   *session.Store
	server  *httptest.Server
	handler http.HandlerFunc
	calls   atomic.Int32
	gateway *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New(mocks.NewMockClock(time.Now()), 0)
	s.store = session.New("client-1", s.storage, testutil.NopLogger())
	s.store.Initialize(s.ctx)
	s.calls.Store(0)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.handler(w, r)
	}))
	s.gateway = New(apiclient.New(s.server.URL), s.store, testutil.NopLogger())
}

func (s *GatewaySuite) TearDownTest() {
	s.server.Close()
}

func (s *GatewaySuite) respond(status int, body any) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func signedToken(email string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "email": email})
	signed, _ := tok.SignedString([]byte("test-secret"))
	return signed
}

// Login tests

func (s *GatewaySuite) TestLoginSuccessEstablishesSession() {
	var got loginRequest
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal(LoginPath, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isSuccess":true,"token":"abc.def.ghi","userId":7,"name":"Jane Doe","role":"User"}`))
	}

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.True(result.Success)
	s.Empty(result.Message)
	s.Equal(loginRequest{Email: "jane@example.com", Password: "pw"}, got)

	sess := s.store.Session()
	s.Equal(model.Credential("abc.def.ghi"), sess.Credential)
	s.Require().NotNil(sess.Identity)
	s.Equal(model.Identity{UserID: 7, Name: "Jane Doe", Role: "User"}, *sess.Identity)
	s.True(s.store.IsAuthenticated())

	token, err := s.storage.GetEntry(s.ctx, "client-1", "token")
	s.Require().NoError(err)
	s.Equal("abc.def.ghi", token)
}

func (s *GatewaySuite) TestLoginTakesEmailFromTokenClaims() {
	s.respond(http.StatusOK, map[string]any{
		"isSuccess": true,
		"token":     signedToken("jane@example.com"),
		"userId":    7,
		"name":      "Jane Doe",
		"role":      "User",
	})

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.Require().True(result.Success)
	s.Equal("jane@example.com", s.store.Session().Identity.Email)
}

func (s *GatewaySuite) TestLoginMissingTokenLeavesStoreUnchanged() {
	s.respond(http.StatusOK, map[string]any{"isSuccess": true, "userId": 7, "name": "Jane Doe"})

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.False(result.Success)
	s.Equal(MsgLoginFailed, result.Message)
	s.False(s.store.IsAuthenticated())
	_, err := s.storage.GetEntry(s.ctx, "client-1", "token")
	s.ErrorIs(err, model.ErrEntryNotFound)
}

func (s *GatewaySuite) TestLoginNotSuccessUsesServerMessage() {
	s.respond(http.StatusOK, map[string]any{"isSuccess": false, "message": "Account pending approval"})

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.False(result.Success)
	s.Equal("Account pending approval", result.Message)
}

func (s *GatewaySuite) TestLoginUnauthorizedUsesServerMessage() {
	s.respond(http.StatusUnauthorized, map[string]any{"isSuccess": false, "message": "Invalid credentials"})

	result := s.gateway.Login(s.ctx, "jane@example.com", "wrong")

	s.False(result.Success)
	s.Equal("Invalid credentials", result.Message)
	s.False(s.store.IsAuthenticated())
}

func (s *GatewaySuite) TestLoginStatusWithoutMessage() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.False(result.Success)
	s.Equal("request failed with status code 500", result.Message)
}

func (s *GatewaySuite) TestLoginNetworkError() {
	s.server.Close()

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.False(result.Success)
	s.Equal(MsgNetworkError, result.Message)
	s.False(s.store.IsAuthenticated())
}

func (s *GatewaySuite) TestLoginEmptyInputMakesNoCall() {
	for _, tc := range []struct{ id, secret string }{{"", "pw"}, {"jane@example.com", ""}, {"   ", "pw"}} {
		result := s.gateway.Login(s.ctx, tc.id, tc.secret)
		s.False(result.Success)
		s.NotEmpty(result.Message)
	}
	s.Equal(int32(0), s.calls.Load())
}

func (s *GatewaySuite) TestLoginDropsStaleResponse() {
	other := model.Identity{UserID: 9, Name: "Other", Role: "admin"}
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		// a different login lands while this one is in flight
		s.NoError(s.store.SetSession(r.Context(), "other-token", other))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isSuccess":true,"token":"abc.def.ghi","userId":7,"name":"Jane Doe","role":"User"}`))
	}

	result := s.gateway.Login(s.ctx, "jane@example.com", "pw")

	s.False(result.Success)
	s.Equal(MsgStaleLogin, result.Message)
	s.Equal(model.Credential("other-token"), s.store.Credential())
	s.Equal(other, *s.store.Session().Identity)
}

// Signup tests

func (s *GatewaySuite) TestSignupSuccessDoesNotCreateSession() {
	var got SignupRequest
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal(SignupPath, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isSuccess":true,"message":"Registration submitted"}`))
	}

	req := SignupRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	result := s.gateway.Signup(s.ctx, req)

	s.True(result.Success)
	s.Equal("Registration submitted", result.Message)
	s.Equal(req, got)
	s.False(s.store.IsAuthenticated())
}

func (s *GatewaySuite) TestSignupPasswordMismatchMakesNoCall() {
	result := s.gateway.Signup(s.ctx, SignupRequest{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1", ConfirmPassword: "secret2",
	})

	s.False(result.Success)
	s.Equal("Passwords do not match", result.Message)
	s.Equal("Passwords do not match", result.FieldErrors["confirmPassword"])
	s.Equal(int32(0), s.calls.Load())
}

func (s *GatewaySuite) TestSignupInvalidFields() {
	result := s.gateway.Signup(s.ctx, SignupRequest{Name: "J", Email: "not-an-email", Password: "pw", ConfirmPassword: "pw"})

	s.False(result.Success)
	s.Contains(result.FieldErrors, "name")
	s.Contains(result.FieldErrors, "email")
	s.Contains(result.FieldErrors, "password")
	s.Equal(int32(0), s.calls.Load())
}

func (s *GatewaySuite) TestSignupRejected() {
	s.respond(http.StatusBadRequest, map[string]any{"isSuccess": false, "message": "Email already registered"})

	result := s.gateway.Signup(s.ctx, SignupRequest{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})

	s.False(result.Success)
	s.Equal("Email already registered", result.Message)
}

func (s *GatewaySuite) TestSignupNotSuccessFallback() {
	s.respond(http.StatusOK, map[string]any{"isSuccess": false})

	result := s.gateway.Signup(s.ctx, SignupRequest{
		Name: "Jane Doe", Email: "jane@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})

	s.Equal(MsgSignupFailed, result.Message)
}

// Logout tests

func (s *GatewaySuite) TestLogoutClearsSession() {
	s.Require().NoError(s.store.SetSession(s.ctx, "abc.def.ghi", model.Identity{UserID: 7, Name: "Jane Doe"}))

	s.Require().NoError(s.gateway.Logout(s.ctx))

	s.False(s.store.IsAuthenticated())
	_, err := s.storage.GetEntry(s.ctx, "client-1", "user")
	s.ErrorIs(err, model.ErrEntryNotFound)
}
