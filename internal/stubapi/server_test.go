package stubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/communityportal/internal/claims"
	"github.com/mcoot/communityportal/internal/dependencies/mocks"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/testutil"
)

type ServerSuite struct {
	suite.Suite
	clock  *mocks.MockClock
	stub   *Server
	server *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	s.stub = New(Config{
		Logger:       testutil.NopLogger(),
		Clock:        s.clock,
		Secret:       []byte("test-secret"),
		TokenTTL:     time.Hour,
		PasswordCost: bcrypt.MinCost,
	})
	s.Require().NoError(s.stub.SeedAccounts())
	s.server = httptest.NewServer(s.stub.Handler())
}

func (s *ServerSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServerSuite) do(method, path, token string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *ServerSuite) decode(resp *http.Response, out any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *ServerSuite) login(email, password string) authResponse {
	var out authResponse
	s.decode(s.do(http.MethodPost, "/api/Auth/login", "", loginRequest{Email: email, Password: password}), &out)
	return out
}

// Auth tests

func (s *ServerSuite) TestLoginIssuesTokenWithEmailSubject() {
	out := s.login(MemberEmail, MemberPassword)

	s.Require().True(out.IsSuccess)
	s.Equal("Jane Doe", out.Name)
	s.Equal("User", out.Role)
	s.NotZero(out.UserID)

	hint, ok := claims.Hint(model.Credential(out.Token))
	s.Require().True(ok)
	s.Equal(MemberEmail, hint.Subject)

	acct, err := s.stub.Accounts().Verify(out.Token)
	s.Require().NoError(err)
	s.Equal(out.UserID, acct.Profile.UserID)
}

func (s *ServerSuite) TestLoginWrongPassword() {
	resp := s.do(http.MethodPost, "/api/Auth/login", "", loginRequest{Email: MemberEmail, Password: "nope"})

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	var out authResponse
	s.decode(resp, &out)
	s.False(out.IsSuccess)
	s.Equal("Invalid email or password", out.Message)
}

func (s *ServerSuite) TestTokenExpires() {
	out := s.login(MemberEmail, MemberPassword)
	s.clock.Advance(2 * time.Hour)

	_, err := s.stub.Accounts().Verify(out.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServerSuite) TestSignupThenPendingApproval() {
	resp := s.do(http.MethodPost, "/api/Auth/signup", "", signupRequest{
		Name: "Pat Lee", Email: "pat@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	var out authResponse
	s.decode(resp, &out)
	s.True(out.IsSuccess)

	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/Auth/login", "", loginRequest{Email: "pat@example.com", Password: "secret1"}).StatusCode)

	admin := s.login(AdminEmail, AdminPassword)
	var pending []model.PendingUser
	s.decode(s.do(http.MethodGet, "/api/admin/users/pending", admin.Token, nil), &pending)
	s.Require().Len(pending, 1)
	s.Equal("Pat Lee", pending[0].FullName)
}

func (s *ServerSuite) TestSignupDuplicateEmail() {
	resp := s.do(http.MethodPost, "/api/Auth/signup", "", signupRequest{
		Name: "Jane Again", Email: MemberEmail, Password: "secret1", ConfirmPassword: "secret1",
	})

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerSuite) TestSignupPasswordMismatch() {
	resp := s.do(http.MethodPost, "/api/Auth/signup", "", signupRequest{
		Name: "Pat Lee", Email: "pat@example.com", Password: "secret1", ConfirmPassword: "secret2",
	})

	var out authResponse
	s.decode(resp, &out)
	s.Equal("Passwords do not match", out.Message)
}

// Content tests

func (s *ServerSuite) TestHomeSectionsAreCaseInsensitive() {
	var news []model.NewsItem
	s.decode(s.do(http.MethodGet, "/api/home/news", "", nil), &news)
	s.NotEmpty(news)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/Home/Committee", "", nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/Home/unknown", "", nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/Home/news/999", "", nil).StatusCode)
}

func (s *ServerSuite) TestAdminDeleteRequiresAdmin() {
	member := s.login(MemberEmail, MemberPassword)
	admin := s.login(AdminEmail, AdminPassword)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodDelete, "/api/admin/news/1", "", nil).StatusCode)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/api/admin/news/1", member.Token, nil).StatusCode)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/admin/news/1", admin.Token, nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/Home/news/1", "", nil).StatusCode)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/Menu/7", admin.Token, nil).StatusCode)
}

// Profile tests

func (s *ServerSuite) TestProfileOwnership() {
	member := s.login(MemberEmail, MemberPassword)
	admin := s.login(AdminEmail, AdminPassword)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/profile/get/2", member.Token, nil).StatusCode)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/profile/get/1", member.Token, nil).StatusCode)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/profile/get/2", admin.Token, nil).StatusCode)
}

func (s *ServerSuite) TestProfileUpdateValidation() {
	member := s.login(MemberEmail, MemberPassword)

	resp := s.do(http.MethodPut, "/api/profile/update/2", member.Token, profileUpdate{Name: "J", Mobile: "123"})

	s.Equal(http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	s.decode(resp, &body)
	s.Contains(body.Errors, "Name")
	s.Contains(body.Errors, "Mobile")
}

func (s *ServerSuite) TestPhotoUploadServeAndDelete() {
	member := s.login(MemberEmail, MemberPassword)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "me.PNG")
	s.Require().NoError(err)
	_, _ = part.Write([]byte("png-bytes"))
	s.Require().NoError(mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/profile/2/photo", &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+member.Token)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	var uploaded struct {
		URL string `json:"url"`
	}
	s.decode(resp, &uploaded)
	s.Require().NotEmpty(uploaded.URL)
	s.Contains(uploaded.URL, ".png")

	photoResp := s.do(http.MethodGet, uploaded.URL, "", nil)
	data, _ := io.ReadAll(photoResp.Body)
	s.Equal("png-bytes", string(data))

	s.Equal(http.StatusNoContent, s.do(http.MethodPut, "/api/profile/update/2", member.Token, profileUpdate{Name: "Jane Doe", ProfilePhotoPath: uploaded.URL}).StatusCode)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/profile/2/deletePhoto", member.Token, nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, uploaded.URL, "", nil).StatusCode)

	var p model.Profile
	s.decode(s.do(http.MethodGet, "/api/profile/get/2", member.Token, nil), &p)
	s.Empty(p.ProfilePhotoPath)
}
