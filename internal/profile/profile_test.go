package profile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/dependencies/mocks"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/testutil"
)

type ProfileSuite struct {
	suite.Suite
	ctx     context.Context
	mux     *http.ServeMux
	server  *httptest.Server
	clock   *mocks.MockClock
	service *Service
	order   []string
	update  map[string]any
}

func TestProfileSuite(t *testing.T) {
	suite.Run(t, new(ProfileSuite))
}

func (s *ProfileSuite) SetupTest() {
	s.ctx = context.Background()
	s.order = nil
	s.update = nil
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	s.clock = mocks.NewMockClock(time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC))
	s.service = NewService(apiclient.New(s.server.URL).WithToken("member-token"), s.clock, testutil.NopLogger())
}

func (s *ProfileSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *ProfileSuite) handleUpload(status int, body any) {
	s.mux.HandleFunc("POST /api/profile/7/photo", func(w http.ResponseWriter, r *http.Request) {
		s.order = append(s.order, "upload")
		file, header, err := r.FormFile("file")
		if s.NoError(err) {
			data, _ := io.ReadAll(file)
			s.Equal("photo-bytes", string(data))
			s.Equal("me.png", header.Filename)
			s.Equal("image/png", header.Header.Get("Content-Type"))
		}
		writeJSON(w, status, body)
	})
}

func (s *ProfileSuite) handleUpdate(status int, body any) {
	s.mux.HandleFunc("PUT /api/profile/update/7", func(w http.ResponseWriter, r *http.Request) {
		s.order = append(s.order, "update")
		s.Equal("Bearer member-token", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&s.update)
		if body == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, body)
	})
}

func validForm() Form {
	return Form{FullName: "Jane Doe", Mobile: "9876543210", DOB: "1990-02-03", Gender: "Female"}
}

func png() *Photo {
	return &Photo{Name: "me.png", MimeType: "image/png", Content: []byte("photo-bytes")}
}

// Load tests

func (s *ProfileSuite) TestLoad() {
	s.mux.HandleFunc("GET /api/profile/get/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"userId": 7, "name": "Jane Doe", "dob": "1990-02-03T00:00:00", "profilePhotoPath": "/uploads/7.png",
		})
	})

	p, err := s.service.Load(s.ctx, 7)

	s.Require().NoError(err)
	s.Equal("Jane Doe", p.Name)
	form := FormFromProfile(p)
	s.Equal("1990-02-03", form.DOB)
	s.Equal("/uploads/7.png", p.ProfilePhotoPath)
}

func (s *ProfileSuite) TestLoadNotFound() {
	_, err := s.service.Load(s.ctx, 7)

	s.ErrorIs(err, model.ErrProfileNotFound)
	s.Equal(MsgNotFound, Message(err))
}

// Validation tests

func (s *ProfileSuite) TestValidate() {
	tests := []struct {
		name string
		edit func(*Form)
		want string
	}{
		{name: "valid", edit: func(f *Form) {}},
		{name: "short name", edit: func(f *Form) { f.FullName = " J " }, want: "Full Name must be at least 2 characters"},
		{name: "empty mobile allowed", edit: func(f *Form) { f.Mobile = "" }},
		{name: "short mobile", edit: func(f *Form) { f.Mobile = "12345" }, want: "Mobile number must be 10 digits"},
		{name: "signed mobile", edit: func(f *Form) { f.Mobile = "+123456789" }, want: "Mobile number must be 10 digits"},
		{name: "dob today", edit: func(f *Form) { f.DOB = "2026-05-01" }, want: "Date of Birth must be earlier than today"},
		{name: "dob yesterday", edit: func(f *Form) { f.DOB = "2026-04-30" }},
		{name: "dob garbage", edit: func(f *Form) { f.DOB = "soon" }, want: "Date of Birth must be a valid date"},
		{name: "unknown gender", edit: func(f *Form) { f.Gender = "X" }, want: "Gender must be one of Male, Female or Other"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			form := validForm()
			tt.edit(&form)
			err := s.service.Validate(form)
			if tt.want == "" {
				s.NoError(err)
				return
			}
			s.Require().Error(err)
			s.Equal(tt.want, Message(err))
		})
	}
}

func (s *ProfileSuite) TestCheckPhoto() {
	s.NoError(CheckPhoto(*png()))
	s.Error(CheckPhoto(Photo{Name: "x.gif", MimeType: "image/gif"}))
	s.Error(CheckPhoto(Photo{Name: "big.png", MimeType: "image/png", Content: make([]byte, MaxPhotoBytes+1)}))
}

// Save tests

func (s *ProfileSuite) TestSaveUploadsPhotoThenUpdates() {
	s.handleUpload(http.StatusOK, map[string]string{"url": "/uploads/7-new.png"})
	s.handleUpdate(http.StatusNoContent, nil)

	var progress []int
	url, err := s.service.Save(s.ctx, SaveRequest{
		UserID:       7,
		Email:        "jane@example.com",
		Form:         validForm(),
		CurrentPhoto: "/uploads/7.png",
		NewPhoto:     png(),
		Progress:     func(p int) { progress = append(progress, p) },
	})

	s.Require().NoError(err)
	s.Equal("/uploads/7-new.png", url)
	s.Equal([]string{"upload", "update"}, s.order)
	s.Equal("/uploads/7-new.png", s.update["ProfilePhotoPath"])
	s.Equal("Jane Doe", s.update["Name"])
	s.Equal("jane@example.com", s.update["Email"])
	s.Equal("1990-02-03T00:00:00Z", s.update["DOB"])
	s.Require().NotEmpty(progress)
	s.Equal(0, progress[0])
	s.Equal(100, progress[len(progress)-1])
}

func (s *ProfileSuite) TestSaveAcceptsCapitalisedURL() {
	s.handleUpload(http.StatusCreated, map[string]string{"Url": "/uploads/alt.png"})
	s.handleUpdate(http.StatusOK, map[string]string{})

	url, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: validForm(), NewPhoto: png()})

	s.Require().NoError(err)
	s.Equal("/uploads/alt.png", url)
}

func (s *ProfileSuite) TestSaveWithoutPhotoKeepsCurrent() {
	s.handleUpdate(http.StatusNoContent, nil)

	form := validForm()
	form.DOB = ""
	url, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: form, CurrentPhoto: "/uploads/7.png"})

	s.Require().NoError(err)
	s.Equal("/uploads/7.png", url)
	s.Equal([]string{"update"}, s.order)
	s.Nil(s.update["DOB"])
	s.NotContains(s.update, "Email")
}

func (s *ProfileSuite) TestSaveUploadWithoutURLStops() {
	s.handleUpload(http.StatusOK, map[string]string{})
	s.handleUpdate(http.StatusNoContent, nil)

	_, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: validForm(), NewPhoto: png()})

	s.ErrorIs(err, model.ErrPhotoURLMissing)
	s.Equal(MsgPhotoURLMissing, Message(err))
	s.Equal([]string{"upload"}, s.order)
}

func (s *ProfileSuite) TestSaveUploadRejected() {
	s.handleUpload(http.StatusRequestEntityTooLarge, map[string]string{"message": "too big"})

	_, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: validForm(), NewPhoto: png()})

	s.Equal("Image upload failed (413): too big", Message(err))
}

func (s *ProfileSuite) TestSaveInvalidFormMakesNoCalls() {
	form := validForm()
	form.FullName = "J"

	_, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: form, NewPhoto: png()})

	s.Error(err)
	s.Empty(s.order)
}

func (s *ProfileSuite) TestSaveValidationFailure() {
	s.handleUpdate(http.StatusBadRequest, map[string]any{
		"errors": map[string][]string{"Mobile": {"Invalid"}, "Name": {"Too long", "Bad chars"}},
	})

	_, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: validForm()})

	s.Equal("Validation failed: Mobile: Invalid | Name: Too long, Bad chars", Message(err))
}

func (s *ProfileSuite) TestSaveNotFound() {
	s.handleUpdate(http.StatusNotFound, map[string]string{})

	_, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: validForm()})

	s.ErrorIs(err, model.ErrProfileNotFound)
	s.Equal(MsgNotFound, Message(err))
}

func (s *ProfileSuite) TestSaveOtherStatus() {
	s.handleUpdate(http.StatusInternalServerError, map[string]string{"message": "db down"})

	_, err := s.service.Save(s.ctx, SaveRequest{UserID: 7, Form: validForm()})

	s.Equal("Failed to update profile (500): db down", Message(err))
}

// DeletePhoto tests

func (s *ProfileSuite) TestDeletePhoto() {
	called := false
	s.mux.HandleFunc("DELETE /api/profile/7/deletePhoto", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	s.Require().NoError(s.service.DeletePhoto(s.ctx, 7, "/uploads/7.png"))
	s.True(called)
}

func (s *ProfileSuite) TestDeletePhotoWithoutPhoto() {
	err := s.service.DeletePhoto(s.ctx, 7, "")

	s.Equal(MsgNoPhoto, Message(err))
}

func (s *ProfileSuite) TestDeletePhotoNotFound() {
	err := s.service.DeletePhoto(s.ctx, 7, "/uploads/7.png")

	s.Equal(MsgPhotoNotFound, Message(err))
}

func (s *ProfileSuite) TestImageURL() {
	s.Equal("", ImageURL("https://api.example", ""))
	s.Equal("https://cdn.example/a.png", ImageURL("https://api.example", "https://cdn.example/a.png"))
	s.Equal("https://api.example/uploads/a.png", ImageURL("https://api.example/", "uploads/a.png"))
	s.True(strings.HasSuffix(ImageURL("https://api.example", "/x.png"), "/x.png"))
}
