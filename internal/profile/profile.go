// Package profile loads and saves the signed-in member's profile.
//
// Saving is a two-step exchange: a newly chosen photo is uploaded first and
// its URL is then written with the rest of the profile.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/metrics"
	"github.com/mcoot/communityportal/internal/model"
)

// DateLayout is the form's date of birth format
const DateLayout = "2006-01-02"

// Photo limits
const MaxPhotoBytes = 5 << 20

// AllowedPhotoTypes are the accepted photo content types
var AllowedPhotoTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Genders are the selectable gender values, including "not specified"
var Genders = []string{"", "Male", "Female", "Other"}

// Messages shown to the member
const (
	MsgSaved           = "Profile updated successfully!"
	MsgPhotoDeleted    = "Profile photo deleted."
	MsgNotFound        = "Profile or user not found."
	MsgPhotoNotFound   = "Profile not found."
	MsgNoPhoto         = "No profile photo to delete."
	MsgPhotoURLMissing = "Upload succeeded but server did not return image URL"
)

// Form is the editable part of a profile
type Form struct {
	FullName      string `validate:"min=2"`
	Email         string
	Mobile        string `validate:"omitempty,len=10,number"`
	Address       string
	DOB           string `validate:"omitempty,datetime=2006-01-02,before_today"`
	Gender        string `validate:"omitempty,oneof=Male Female Other"`
	CommunityInfo string
}

// FormFromProfile fills a form from the stored profile
func FormFromProfile(p model.Profile) Form {
	f := Form{
		FullName:      p.Name,
		Email:         p.Email,
		Mobile:        p.Mobile,
		Address:       p.Address,
		Gender:        p.Gender,
		CommunityInfo: p.CommunityInfo,
	}
	if p.DOB != nil {
		f.DOB, _, _ = strings.Cut(*p.DOB, "T")
	}
	return f
}

// Photo is a newly chosen profile photo
type Photo struct {
	Name     string
	MimeType string
	Content  []byte
}

// Error is a failure with a message fit for the member
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func failure(msg string, err error) *Error {
	return &Error{Message: msg, Err: err}
}

// Message returns the member-facing text for err
func Message(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

type updateRequest struct {
	Name             string  `json:"Name"`
	Email            string  `json:"Email,omitempty"`
	Mobile           string  `json:"Mobile"`
	Address          string  `json:"Address"`
	DOB              *string `json:"DOB"`
	Gender           string  `json:"Gender"`
	CommunityInfo    string  `json:"CommunityInfo"`
	ProfilePhotoPath string  `json:"ProfilePhotoPath,omitempty"`
}

type uploadResponse struct {
	URL      string `json:"url"`
	AltURL   string `json:"Url"`
	ErrorMsg string `json:"error"`
}

// Service talks to the profile endpoints with the member's credential
type Service struct {
	client   *apiclient.Client
	clock    clock.Clock
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates a Service. client must carry the member's credential.
func NewService(client *apiclient.Client, clk clock.Clock, logger *slog.Logger) *Service {
	s := &Service{
		client: client,
		clock:  clk,
		logger: logger.With(slog.String("component", "profile")),
	}
	v := validator.New()
	_ = v.RegisterValidation("before_today", s.beforeToday)
	s.validate = v
	return s
}

func (s *Service) beforeToday(fl validator.FieldLevel) bool {
	d, err := time.ParseInLocation(DateLayout, fl.Field().String(), s.clock.Now().Location())
	if err != nil {
		return false
	}
	return d.Before(clock.Today(s.clock))
}

// Load fetches a member's profile
func (s *Service) Load(ctx context.Context, userID int) (model.Profile, error) {
	var p model.Profile
	if err := s.client.Get(ctx, "/api/profile/get/"+strconv.Itoa(userID), &p); err != nil {
		if apiclient.IsStatus(err, http.StatusNotFound) {
			return p, failure(MsgNotFound, model.ErrProfileNotFound)
		}
		return p, failure(requestFailed("Failed to load profile", err), err)
	}
	return p, nil
}

// Validate checks the form and returns the first problem found
func (s *Service) Validate(f Form) error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Mobile = strings.TrimSpace(f.Mobile)

	err := s.validate.Struct(f)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return failure("Invalid profile", err)
	}
	return failure(fieldMessage(ve[0]), err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "FullName":
		return "Full Name must be at least 2 characters"
	case "Mobile":
		return "Mobile number must be 10 digits"
	case "DOB":
		if fe.Tag() == "datetime" {
			return "Date of Birth must be a valid date"
		}
		return "Date of Birth must be earlier than today"
	case "Gender":
		return "Gender must be one of Male, Female or Other"
	default:
		return "Invalid " + fe.Field()
	}
}

// CheckPhoto enforces the photo type and size limits
func CheckPhoto(p Photo) error {
	allowed := false
	for _, t := range AllowedPhotoTypes {
		if p.MimeType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return failure("Only JPG/PNG/WEBP images are allowed", nil)
	}
	if len(p.Content) > MaxPhotoBytes {
		return failure("File size must be <= 5MB", nil)
	}
	return nil
}

// SaveRequest is one save of the profile form
type SaveRequest struct {
	UserID int
	// Email is the signed-in identity's email, sent when known
	Email string
	Form  Form
	// CurrentPhoto is kept when no new photo is given
	CurrentPhoto string
	NewPhoto     *Photo
	Progress     apiclient.ProgressFunc
}

// Save validates the form, uploads a new photo if one was chosen, then
// updates the profile. It returns the photo URL now on record.
func (s *Service) Save(ctx context.Context, req SaveRequest) (string, error) {
	if err := s.Validate(req.Form); err != nil {
		return "", err
	}

	photoURL := req.CurrentPhoto
	if req.NewPhoto != nil {
		if err := CheckPhoto(*req.NewPhoto); err != nil {
			return "", err
		}
		url, err := s.uploadPhoto(ctx, req.UserID, *req.NewPhoto, req.Progress)
		if err != nil {
			return "", err
		}
		photoURL = url
	}

	body := updateRequest{
		Name:             strings.TrimSpace(req.Form.FullName),
		Email:            req.Email,
		Mobile:           strings.TrimSpace(req.Form.Mobile),
		Address:          req.Form.Address,
		Gender:           req.Form.Gender,
		CommunityInfo:    req.Form.CommunityInfo,
		ProfilePhotoPath: photoURL,
	}
	if req.Form.DOB != "" {
		d, _ := time.Parse(DateLayout, req.Form.DOB)
		iso := d.UTC().Format(time.RFC3339)
		body.DOB = &iso
	}

	if err := s.client.Put(ctx, "/api/profile/update/"+strconv.Itoa(req.UserID), body, nil); err != nil {
		return photoURL, s.updateFailure(err)
	}

	s.logger.Info("profile updated", slog.Int("user_id", req.UserID), slog.Bool("new_photo", req.NewPhoto != nil))
	return photoURL, nil
}

func (s *Service) updateFailure(err error) error {
	var se *apiclient.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusBadRequest && len(se.FieldErrors) > 0:
			return failure("Validation failed: "+apiclient.FormatFieldErrors(se.FieldErrors), err)
		case se.StatusCode == http.StatusNotFound:
			return failure(MsgNotFound, model.ErrProfileNotFound)
		default:
			msg := se.Message
			if msg == "" {
				msg = http.StatusText(se.StatusCode)
			}
			return failure(fmt.Sprintf("Failed to update profile (%d): %s", se.StatusCode, msg), err)
		}
	}
	return failure(requestFailed("Failed to update profile", err), err)
}

func (s *Service) uploadPhoto(ctx context.Context, userID int, p Photo, progress apiclient.ProgressFunc) (string, error) {
	var resp uploadResponse
	file := apiclient.File{
		Field:    "file",
		Name:     p.Name,
		Content:  bytes.NewReader(p.Content),
		MimeType: p.MimeType,
	}
	err := s.client.Upload(ctx, "/api/profile/"+strconv.Itoa(userID)+"/photo", file, nil, progress, &resp)
	if err != nil {
		metrics.PhotoUploadsTotal.WithLabelValues("failure").Inc()
		var se *apiclient.StatusError
		if errors.As(err, &se) {
			msg := se.Message
			if msg == "" {
				msg = strings.TrimSpace(string(se.Body))
			}
			if msg == "" {
				msg = http.StatusText(se.StatusCode)
			}
			return "", failure(fmt.Sprintf("Image upload failed (%d): %s", se.StatusCode, msg), err)
		}
		return "", failure(requestFailed("Image upload failed", err), err)
	}

	url := resp.URL
	if url == "" {
		url = resp.AltURL
	}
	if url == "" {
		metrics.PhotoUploadsTotal.WithLabelValues("failure").Inc()
		return "", failure(MsgPhotoURLMissing, model.ErrPhotoURLMissing)
	}
	metrics.PhotoUploadsTotal.WithLabelValues("success").Inc()
	return url, nil
}

// DeletePhoto removes the member's photo. currentPhoto is the URL on record.
func (s *Service) DeletePhoto(ctx context.Context, userID int, currentPhoto string) error {
	if currentPhoto == "" {
		return failure(MsgNoPhoto, nil)
	}
	err := s.client.Delete(ctx, "/api/profile/"+strconv.Itoa(userID)+"/deletePhoto")
	if err == nil {
		s.logger.Info("profile photo deleted", slog.Int("user_id", userID))
		return nil
	}

	var se *apiclient.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusNotFound {
			return failure(MsgPhotoNotFound, model.ErrProfileNotFound)
		}
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.StatusCode)
		}
		return failure(fmt.Sprintf("Delete failed (%d): %s", se.StatusCode, msg), err)
	}
	return failure(requestFailed("Failed to delete profile photo", err), err)
}

// ImageURL resolves a stored photo path against the API base URL
func ImageURL(baseURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(baseURL, "/") + path
}

func requestFailed(fallback string, err error) string {
	if apiclient.IsTransport(err) {
		return "Network error"
	}
	return fallback
}
