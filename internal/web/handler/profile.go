package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/profile"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/web/middleware"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// ProfileRoute is the profile editor
const ProfileRoute = "/edit-profile"

// ProgressPublisher reports photo upload progress to a browser
type ProgressPublisher interface {
	UploadProgress(ctx context.Context, clientID model.ClientID) apiclient.ProgressFunc
}

// ProfileHandler handles the member's profile editor
type ProfileHandler struct {
	client   *apiclient.Client
	clock    clock.Clock
	progress ProgressPublisher
	logger   *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler. progress may be nil.
func NewProfileHandler(client *apiclient.Client, clk clock.Clock, progress ProgressPublisher, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		client:   client,
		clock:    clk,
		progress: progress,
		logger:   logger,
	}
}

func (h *ProfileHandler) service(store *session.Store) *profile.Service {
	return profile.NewService(h.client.WithCredentials(store), h.clock, h.logger)
}

// Edit renders GET /edit-profile
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	data := pages.ProfileData{PageData: pageData(r, "Edit Profile")}

	store := middleware.GetStore(r.Context())
	identity := store.Session().Identity
	if identity == nil {
		data.LoadError = "Your session has no user details. Please log in again."
		render(w, r, http.StatusOK, pages.Profile(data))
		return
	}

	p, err := h.service(store).Load(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Warn("failed to load profile", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		data.LoadError = profile.Message(err)
		render(w, r, http.StatusOK, pages.Profile(data))
		return
	}

	data.Form = profile.FormFromProfile(p)
	if data.Form.Email == "" {
		data.Form.Email = identity.Email
	}
	data.PhotoURL = profile.ImageURL(h.client.BaseURL(), p.ProfilePhotoPath)
	render(w, r, http.StatusOK, pages.Profile(data))
}

// Save handles POST /edit-profile, a multipart form with an optional photo
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	identity := store.Session().Identity
	if identity == nil {
		http.Redirect(w, r, ProfileRoute, http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, profile.MaxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(profile.MaxPhotoBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderSaveError(w, r, profile.Form{}, "", "File size must be <= 5MB")
		return
	}

	form := profile.Form{
		FullName:      r.FormValue("fullName"),
		Email:         identity.Email,
		Mobile:        r.FormValue("mobile"),
		Address:       r.FormValue("address"),
		DOB:           r.FormValue("dob"),
		Gender:        r.FormValue("gender"),
		CommunityInfo: r.FormValue("communityInfo"),
	}

	photo, err := readPhoto(r)
	if err != nil {
		h.renderSaveError(w, r, form, "", "Could not read the uploaded photo")
		return
	}

	svc := h.service(store)
	current, err := svc.Load(r.Context(), identity.UserID)
	if err != nil {
		h.renderSaveError(w, r, form, "", profile.Message(err))
		return
	}

	req := profile.SaveRequest{
		UserID:       identity.UserID,
		Email:        identity.Email,
		Form:         form,
		CurrentPhoto: current.ProfilePhotoPath,
		NewPhoto:     photo,
	}
	if h.progress != nil {
		req.Progress = h.progress.UploadProgress(r.Context(), store.ClientID())
	}
	photoPath, err := svc.Save(r.Context(), req)
	if err != nil {
		h.logger.Info("profile save rejected", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		h.renderSaveError(w, r, form, photoPath, profile.Message(err))
		return
	}

	middleware.SetFlash(w, "success", profile.MsgSaved)
	http.Redirect(w, r, ProfileRoute, http.StatusSeeOther)
}

// DeletePhoto handles POST /edit-profile/photo/delete
func (h *ProfileHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	identity := store.Session().Identity
	if identity == nil {
		http.Redirect(w, r, ProfileRoute, http.StatusSeeOther)
		return
	}

	svc := h.service(store)
	current, err := svc.Load(r.Context(), identity.UserID)
	if err == nil {
		err = svc.DeletePhoto(r.Context(), identity.UserID, current.ProfilePhotoPath)
	}
	if err != nil {
		if !errors.Is(err, model.ErrProfileNotFound) {
			h.logger.Warn("failed to delete photo", slog.Int("user_id", identity.UserID), slog.Any("error", err))
		}
		middleware.SetFlash(w, "error", profile.Message(err))
		http.Redirect(w, r, ProfileRoute, http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", profile.MsgPhotoDeleted)
	http.Redirect(w, r, ProfileRoute, http.StatusSeeOther)
}

func (h *ProfileHandler) renderSaveError(w http.ResponseWriter, r *http.Request, form profile.Form, photoPath, msg string) {
	render(w, r, http.StatusOK, pages.Profile(pages.ProfileData{
		PageData: pageData(r, "Edit Profile"),
		Form:     form,
		PhotoURL: profile.ImageURL(h.client.BaseURL(), photoPath),
		Error:    msg,
	}))
}

// readPhoto returns the chosen photo, or nil when the field was left empty
func readPhoto(r *http.Request) (*profile.Photo, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(content)
	}
	mimeType, _, _ = strings.Cut(mimeType, ";")

	return &profile.Photo{
		Name:     header.Filename,
		MimeType: strings.TrimSpace(mimeType),
		Content:  content,
	}, nil
}
