// Package stubapi is an in-process stand-in for the remote REST API. It
// backs local development and the portal's integration tests.
package stubapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/api/response"
	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/model"
)

// Seeded accounts
const (
	AdminEmail     = "admin@example.com"
	AdminPassword  = "admin123"
	MemberEmail    = "jane@example.com"
	MemberPassword = "secret123"
)

const maxPhotoBytes = 5 << 20

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Config configures the stand-in API
type Config struct {
	Logger   *slog.Logger
	Clock    clock.Clock
	Secret   []byte
	TokenTTL time.Duration
	// AutoApprove lets new signups log in without admin approval
	AutoApprove bool
	// PasswordCost overrides the bcrypt cost; tests use bcrypt.MinCost
	PasswordCost int
}

type photo struct {
	contentType string
	data        []byte
}

// Server is the stand-in API
type Server struct {
	accounts *Accounts
	content  *Content
	validate *validator.Validate
	logger   *slog.Logger

	mu     sync.RWMutex
	photos map[string]photo
}

// New creates a stand-in API with seeded content and no accounts
func New(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	accounts := NewAccounts(cfg.Clock, cfg.Secret, cfg.TokenTTL, cfg.AutoApprove)
	if cfg.PasswordCost > 0 {
		accounts.cost = cfg.PasswordCost
	}
	return &Server{
		accounts: accounts,
		content:  SeedContent(),
		validate: validator.New(),
		logger:   cfg.Logger.With(slog.String("component", "stubapi")),
		photos:   make(map[string]photo),
	}
}

// Accounts exposes the account registry
func (s *Server) Accounts() *Accounts {
	return s.accounts
}

// Content exposes the content store
func (s *Server) Content() *Content {
	return s.content
}

// SeedAccounts registers the admin and member accounts
func (s *Server) SeedAccounts() error {
	if _, err := s.accounts.Register("Portal Admin", AdminEmail, AdminPassword, "Admin"); err != nil {
		return err
	}
	acct, err := s.accounts.Register("Jane Doe", MemberEmail, MemberPassword, "User")
	if err != nil {
		return err
	}
	return s.accounts.Approve(acct.Profile.UserID)
}

// Handler returns the API's routes. Paths match case-insensitively, as the
// real API's do.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(s.logger, middleware.DefaultPanicHandler))
	r.Use(middleware.Logging(s.logger))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", s.signup).Methods(http.MethodPost)

	api.HandleFunc("/home/news/{id:[0-9]+}", s.newsItem).Methods(http.MethodGet)
	api.HandleFunc("/home/events/{id:[0-9]+}", s.event).Methods(http.MethodGet)
	api.HandleFunc("/home/{section}", s.homeSection).Methods(http.MethodGet)

	api.HandleFunc("/menu", s.menus).Methods(http.MethodGet)
	api.HandleFunc("/menu/{id:[0-9]+}", s.requireAdmin(s.deleteMenu)).Methods(http.MethodDelete)

	api.HandleFunc("/admin/users/pending", s.requireAdmin(s.pendingUsers)).Methods(http.MethodGet)
	api.HandleFunc("/admin/{resource}/{id:[0-9]+}", s.requireAdmin(s.deleteContent)).Methods(http.MethodDelete)

	api.HandleFunc("/profile/get/{id:[0-9]+}", s.requireOwner(s.getProfile)).Methods(http.MethodGet)
	api.HandleFunc("/profile/update/{id:[0-9]+}", s.requireOwner(s.updateProfile)).Methods(http.MethodPut)
	api.HandleFunc("/profile/{id:[0-9]+}/photo", s.requireOwner(s.uploadPhoto)).Methods(http.MethodPost)
	api.HandleFunc("/profile/{id:[0-9]+}/deletephoto", s.requireOwner(s.deletePhoto)).Methods(http.MethodDelete)

	r.HandleFunc("/uploads/{name}", s.servePhoto).Methods(http.MethodGet)

	return lowercaseAPIPaths(r)
}

func lowercaseAPIPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(strings.ToLower(r.URL.Path), "/api/") {
			r.URL.Path = strings.ToLower(r.URL.Path)
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}

// Auth

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword"`
}

type authResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message,omitempty"`
	Token     string `json:"token,omitempty"`
	UserID    int    `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, authResponse{Message: "Invalid request"})
		return
	}

	token, acct, err := s.accounts.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, ErrPendingApproval):
		response.JSON(w, http.StatusForbidden, authResponse{Message: "Your account is awaiting approval"})
		return
	case err != nil:
		response.JSON(w, http.StatusUnauthorized, authResponse{Message: "Invalid email or password"})
		return
	}

	s.logger.Info("login", slog.Int("user_id", acct.Profile.UserID))
	response.JSON(w, http.StatusOK, authResponse{
		IsSuccess: true,
		Message:   "Login successful",
		Token:     token,
		UserID:    acct.Profile.UserID,
		Name:      acct.Profile.Name,
		Role:      acct.Role,
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, authResponse{Message: "Invalid request"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		response.JSON(w, http.StatusBadRequest, authResponse{Message: "Name, a valid email and a password of at least 6 characters are required"})
		return
	}
	if req.Password != req.ConfirmPassword {
		response.JSON(w, http.StatusBadRequest, authResponse{Message: "Passwords do not match"})
		return
	}

	acct, err := s.accounts.Register(req.Name, req.Email, req.Password, "User")
	if errors.Is(err, ErrEmailExists) {
		response.JSON(w, http.StatusBadRequest, authResponse{Message: "Email is already registered"})
		return
	}
	if err != nil {
		response.JSON(w, http.StatusInternalServerError, authResponse{Message: "Signup failed"})
		return
	}

	msg := "Signup successful. Please login."
	if acct.Status == StatusPending {
		msg = "Signup successful. Your account is awaiting approval."
	}
	response.JSON(w, http.StatusOK, authResponse{IsSuccess: true, Message: msg})
}

// Public content

func (s *Server) homeSection(w http.ResponseWriter, r *http.Request) {
	section := mux.Vars(r)["section"]
	if section == "menu" {
		notFound(w)
		return
	}
	items, ok := s.content.List(section)
	if !ok {
		notFound(w)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (s *Server) newsItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.content.NewsItem(pathID(r))
	if !ok {
		notFound(w)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (s *Server) event(w http.ResponseWriter, r *http.Request) {
	item, ok := s.content.Event(pathID(r))
	if !ok {
		notFound(w)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (s *Server) menus(w http.ResponseWriter, r *http.Request) {
	items, _ := s.content.List("menu")
	response.JSON(w, http.StatusOK, items)
}

// Admin

func (s *Server) deleteMenu(w http.ResponseWriter, r *http.Request, _ *Account) {
	if !s.content.Delete("menu", pathID(r)) {
		notFound(w)
		return
	}
	response.NoContent(w)
}

func (s *Server) deleteContent(w http.ResponseWriter, r *http.Request, _ *Account) {
	resource := mux.Vars(r)["resource"]
	if resource == "menu" || !s.content.Delete(resource, pathID(r)) {
		notFound(w)
		return
	}
	response.NoContent(w)
}

func (s *Server) pendingUsers(w http.ResponseWriter, r *http.Request, _ *Account) {
	response.JSON(w, http.StatusOK, s.accounts.Pending())
}

// Profile

type profileUpdate struct {
	Name             string  `json:"Name"`
	Email            string  `json:"Email"`
	Mobile           string  `json:"Mobile"`
	Address          string  `json:"Address"`
	DOB              *string `json:"DOB"`
	Gender           string  `json:"Gender"`
	CommunityInfo    string  `json:"CommunityInfo"`
	ProfilePhotoPath string  `json:"ProfilePhotoPath"`
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request, _ *Account) {
	acct, err := s.accounts.Get(pathID(r))
	if err != nil {
		notFound(w)
		return
	}
	response.JSON(w, http.StatusOK, acct.Profile)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, _ *Account) {
	var req profileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}

	fieldErrors := map[string][]string{}
	if len(strings.TrimSpace(req.Name)) < 2 {
		fieldErrors["Name"] = append(fieldErrors["Name"], "The Name field must be at least 2 characters.")
	}
	if req.Mobile != "" && !mobilePattern.MatchString(req.Mobile) {
		fieldErrors["Mobile"] = append(fieldErrors["Mobile"], "The Mobile field must be 10 digits.")
	}
	if len(fieldErrors) > 0 {
		response.JSON(w, http.StatusBadRequest, map[string]any{"title": "One or more validation errors occurred.", "errors": fieldErrors})
		return
	}

	_, err := s.accounts.UpdateProfile(pathID(r), func(p *model.Profile) {
		p.Name = strings.TrimSpace(req.Name)
		if req.Email != "" {
			p.Email = req.Email
		}
		p.Mobile = req.Mobile
		p.Address = req.Address
		p.DOB = req.DOB
		p.Gender = req.Gender
		p.CommunityInfo = req.CommunityInfo
		p.ProfilePhotoPath = req.ProfilePhotoPath
	})
	if err != nil {
		notFound(w)
		return
	}
	response.NoContent(w)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request, _ *Account) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+64<<10)
	file, header, err := r.FormFile("file")
	if err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil || len(data) > maxPhotoBytes {
		response.JSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "File size must be <= 5MB"})
		return
	}
	if _, err := s.accounts.Get(pathID(r)); err != nil {
		notFound(w)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	name := uuid.NewString() + strings.ToLower(path.Ext(header.Filename))

	s.mu.Lock()
	s.photos[name] = photo{contentType: contentType, data: data}
	s.mu.Unlock()

	response.JSON(w, http.StatusOK, map[string]string{"url": "/uploads/" + name})
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request, _ *Account) {
	var previous string
	_, err := s.accounts.UpdateProfile(pathID(r), func(p *model.Profile) {
		previous = p.ProfilePhotoPath
		p.ProfilePhotoPath = ""
	})
	if err != nil {
		notFound(w)
		return
	}

	if name, ok := strings.CutPrefix(previous, "/uploads/"); ok {
		s.mu.Lock()
		delete(s.photos, name)
		s.mu.Unlock()
	}
	response.NoContent(w)
}

func (s *Server) servePhoto(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	p, ok := s.photos[mux.Vars(r)["name"]]
	s.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", p.contentType)
	_, _ = w.Write(p.data)
}

// Authorization

type accountHandler func(w http.ResponseWriter, r *http.Request, acct *Account)

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*Account, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		response.JSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return nil, false
	}
	acct, err := s.accounts.Verify(token)
	if err != nil {
		response.JSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return nil, false
	}
	return acct, true
}

func (s *Server) requireAdmin(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if !strings.EqualFold(acct.Role, model.RoleAdmin) {
			response.JSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
			return
		}
		next(w, r, acct)
	}
}

// requireOwner admits the profile's owner and administrators
func (s *Server) requireOwner(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := s.authenticate(w, r)
		if !ok {
			return
		}
		if acct.Profile.UserID != pathID(r) && !strings.EqualFold(acct.Role, model.RoleAdmin) {
			response.JSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
			return
		}
		next(w, r, acct)
	}
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func notFound(w http.ResponseWriter) {
	response.JSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
}
