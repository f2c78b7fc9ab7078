package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/gateway"
	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/web/middleware"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// Flash messages
const (
	MsgSignupSuccess = "Signup successful. Please login."
	MsgLoggedOut     = "You have been logged out"
)

// AuthHandler handles authentication pages and actions
type AuthHandler struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(client *apiclient.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		client: client,
		logger: logger,
	}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSession(r.Context()); sess.IsAuthenticated() {
		// Already logged in, send them where they belong
		http.Redirect(w, r, landingRoute(r), http.StatusSeeOther)
		return
	}

	render(w, r, http.StatusOK, pages.Login(pages.LoginData{PageData: pageData(r, "Login")}))
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "Invalid form data", "")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	store := middleware.GetStore(r.Context())
	result := gateway.New(h.client, store, h.logger).Login(r.Context(), email, password)
	if !result.Success {
		h.renderLoginError(w, r, result.Message, email)
		return
	}

	name := ""
	if identity := store.Session().Identity; identity != nil {
		name = identity.Name
	}
	middleware.SetFlash(w, "success", strings.TrimSpace("Welcome back, "+name)+"!")
	http.Redirect(w, r, landingRoute(r), http.StatusSeeOther)
}

// SignupPage renders the registration page
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSession(r.Context()); sess.IsAuthenticated() {
		http.Redirect(w, r, landingRoute(r), http.StatusSeeOther)
		return
	}

	render(w, r, http.StatusOK, pages.Signup(pages.SignupData{PageData: pageData(r, "Sign up")}))
}

// Signup handles registration form submission. It never signs the visitor in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSignupError(w, r, pages.SignupData{Error: "Invalid form data"})
		return
	}

	req := gateway.SignupRequest{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
	}

	result := gateway.New(h.client, middleware.GetStore(r.Context()), h.logger).Signup(r.Context(), req)
	if !result.Success {
		h.renderSignupError(w, r, pages.SignupData{
			Name:        req.Name,
			Email:       req.Email,
			Error:       result.Message,
			FieldErrors: result.FieldErrors,
		})
		return
	}

	middleware.SetFlash(w, "success", MsgSignupSuccess)
	http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
}

// Logout clears the session and returns to the login page
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := gateway.New(h.client, middleware.GetStore(r.Context()), h.logger).Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", slog.Any("error", err))
		middleware.SetFlash(w, "error", "Logout failed, please try again")
		http.Redirect(w, r, guard.HomeRoute, http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "info", MsgLoggedOut)
	http.Redirect(w, r, guard.LoginRoute, http.StatusSeeOther)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	data := pages.LoginData{
		PageData: pageData(r, "Login"),
		Email:    email,
		Error:    errorMsg,
	}
	render(w, r, http.StatusOK, pages.Login(data))
}

func (h *AuthHandler) renderSignupError(w http.ResponseWriter, r *http.Request, data pages.SignupData) {
	data.PageData = pageData(r, "Sign up")
	render(w, r, http.StatusOK, pages.Signup(data))
}

// landingRoute is where the current session belongs: admins go to the
// dashboard, everyone else to the home page
func landingRoute(r *http.Request) string {
	if d := guard.Evaluate(middleware.GetSession(r.Context()), guard.NonAdmin); !d.Admitted() {
		return d.Location()
	}
	return guard.HomeRoute
}
