package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/web/templates/components"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// LoginData holds data for the login page
type LoginData struct {
	layout.PageData
	Email string
	Error string
}

// Login renders the login form
func Login(data LoginData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="auth"><h1>Login</h1>`)
		w.Render(ctx, components.FormError(data.Error))
		w.Raw(`<form id="login-form" method="post" action="/login">`)
		w.Raw(`<label for="email">Email</label><input type="email" id="email" name="email" required`)
		w.Attr("value", data.Email)
		w.Raw(`><label for="password">Password</label><input type="password" id="password" name="password" required>`)
		w.Raw(`<button type="submit">Login</button></form>`)
		w.Raw(`<p>No account yet? <a href="/signup">Sign up</a></p></section>`)
	}))
}

// SignupData holds data for the signup page
type SignupData struct {
	layout.PageData
	Name        string
	Email       string
	Error       string
	FieldErrors map[string]string
}

// Signup renders the registration form
func Signup(data SignupData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="auth"><h1>Sign up</h1>`)
		w.Render(ctx, components.FormError(data.Error))
		w.Raw(`<form id="signup-form" method="post" action="/signup">`)
		field(w, "name", "Full name", "text", data.Name, data.FieldErrors["name"])
		field(w, "email", "Email", "email", data.Email, data.FieldErrors["email"])
		field(w, "password", "Password", "password", "", data.FieldErrors["password"])
		field(w, "confirmPassword", "Confirm password", "password", "", data.FieldErrors["confirmPassword"])
		w.Raw(`<button type="submit">Sign up</button></form>`)
		w.Raw(`<p>Already registered? <a href="/login">Login</a></p></section>`)
	}))
}

// field renders a labelled input with its validation message
func field(w *markup.Writer, name, label, inputType, value, fieldErr string) {
	w.Raw(`<div class="field"><label`)
	w.Attr("for", name)
	w.Raw(">")
	w.Text(label)
	w.Raw("</label><input")
	w.Attr("type", inputType)
	w.Attr("id", name)
	w.Attr("name", name)
	if value != "" {
		w.Attr("value", value)
	}
	w.Raw(">")
	if fieldErr != "" {
		w.Raw("<span")
		w.Attr("class", "field-error")
		w.Attr("data-field", name)
		w.Raw(">")
		w.Text(fieldErr)
		w.Raw("</span>")
	}
	w.Raw("</div>")
}
