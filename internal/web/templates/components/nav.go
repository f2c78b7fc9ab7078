package components

import (
	"context"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// Nav renders the header: server-configured menus, then account links
func Nav(menus []model.Menu, sess session.Session) templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<header class="site-header"><nav><a class="brand" href="/">Community Portal</a><ul class="menu">`)
		for _, m := range menus {
			w.Raw("<li><a")
			w.URLAttr("href", m.Path)
			w.Raw(">")
			w.Text(m.Title)
			w.Raw("</a></li>")
		}
		w.Raw(`</ul><ul class="account">`)

		switch {
		case guard.IsAdmin(sess.Identity):
			w.Raw(`<li><a href="/admin/dashboard">Dashboard</a></li>`)
			w.Raw(logoutForm)
		case sess.IsAuthenticated():
			w.Raw(`<li><a href="/edit-profile">My Profile</a></li>`)
			w.Raw(logoutForm)
		default:
			w.Raw(`<li><a href="/login">Login</a></li><li><a href="/signup">Sign up</a></li>`)
		}

		w.Raw("</ul></nav>")
		w.Render(ctx, SessionStatus(sess))
		w.Raw("</header>")
	})
}

const logoutForm = `<li><form method="post" action="/logout"><button type="submit">Logout</button></form></li>`

// FlashMessage is a one-shot notice carried across a redirect
type FlashMessage struct {
	Type    string
	Message string
}

// Flash renders the notice, if any
func Flash(f *FlashMessage) templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		if f == nil || f.Message == "" {
			return
		}
		w.Raw("<div")
		w.Attr("class", "flash flash-"+f.Type)
		w.Attr("role", "status")
		w.Raw(">")
		w.Text(f.Message)
		w.Raw("</div>")
	})
}

// FormError renders an inline error message
func FormError(msg string) templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		if msg != "" {
			w.Raw(`<p class="form-error" role="alert">`)
			w.Text(msg)
			w.Raw("</p>")
		}
	})
}
