package components

import (
	"context"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// SessionStatusID is the element replaced when the session changes in another tab
const SessionStatusID = "session-status"

// SessionStatus shows who is signed in
func SessionStatus(sess session.Session) templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw("<div")
		w.Attr("id", SessionStatusID)
		w.Attr("data-authenticated", boolString(sess.IsAuthenticated()))
		w.Raw(">")
		switch {
		case sess.Identity != nil:
			w.Raw(`<span class="signed-in">Signed in as `)
			w.Text(displayName(sess.Identity))
			w.Raw("</span>")
			if guard.IsAdmin(sess.Identity) {
				w.Element("span", "badge", "Admin")
			}
		case sess.IsAuthenticated():
			w.Element("span", "signed-in", "Signed in")
		default:
			w.Element("span", "signed-out", "Not signed in")
		}
		w.Raw("</div>")
	})
}

func displayName(i *model.Identity) string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
