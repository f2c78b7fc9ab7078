package layout

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/web/templates/components"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// ScrollCommand asks the page to bring an element into view once loaded
type ScrollCommand struct {
	TargetID string
	// Section is the data-section marker, used when the element has no id
	Section  string
	Offset   int
	Behavior string
}

// PageData holds data common to all pages
type PageData struct {
	Title   string
	Session session.Session
	Menus   []model.Menu
	Flash   *components.FlashMessage
	Scroll  *ScrollCommand
}

// scrollScript performs the scroll described by the body's data-scroll-* attributes
const scrollScript = `<script>
document.addEventListener("DOMContentLoaded", function () {
  var b = document.body.dataset;
  var el = b.scrollTarget ? document.getElementById(b.scrollTarget)
    : b.scrollSection ? document.querySelector('[data-section="' + CSS.escape(b.scrollSection) + '"]')
    : null;
  if (!el) return;
  var top = el.getBoundingClientRect().top + window.pageYOffset - Number(b.scrollOffset || 0);
  window.scrollTo({ top: top, behavior: b.scrollBehavior || "auto" });
});
</script>`

// Page wraps body in the site chrome
func Page(data PageData, body templ.Component) templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.Raw("<title>")
		w.Text(data.Title + " | Community Portal")
		w.Raw("</title>")
		w.Raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script><script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>`)
		w.Raw("</head><body")
		if s := data.Scroll; s != nil && (s.TargetID != "" || s.Section != "") {
			if s.TargetID != "" {
				w.Attr("data-scroll-target", s.TargetID)
			} else {
				w.Attr("data-scroll-section", s.Section)
			}
			w.Attr("data-scroll-offset", strconv.Itoa(s.Offset))
			w.Attr("data-scroll-behavior", s.Behavior)
		}
		w.Raw(">")

		// Other tabs of this browser push session changes here
		w.Raw(`<div hx-ext="sse" sse-connect="/events" sse-swap="session-changed" hx-target="#` + components.SessionStatusID + `" hx-swap="outerHTML"></div>`)

		w.Render(ctx, components.Nav(data.Menus, data.Session))
		w.Raw(`<main class="container">`)
		w.Render(ctx, components.Flash(data.Flash))
		w.Render(ctx, body)
		w.Raw("</main>")
		w.Raw(`<footer class="site-footer"><p>Community Portal</p></footer>`)
		w.Raw(scrollScript)
		w.Raw("</body></html>")
	})
}
