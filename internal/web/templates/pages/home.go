package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// HomeData holds data for the home page
type HomeData struct {
	layout.PageData
	Home content.Home
}

// Home renders the single-page home view. Every section carries an id and a
// data-section marker so in-page navigation can find it.
func Home(data HomeData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		h := data.Home

		section(w, "carousel", "carousel", "")
		for _, s := range h.Carousel {
			w.Raw(`<figure class="slide"><img`)
			w.URLAttr("src", s.URL)
			w.Attr("alt", s.Title)
			w.Raw("><figcaption>")
			w.Element("h2", "", s.Title)
			w.Element("p", "", s.Description)
			if s.CtaText != "" {
				w.Raw("<a")
				w.URLAttr("href", s.CtaLink)
				w.Raw(">")
				w.Text(s.CtaText)
				w.Raw("</a>")
			}
			w.Raw("</figcaption></figure>")
		}
		w.Raw("</section>")

		section(w, "information", "information", "About Us")
		for _, b := range h.Information {
			w.Raw(`<article class="info-block">`)
			w.Element("h3", "", b.Title)
			w.Element("p", "", b.Content)
			w.Raw("</article>")
		}
		w.Raw("</section>")

		section(w, "news", "news", "Latest News")
		for _, n := range h.News {
			w.Raw(`<article class="news-item">`)
			w.Element("h3", "", n.Title)
			w.Element("p", "meta", n.NewsDate+" · "+n.Author)
			w.Element("p", "", n.Excerpt)
			w.Raw("<a")
			w.Attr("href", "/news/"+strconv.Itoa(n.ID))
			w.Raw(">Read more</a></article>")
		}
		emptyNotice(w, len(h.News), "No news yet.")
		w.Raw("</section>")

		section(w, "events", "events", "Upcoming Events")
		for _, e := range h.Events {
			w.Raw(`<article class="event">`)
			w.Element("h3", "", e.Title)
			w.Element("p", "meta", e.EventDate+" "+e.EventTime+" · "+e.Location)
			w.Element("p", "", e.Description)
			w.Raw("<a")
			w.Attr("href", "/events/"+strconv.Itoa(e.ID))
			w.Raw(">Details</a></article>")
		}
		emptyNotice(w, len(h.Events), "No upcoming events.")
		w.Raw("</section>")

		section(w, "documents", "downloads", "Downloads")
		w.Raw("<ul>")
		for _, d := range h.Downloads {
			w.Raw("<li><a")
			w.URLAttr("href", d.FileURL)
			w.Raw(">")
			w.Text(d.Title)
			w.Raw("</a> ")
			w.Element("span", "meta", d.FileType+" · "+d.Size)
			w.Raw("</li>")
		}
		w.Raw("</ul>")
		emptyNotice(w, len(h.Downloads), "No documents available.")
		w.Raw("</section>")

		section(w, "committee", "committee", "Committee")
		for _, c := range h.Committee {
			w.Raw(`<div class="member">`)
			w.Element("h3", "", c.Name)
			w.Element("p", "role", c.Role)
			if c.Email != "" {
				w.Raw("<a")
				w.URLAttr("href", "mailto:"+c.Email)
				w.Raw(">")
				w.Text(c.Email)
				w.Raw("</a>")
			}
			w.Raw("</div>")
		}
		w.Raw("</section>")

		section(w, "contact-section", "contact", "Contact")
		w.Raw(`<p>Reach the committee at any of the addresses above, or visit the community hall.</p></section>`)
	}))
}

func section(w *markup.Writer, id, marker, heading string) {
	w.Raw("<section")
	w.Attr("id", id)
	w.Attr("data-section", marker)
	w.Raw(">")
	if heading != "" {
		w.Element("h2", "", heading)
	}
}

func emptyNotice(w *markup.Writer, n int, msg string) {
	if n == 0 {
		w.Element("p", "empty", msg)
	}
}
