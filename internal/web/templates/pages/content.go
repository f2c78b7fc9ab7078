package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// NewsData holds data for a news article page
type NewsData struct {
	layout.PageData
	Item model.NewsItem
}

// News renders one news article
func News(data NewsData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		n := data.Item
		w.Raw(`<article class="news-detail">`)
		w.Element("h1", "", n.Title)
		w.Element("p", "meta", n.NewsDate+" · "+n.Author+" · "+n.Category)
		if n.ImageURL != "" {
			w.Raw("<img")
			w.URLAttr("src", n.ImageURL)
			w.Attr("alt", n.Title)
			w.Raw(">")
		}
		body := n.Content
		if body == "" {
			body = n.Excerpt
		}
		w.Element("div", "body", body)
		w.Raw(`<a href="/go/news">Back to news</a></article>`)
	}))
}

// EventData holds data for an event page
type EventData struct {
	layout.PageData
	Item model.Event
}

// Event renders one event
func Event(data EventData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		e := data.Item
		w.Raw(`<article class="event-detail">`)
		w.Element("h1", "", e.Title)
		w.Element("p", "meta", e.EventDate+" "+e.EventTime+" · "+e.Location)
		if e.Status != "" {
			w.Element("span", "badge", e.Status)
		}
		body := e.Content
		if body == "" {
			body = e.Description
		}
		w.Element("div", "body", body)
		w.Raw(`<a href="/go/events">Back to events</a></article>`)
	}))
}

// ErrorData holds data for an error page
type ErrorData struct {
	layout.PageData
	Message string
}

// Error renders a plain error page
func Error(data ErrorData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="error">`)
		w.Element("h1", "", data.Title)
		w.Element("p", "", data.Message)
		w.Raw(`<a href="/">Return to home</a></section>`)
	}))
}
