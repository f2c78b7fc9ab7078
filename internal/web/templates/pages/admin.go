package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// DashboardData holds data for the admin landing page
type DashboardData struct {
	layout.PageData
	Dashboard content.Dashboard
}

// Dashboard renders the admin landing page
func Dashboard(data DashboardData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="admin"><h1>Dashboard</h1>`)
		adminNav(w)
		w.Raw(`<ul class="counts">`)
		for _, r := range content.Resources {
			w.Raw("<li")
			w.Attr("data-resource", string(r))
			w.Raw("><a")
			w.Attr("href", "/admin/"+string(r))
			w.Raw(">")
			w.Text(r.Title())
			w.Raw("</a> ")
			w.Element("span", "count", strconv.Itoa(data.Dashboard.Counts[r]))
			w.Raw("</li>")
		}
		w.Raw(`<li data-resource="users"><a href="/admin/users">Pending users</a> `)
		w.Element("span", "count", strconv.Itoa(data.Dashboard.PendingUsers))
		w.Raw("</li></ul></section>")
	}))
}

// ListData holds data for an admin collection page
type ListData struct {
	layout.PageData
	Resource content.Resource
	Rows     []content.Row
	Error    string
}

// List renders an admin collection with delete actions
func List(data ListData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="admin">`)
		w.Element("h1", "", data.Resource.Title())
		adminNav(w)
		if data.Error != "" {
			w.Element("p", "form-error", data.Error)
		}
		w.Raw(`<table class="rows"><thead><tr><th>ID</th><th>Title</th><th></th><th></th></tr></thead><tbody>`)
		for _, row := range data.Rows {
			id := strconv.Itoa(row.ID)
			w.Raw("<tr")
			w.Attr("data-id", id)
			w.Raw(">")
			w.Element("td", "", id)
			w.Element("td", "", row.Title)
			w.Element("td", "", row.Detail)
			w.Raw("<td><form")
			w.Attr("method", "post")
			w.Attr("action", "/admin/"+string(data.Resource)+"/"+id+"/delete")
			w.Raw(`><button type="submit">Delete</button></form></td></tr>`)
		}
		w.Raw("</tbody></table>")
		if len(data.Rows) == 0 && data.Error == "" {
			w.Element("p", "empty", "Nothing here yet.")
		}
		w.Raw("</section>")
	}))
}

// UsersData holds data for the pending approvals page
type UsersData struct {
	layout.PageData
	Users []model.PendingUser
	Error string
}

// Users renders the registrations awaiting approval
func Users(data UsersData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="admin"><h1>Pending users</h1>`)
		adminNav(w)
		if data.Error != "" {
			w.Element("p", "form-error", data.Error)
		}
		w.Raw(`<table class="users"><tbody>`)
		for _, u := range data.Users {
			w.Raw("<tr")
			w.Attr("data-id", strconv.Itoa(u.ID))
			w.Raw(">")
			w.Element("td", "", u.FullName)
			w.Element("td", "", u.Email)
			w.Element("td", "", u.Mobile)
			w.Element("td", "", u.Status)
			w.Raw("</tr>")
		}
		w.Raw("</tbody></table>")
		if len(data.Users) == 0 && data.Error == "" {
			w.Element("p", "empty", "No registrations are waiting.")
		}
		w.Raw("</section>")
	}))
}

func adminNav(w *markup.Writer) {
	w.Raw(`<nav class="admin-nav"><a href="/admin/dashboard">Dashboard</a>`)
	for _, r := range content.Resources {
		w.Raw("<a")
		w.Attr("href", "/admin/"+string(r))
		w.Raw(">")
		w.Text(r.Title())
		w.Raw("</a>")
	}
	w.Raw(`<a href="/admin/users">Users</a></nav>`)
}
