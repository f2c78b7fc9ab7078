package pages

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/profile"
	"github.com/mcoot/communityportal/internal/web/templates/components"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// ProfileData holds data for the profile editor
type ProfileData struct {
	layout.PageData
	Form     profile.Form
	PhotoURL string
	// LoadError is set when the profile could not be fetched; the form is not shown
	LoadError string
	Error     string
}

// Profile renders the profile editor
func Profile(data ProfileData) templ.Component {
	return layout.Page(data.PageData, markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<section class="profile"><h1>Edit Profile</h1>`)
		if data.LoadError != "" {
			w.Render(ctx, components.FormError(data.LoadError))
			w.Raw("</section>")
			return
		}
		w.Render(ctx, components.FormError(data.Error))

		w.Raw(`<div class="photo">`)
		if data.PhotoURL != "" {
			w.Raw(`<img id="profile-photo"`)
			w.URLAttr("src", data.PhotoURL)
			w.Raw(` alt="Profile photo">`)
			w.Raw(`<form method="post" action="/edit-profile/photo/delete"><button type="submit">Delete photo</button></form>`)
		} else {
			w.Raw(`<p class="empty">No profile photo.</p>`)
		}
		w.Raw("</div>")

		f := data.Form
		w.Raw(`<form id="profile-form" method="post" action="/edit-profile" enctype="multipart/form-data">`)
		field(w, "fullName", "Full name", "text", f.FullName, "")
		field(w, "email", "Email", "email", f.Email, "")
		field(w, "mobile", "Mobile", "tel", f.Mobile, "")
		field(w, "address", "Address", "text", f.Address, "")
		field(w, "dob", "Date of birth", "date", f.DOB, "")

		w.Raw(`<div class="field"><label for="gender">Gender</label><select id="gender" name="gender">`)
		for _, g := range profile.Genders {
			w.Raw("<option")
			w.Attr("value", g)
			if g == f.Gender {
				w.Raw(" selected")
			}
			w.Raw(">")
			if g == "" {
				w.Text("Not specified")
			} else {
				w.Text(g)
			}
			w.Raw("</option>")
		}
		w.Raw("</select></div>")

		w.Raw(`<div class="field"><label for="communityInfo">Community info</label><textarea id="communityInfo" name="communityInfo">`)
		w.Text(f.CommunityInfo)
		w.Raw("</textarea></div>")

		w.Raw(`<div class="field"><label for="photo">New photo</label><input type="file" id="photo" name="photo"`)
		w.Attr("accept", strings.Join(profile.AllowedPhotoTypes, ","))
		w.Raw("></div>")
		w.Render(ctx, components.UploadProgressTarget())
		w.Raw(`<button type="submit">Save</button></form></section>`)
	}))
}
