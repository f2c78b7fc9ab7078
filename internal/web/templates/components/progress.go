package components

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/communityportal/internal/web/templates/markup"
)

// Photo upload progress: the element it fills and the stream event feeding it
const (
	UploadProgressID    = "upload-progress"
	UploadProgressEvent = "upload-progress"
)

// UploadProgressTarget listens on the browser's event stream and shows the
// progress of a photo upload while the profile form is being saved
func UploadProgressTarget() templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		w.Raw(`<div hx-ext="sse" sse-connect="/events"><div`)
		w.Attr("id", UploadProgressID)
		w.Attr("sse-swap", UploadProgressEvent)
		w.Raw(` hx-swap="innerHTML"></div></div>`)
	})
}

// UploadProgress is the content of the progress element
func UploadProgress(percent int) templ.Component {
	return markup.Component(func(ctx context.Context, w *markup.Writer) {
		pct := strconv.Itoa(percent)
		w.Raw(`<progress max="100"`)
		w.Attr("value", pct)
		w.Raw(`></progress>`)
		w.Element("span", "upload-percent", pct+"%")
	})
}
