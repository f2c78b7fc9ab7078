package sse

import (
	"bytes"
	"context"

	"github.com/mcoot/communityportal/internal/session"
	"github.com/mcoot/communityportal/internal/web/templates/components"
)

// Event names
const (
	// EventSessionChanged carries the re-rendered session status
	EventSessionChanged = "session-changed"
	// EventUploadProgress carries the profile photo upload progress
	EventUploadProgress = components.UploadProgressEvent
)

// EventData is one SSE event ready to send
type EventData struct {
	EventName string
	HTML      string
}

// Renderer turns session snapshots into HTML fragments
type Renderer struct{}

// NewRenderer creates a new Renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderSessionStatus renders the session status component
func (r *Renderer) RenderSessionStatus(ctx context.Context, sess session.Session) (string, error) {
	var buf bytes.Buffer
	if err := components.SessionStatus(sess).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderSessionEvent converts a session snapshot into the event sent to
// every tab of the browser
func (r *Renderer) RenderSessionEvent(ctx context.Context, sess session.Session) (EventData, error) {
	html, err := r.RenderSessionStatus(ctx, sess)
	if err != nil {
		return EventData{}, err
	}
	return EventData{EventName: EventSessionChanged, HTML: html}, nil
}

// RenderUploadProgress renders the progress of a photo upload
func (r *Renderer) RenderUploadProgress(ctx context.Context, percent int) (EventData, error) {
	var buf bytes.Buffer
	if err := components.UploadProgress(percent).Render(ctx, &buf); err != nil {
		return EventData{}, err
	}
	return EventData{EventName: EventUploadProgress, HTML: buf.String()}, nil
}

// Message formats the event for the wire
func (e EventData) Message() []byte {
	return formatSSEMessage(e.EventName, e.HTML)
}

// WrapForOOBSwap wraps HTML in a div with hx-swap-oob for out-of-band swaps
func WrapForOOBSwap(id, html string) string {
	return `<div id="` + id + `" hx-swap-oob="true">` + html + `</div>`
}
