package sse

import (
	"context"
	"log/slog"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/session"
)

// Broadcaster pushes session changes to the browser's open streams so that
// every tab sees a login or logout made in another
type Broadcaster struct {
	hubManager *HubManager
	renderer   *Renderer
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		renderer:   NewRenderer(),
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Attach subscribes to a store's changes. Pass it to Registry.OnOpen.
func (b *Broadcaster) Attach(store *session.Store) {
	clientID := store.ClientID()
	store.Subscribe(func(sess session.Session) {
		b.BroadcastSession(context.Background(), store, sess)
	})
	b.logger.Debug("broadcaster attached", slog.String("client_id", string(clientID)))
}

// BroadcastSession sends a snapshot to the store's browser, if it has any
// open streams
func (b *Broadcaster) BroadcastSession(ctx context.Context, store *session.Store, sess session.Session) {
	hub := b.hubManager.GetHub(store.ClientID())
	if hub == nil {
		return
	}

	event, err := b.renderer.RenderSessionEvent(ctx, sess)
	if err != nil {
		b.logger.Error("sse failed to render session status",
			slog.String("client_id", string(store.ClientID())),
			slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(event.EventName, event.HTML)
}

// UploadProgress returns a progress callback that publishes each step of a
// photo upload to the browser's open streams
func (b *Broadcaster) UploadProgress(ctx context.Context, clientID model.ClientID) apiclient.ProgressFunc {
	return func(percent int) {
		hub := b.hubManager.GetHub(clientID)
		if hub == nil {
			return
		}
		event, err := b.renderer.RenderUploadProgress(ctx, percent)
		if err != nil {
			b.logger.Error("sse failed to render upload progress", slog.Any("error", err))
			return
		}
		hub.BroadcastEvent(event.EventName, event.HTML)
	}
}

// Initial renders the current session as the first event of a new stream
func (b *Broadcaster) Initial(ctx context.Context, store *session.Store) []byte {
	event, err := b.renderer.RenderSessionEvent(ctx, store.Session())
	if err != nil {
		b.logger.Error("sse failed to render session status", slog.Any("error", err))
		return nil
	}
	return event.Message()
}
