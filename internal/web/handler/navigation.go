package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/communityportal/internal/content"
	"github.com/mcoot/communityportal/internal/navigation"
	"github.com/mcoot/communityportal/internal/web/templates/layout"
	"github.com/mcoot/communityportal/internal/web/templates/pages"
)

// NavigationHandler serves /go/{section}: it renders the home view and tells
// the page which section to scroll to
type NavigationHandler struct {
	content      *content.Service
	mountTimeout time.Duration
	logger       *slog.Logger
}

// NewNavigationHandler creates a new NavigationHandler
func NewNavigationHandler(svc *content.Service, mountTimeout time.Duration, logger *slog.Logger) *NavigationHandler {
	return &NavigationHandler{
		content:      svc,
		mountTimeout: mountTimeout,
		logger:       logger,
	}
}

// Go handles GET /go/{section}
func (h *NavigationHandler) Go(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section := mux.Vars(r)["section"]

	view := &homeView{
		handler: h,
		request: r,
		mounts:  navigation.NewMounts(),
		route:   refererRoute(r),
	}
	scroller := &commandScroller{}

	// A visitor already on the home page has the view mounted
	if view.route == navigation.HomeRoute {
		if err := view.mount(ctx); err != nil {
			h.logger.Error("failed to render home view", slog.Any("error", err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	orchestrator := navigation.New(view, view.mounts, scroller, h.logger, navigation.WithMountTimeout(h.mountTimeout))
	outcome, err := orchestrator.ScrollToSection(ctx, section)
	if err != nil && !errors.Is(err, navigation.ErrMountTimeout) {
		h.logger.Error("section navigation failed", slog.String("section", section), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pages.HomeData{
		PageData: pageData(r, "Home"),
		Home:     view.home,
	}
	if outcome == navigation.Scrolled {
		data.Scroll = scroller.command
	}
	render(w, r, http.StatusOK, pages.Home(data))
}

// homeView adapts one request to navigation.Router: navigating home renders
// the home view and announces it as mounted
type homeView struct {
	handler *NavigationHandler
	request *http.Request
	mounts  *navigation.Mounts
	route   string
	home    content.Home
}

func (v *homeView) CurrentRoute() string {
	return v.route
}

func (v *homeView) Navigate(ctx context.Context, path string, state navigation.State) error {
	if path != navigation.HomeRoute {
		return fmt.Errorf("no view for route %q", path)
	}
	v.route = path
	v.handler.logger.Debug("navigating home", slog.String("scroll_to", state.ScrollToID))
	return v.mount(ctx)
}

func (v *homeView) mount(ctx context.Context) error {
	v.home = v.handler.content.Home(ctx)

	var buf bytes.Buffer
	data := pages.HomeData{PageData: pageData(v.request, "Home"), Home: v.home}
	if err := pages.Home(data).Render(ctx, &buf); err != nil {
		return fmt.Errorf("render home: %w", err)
	}
	doc, err := navigation.ParseHTMLBytes(buf.Bytes())
	if err != nil {
		return err
	}
	v.mounts.Mounted(doc)
	return nil
}

// commandScroller turns the scroll into attributes the page acts on once loaded
type commandScroller struct {
	command *layout.ScrollCommand
}

func (s *commandScroller) ScrollTo(_ context.Context, target navigation.Element, offset int, behavior string) error {
	s.command = &layout.ScrollCommand{
		TargetID: target.ID,
		Section:  target.Section,
		Offset:   offset,
		Behavior: behavior,
	}
	return nil
}

// refererRoute is the path of the page that linked here, when it is one of ours
func refererRoute(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return ""
	}
	if u.Path == "" {
		return navigation.HomeRoute
	}
	return u.Path
}
