// Package navigation scrolls the home view to a named section, navigating
// there first when the request comes from another route.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/communityportal/internal/metrics"
)

// HomeRoute is the only route that carries sections
const HomeRoute = "/"

// Scroll parameters applied to every match
const (
	// HeaderOffset is the room left for the fixed header, in pixels
	HeaderOffset   = 88
	BehaviorSmooth = "smooth"
)

// DefaultMountTimeout bounds the wait for the home view after a cross-route navigation
const DefaultMountTimeout = 2 * time.Second

// ErrMountTimeout is returned when the home view did not report mounting in time
var ErrMountTimeout = errors.New("home view did not mount in time")

var aliases = map[string]string{
	"about":   "information",
	"contact": "contact",
}

// Resolve maps a logical section name to the concrete section id.
// Unmapped names pass through unchanged.
func Resolve(logicalID string) string {
	if id, ok := aliases[logicalID]; ok {
		return id
	}
	return logicalID
}

// State is the transient state carried by a navigation
type State struct {
	ScrollToID string
}

// Router is the navigation surface the orchestrator drives
type Router interface {
	CurrentRoute() string
	Navigate(ctx context.Context, path string, state State) error
}

// Scroller performs the actual scroll once a target is found
type Scroller interface {
	ScrollTo(ctx context.Context, target Element, offset int, behavior string) error
}

// Outcome describes what a ScrollToSection call did
type Outcome int

const (
	Scrolled Outcome = iota
	NoMatch
	NotMounted
)

func (o Outcome) String() string {
	switch o {
	case Scrolled:
		return "scrolled"
	case NoMatch:
		return "no_match"
	case NotMounted:
		return "not_mounted"
	default:
		return "unknown"
	}
}

// Orchestrator coordinates the router, the home view's mount signal and the scroller
type Orchestrator struct {
	router       Router
	mounts       *Mounts
	scroller     Scroller
	mountTimeout time.Duration
	logger       *slog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMountTimeout overrides DefaultMountTimeout
func WithMountTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.mountTimeout = d
		}
	}
}

// New creates an Orchestrator
func New(router Router, mounts *Mounts, scroller Scroller, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		router:       router,
		mounts:       mounts,
		scroller:     scroller,
		mountTimeout: DefaultMountTimeout,
		logger:       logger.With(slog.String("component", "navigation")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScrollToSection brings the section into view. A missing section is a
// logged no-op, not an error. Errors are reserved for navigation failures
// and the mount wait expiring.
func (o *Orchestrator) ScrollToSection(ctx context.Context, logicalID string) (Outcome, error) {
	target := Resolve(logicalID)

	var (
		doc Document
		err error
	)
	if o.router.CurrentRoute() == HomeRoute {
		var gen uint64
		doc, gen = o.mounts.Current()
		if doc == nil {
			doc, err = o.await(ctx, gen)
		}
	} else {
		gen := o.mounts.Generation()
		if err := o.router.Navigate(ctx, HomeRoute, State{ScrollToID: target}); err != nil {
			return o.record(NotMounted), fmt.Errorf("navigate home: %w", err)
		}
		doc, err = o.await(ctx, gen)
	}
	if err != nil {
		o.logger.Warn("section scroll abandoned", slog.String("section", target), slog.Any("error", err))
		return o.record(NotMounted), err
	}

	el, tier, ok := Locate(doc, target)
	if !ok {
		o.logger.Info("section not found", slog.String("section", target))
		return o.record(NoMatch), nil
	}

	o.logger.Debug("scrolling to section",
		slog.String("section", target),
		slog.String("matched_by", tier.String()),
		slog.String("element_id", el.ID),
	)
	if err := o.scroller.ScrollTo(ctx, el, HeaderOffset, BehaviorSmooth); err != nil {
		return o.record(NoMatch), fmt.Errorf("scroll to %q: %w", target, err)
	}
	return o.record(Scrolled), nil
}

func (o *Orchestrator) await(ctx context.Context, after uint64) (Document, error) {
	waitCtx, cancel := context.WithTimeout(ctx, o.mountTimeout)
	defer cancel()

	doc, err := o.mounts.Wait(waitCtx, after)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, ErrMountTimeout
	}
	return doc, err
}

func (o *Orchestrator) record(outcome Outcome) Outcome {
	metrics.SectionScrollsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome
}

// Tier says which lookup rule matched
type Tier int

const (
	TierExact Tier = iota
	TierPartial
	TierMarker
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "id"
	case TierPartial:
		return "partial_id"
	case TierMarker:
		return "data_section"
	default:
		return "unknown"
	}
}

// Locate finds the section element: exact id first, then an id containing the
// name, then a data-section marker. The first tier with a match wins.
func Locate(doc Document, sectionID string) (Element, Tier, bool) {
	if doc == nil || sectionID == "" {
		return Element{}, 0, false
	}
	v := quoteAttr(sectionID)
	selectors := []struct {
		tier     Tier
		selector string
	}{
		{TierExact, "[id=" + v + "]"},
		{TierPartial, "[id*=" + v + "]"},
		{TierMarker, "[data-section=" + v + "]"},
	}
	for _, s := range selectors {
		if el, ok := doc.Find(s.selector); ok {
			return el, s.tier, true
		}
	}
	return Element{}, 0, false
}

func quoteAttr(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}
