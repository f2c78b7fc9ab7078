package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/communityportal/internal/testutil"
)

const homeWithSections = `<html><body>
<header id="top"></header>
<section id="news" data-section="news"></section>
<section id="events-list"></section>
<section data-section="downloads"></section>
<section id="information" data-section="information"></section>
</body></html>`

const homeWithoutInformation = `<html><body>
<section id="news" data-section="news"></section>
</body></html>`

type fakeRouter struct {
	mu       sync.Mutex
	route    string
	mounts   *Mounts
	doc      Document
	visits   []State
	failWith error
}

func (r *fakeRouter) CurrentRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

func (r *fakeRouter) Navigate(ctx context.Context, path string, state State) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.mu.Lock()
	r.route = path
	r.visits = append(r.visits, state)
	doc := r.doc
	r.mu.Unlock()

	if doc != nil {
		go func() {
			time.Sleep(5 * time.Millisecond)
			r.mounts.Mounted(doc)
		}()
	}
	return nil
}

type scrollCall struct {
	target   Element
	offset   int
	behavior string
}

type recordingScroller struct {
	mu    sync.Mutex
	calls []scrollCall
}

func (s *recordingScroller) ScrollTo(ctx context.Context, target Element, offset int, behavior string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scrollCall{target: target, offset: offset, behavior: behavior})
	return nil
}

func mustParse(t *testing.T, html string) *HTMLDocument {
	t.Helper()
	doc, err := ParseHTMLBytes([]byte(html))
	require.NoError(t, err)
	return doc
}

func newOrchestrator(t *testing.T, route string, doc Document, opts ...Option) (*Orchestrator, *fakeRouter, *recordingScroller, *Mounts) {
	t.Helper()
	mounts := NewMounts()
	router := &fakeRouter{route: route, mounts: mounts, doc: doc}
	scroller := &recordingScroller{}
	return New(router, mounts, scroller, testutil.NopLogger(), opts...), router, scroller, mounts
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "information", Resolve("about"))
	assert.Equal(t, "contact", Resolve("contact"))
	assert.Equal(t, "news", Resolve("news"))
	assert.Equal(t, "", Resolve(""))
}

func TestLocateTiers(t *testing.T) {
	doc := mustParse(t, homeWithSections)

	tests := []struct {
		section string
		wantID  string
		tier    Tier
	}{
		{section: "information", wantID: "information", tier: TierExact},
		{section: "events", wantID: "events-list", tier: TierPartial},
		{section: "downloads", wantID: "", tier: TierMarker},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			el, tier, ok := Locate(doc, tt.section)
			require.True(t, ok)
			assert.Equal(t, tt.tier, tier)
			assert.Equal(t, tt.wantID, el.ID)
			assert.Equal(t, "section", el.Tag)
		})
	}

	_, _, ok := Locate(doc, "committee")
	assert.False(t, ok)
}

func TestLocateExactWinsOverMarker(t *testing.T) {
	doc := mustParse(t, `<body><div data-section="news" id="a"></div><div id="news"></div></body>`)

	el, tier, ok := Locate(doc, "news")

	require.True(t, ok)
	assert.Equal(t, TierExact, tier)
	assert.Equal(t, "news", el.ID)
}

func TestLocateQuotesSelectorValue(t *testing.T) {
	doc := mustParse(t, homeWithSections)

	_, _, ok := Locate(doc, `x"] , [id="news`)

	assert.False(t, ok)
}

func TestScrollOnHomeRoute(t *testing.T) {
	doc := mustParse(t, homeWithSections)
	orch, router, scroller, mounts := newOrchestrator(t, HomeRoute, nil)
	mounts.Mounted(doc)

	outcome, err := orch.ScrollToSection(context.Background(), "about")

	require.NoError(t, err)
	assert.Equal(t, Scrolled, outcome)
	assert.Empty(t, router.visits)
	require.Len(t, scroller.calls, 1)
	assert.Equal(t, "information", scroller.calls[0].target.ID)
	assert.Equal(t, 88, scroller.calls[0].offset)
	assert.Equal(t, "smooth", scroller.calls[0].behavior)
}

func TestScrollOnHomeRouteNoMatchIsNoop(t *testing.T) {
	orch, _, scroller, mounts := newOrchestrator(t, HomeRoute, nil)
	mounts.Mounted(mustParse(t, homeWithoutInformation))

	outcome, err := orch.ScrollToSection(context.Background(), "committee")

	require.NoError(t, err)
	assert.Equal(t, NoMatch, outcome)
	assert.Empty(t, scroller.calls)
}

func TestCrossRouteNavigatesThenScrolls(t *testing.T) {
	orch, router, scroller, _ := newOrchestrator(t, "/news/3", mustParse(t, homeWithSections))

	outcome, err := orch.ScrollToSection(context.Background(), "about")

	require.NoError(t, err)
	assert.Equal(t, Scrolled, outcome)
	assert.Equal(t, []State{{ScrollToID: "information"}}, router.visits)
	require.Len(t, scroller.calls, 1)
	assert.Equal(t, "information", scroller.calls[0].target.ID)
}

func TestCrossRouteAboutWithoutInformationSection(t *testing.T) {
	orch, router, scroller, _ := newOrchestrator(t, "/news/3", mustParse(t, homeWithoutInformation))

	outcome, err := orch.ScrollToSection(context.Background(), "about")

	require.NoError(t, err)
	assert.Equal(t, NoMatch, outcome)
	assert.Equal(t, []State{{ScrollToID: "information"}}, router.visits)
	assert.Empty(t, scroller.calls)
}

func TestCrossRouteIgnoresEarlierMount(t *testing.T) {
	orch, _, scroller, mounts := newOrchestrator(t, "/events/1", mustParse(t, homeWithSections))
	// a stale home document without the section was mounted before navigating
	mounts.Mounted(mustParse(t, homeWithoutInformation))

	outcome, err := orch.ScrollToSection(context.Background(), "information")

	require.NoError(t, err)
	assert.Equal(t, Scrolled, outcome)
	assert.Len(t, scroller.calls, 1)
}

func TestCrossRouteMountTimeout(t *testing.T) {
	orch, _, scroller, _ := newOrchestrator(t, "/login", nil, WithMountTimeout(20*time.Millisecond))

	outcome, err := orch.ScrollToSection(context.Background(), "news")

	assert.ErrorIs(t, err, ErrMountTimeout)
	assert.Equal(t, NotMounted, outcome)
	assert.Empty(t, scroller.calls)
}

func TestCrossRouteNavigateFailure(t *testing.T) {
	orch, router, _, _ := newOrchestrator(t, "/login", nil)
	router.failWith = errors.New("boom")

	outcome, err := orch.ScrollToSection(context.Background(), "news")

	assert.Error(t, err)
	assert.Equal(t, NotMounted, outcome)
}

func TestCallerCancellationIsNotTimeout(t *testing.T) {
	orch, _, _, _ := newOrchestrator(t, "/login", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.ScrollToSection(ctx, "news")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrMountTimeout)
}

func TestMountsLatchLatestDocument(t *testing.T) {
	mounts := NewMounts()
	doc := mustParse(t, homeWithSections)
	mounts.Mounted(doc)

	got, err := mounts.Wait(context.Background(), 0)

	require.NoError(t, err)
	assert.Same(t, doc, got)
	assert.Equal(t, uint64(1), mounts.Generation())
}

func TestMountsWakeAllWaiters(t *testing.T) {
	mounts := NewMounts()
	doc := mustParse(t, homeWithSections)

	var wg sync.WaitGroup
	results := make([]Document, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			results[i], _ = mounts.Wait(ctx, 0)
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	mounts.Mounted(doc)
	wg.Wait()

	for _, r := range results {
		assert.Same(t, doc, r)
	}
}
