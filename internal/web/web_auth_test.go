package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/communityportal/internal/factory"
	"github.com/mcoot/communityportal/internal/stubapi"
)

func TestHomePageAnonymous(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "a[href='/login']")
	assertContainsElement(t, doc, "a[href='/signup']")
	assertContainsElement(t, doc, "#session-status[data-authenticated='false']")
	assertContainsText(t, doc, "#session-status", "Not signed in")

	// Public menus only: inactive and admin-only entries are hidden
	assertContainsElement(t, doc, "ul.menu a[href='/go/about']")
	assertNotContainsElement(t, doc, "ul.menu a[href='/archive']")
	assertNotContainsElement(t, doc, "ul.menu a[href='/admin/dashboard']")
}

func TestClientCookieIssued(t *testing.T) {
	ts := newWebTestServer(t)

	ts.get("/")
	first := ts.cookies.clientID()
	require.NotEmpty(t, first)

	ts.get("/")
	assert.Equal(t, first, ts.cookies.clientID(), "client id should be stable across requests")
}

func TestLoginMember(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.loginMember()
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-success", "Welcome back, Jane Doe!")
	assertContainsText(t, doc, "#session-status", "Signed in as Jane Doe")
	assertContainsElement(t, doc, "a[href='/edit-profile']")
	assertContainsElement(t, doc, "form[action='/logout']")
	assertNotContainsElement(t, doc, "a[href='/login']")
}

func TestLoginAdminLandsOnDashboard(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.loginAdmin()
	assert.Equal(t, "/admin/dashboard", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#session-status .badge", "Admin")
	assertContainsElement(t, doc, "li[data-resource='news']")
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/login", url.Values{
		"email":    {stubapi.MemberEmail},
		"password": {"wrongpassword"},
	})

	// Should re-render login page with error (200 status, not redirect)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".form-error", "Invalid email or password")
	assert.Equal(t, stubapi.MemberEmail, doc.Find("input[name='email']").AttrOr("value", ""))

	// The session is untouched
	rr = ts.get("/")
	assertContainsText(t, parseHTML(rr.Body), "#session-status", "Not signed in")
}

func TestLoginMissingFields(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/login", url.Values{"email": {""}, "password": {""}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assertContainsText(t, parseHTML(rr.Body), ".form-error", "Email and password are required")
}

func TestLoginPageRedirectsWhenSignedIn(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginMember()

	rr := ts.get("/login")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestSignup(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/signup", url.Values{
		"name":            {"Ravi Patil"},
		"email":           {"ravi@example.com"},
		"password":        {"password1"},
		"confirmPassword": {"password1"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-success", "Signup successful. Please login.")

	// Signup never signs the visitor in
	assertContainsText(t, doc, "#session-status", "Not signed in")
}

func TestSignupPendingAccountCannotLogin(t *testing.T) {
	ts := newWebTestServer(t)

	ts.post("/signup", url.Values{
		"name":            {"Ravi Patil"},
		"email":           {"ravi@example.com"},
		"password":        {"password1"},
		"confirmPassword": {"password1"},
	})

	rr := ts.post("/login", url.Values{"email": {"ravi@example.com"}, "password": {"password1"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assertContainsText(t, parseHTML(rr.Body), ".form-error", "awaiting approval")
}

func TestSignupPasswordMismatch(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/signup", url.Values{
		"name":            {"Ravi Patil"},
		"email":           {"ravi@example.com"},
		"password":        {"password1"},
		"confirmPassword": {"different"},
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "span.field-error[data-field='confirmPassword']", "Passwords do not match")
	assert.Equal(t, "Ravi Patil", doc.Find("input[name='name']").AttrOr("value", ""))
}

func TestSignupDuplicateEmail(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/signup", url.Values{
		"name":            {"Another Jane"},
		"email":           {stubapi.MemberEmail},
		"password":        {"password1"},
		"confirmPassword": {"password1"},
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assertContainsElement(t, parseHTML(rr.Body), ".form-error")
}

func TestLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginMember()

	rr := ts.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash-info", "You have been logged out")
	assertContainsElement(t, doc, "a[href='/login']")
	assertContainsText(t, doc, "#session-status", "Not signed in")
}

func TestSessionPersistence(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginMember()

	rr1 := ts.get("/")
	assertContainsText(t, parseHTML(rr1.Body), "#session-status", "Jane Doe")

	rr2 := ts.get("/")
	assertContainsText(t, parseHTML(rr2.Body), "#session-status", "Jane Doe")
}

func TestSessionSurvivesStoreEviction(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginMember()

	// Dropping the in-memory store forces a reload from durable storage
	ts.app.Registry.Forget(ts.cookies.clientID())

	rr := ts.get("/")
	assertContainsText(t, parseHTML(rr.Body), "#session-status", "Signed in as Jane Doe")
}

func TestSessionsAreScopedToBrowser(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginMember()

	// A second browser against the same server
	other := &webTestServer{t: t, handler: ts.handler, app: ts.app, cookies: newCookieJar()}
	rr := other.get("/")
	assertContainsText(t, parseHTML(rr.Body), "#session-status", "Not signed in")
}

func TestLoginRateLimited(t *testing.T) {
	ts := newWebTestServer(t, factory.WithLoginRate(2))

	form := url.Values{"email": {stubapi.MemberEmail}, "password": {"wrong"}}
	assert.Equal(t, http.StatusOK, ts.post("/login", form).Code)
	assert.Equal(t, http.StatusOK, ts.post("/login", form).Code)

	rr := ts.post("/login", form)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// Viewing the form is never throttled
	assert.Equal(t, http.StatusOK, ts.get("/login").Code)
}
