package web_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/communityportal/internal/factory"
	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/stubapi"
	"github.com/mcoot/communityportal/internal/testutil"
	"github.com/mcoot/communityportal/internal/web"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	cookies *cookieJar
}

// newWebTestServer creates a new test server wired to a stand-in remote API
func newWebTestServer(t *testing.T, opts ...factory.TestOption) *webTestServer {
	t.Helper()

	logger := testutil.NopLogger()
	app, err := factory.NewTestApp(append([]factory.TestOption{factory.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	router := web.NewRouter(web.RouterConfig{
		Logger:       logger,
		Clock:        app.Clock,
		Registry:     app.Registry,
		Client:       app.Client,
		Content:      app.Content,
		HubManager:   app.HubManager,
		Broadcaster:  app.Broadcaster,
		MountTimeout: time.Second,
		LoginLimiter: app.LoginLimiter,
		StaticDir:    "", // No static files in tests
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		cookies: newCookieJar(),
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, body io.Reader, contentType string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, "", nil)
}

// getWithReferer makes a GET request as if following a link on another page
func (ts *webTestServer) getWithReferer(path, referer string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil, "", map[string]string{"Referer": referer})
}

// post makes a POST request with form data
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	return ts.request(http.MethodPost, path, body, "application/x-www-form-urlencoded", nil)
}

// upload is a file attached to a multipart form
type upload struct {
	field, name, contentType string
	content                  []byte
}

// postMultipart makes a multipart POST request, as the profile form does
func (ts *webTestServer) postMultipart(path string, form url.Values, file *upload) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(ts.t, mw.WriteField(k, v))
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(ts.t, err)
		_, err = part.Write(file.content)
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, mw.Close())
	return ts.request(http.MethodPost, path, &buf, mw.FormDataContentType(), nil)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// clientID returns the browser identity minted on the first request
func (j *cookieJar) clientID() model.ClientID {
	c, ok := j.cookies[middleware.ClientCookieName]
	if !ok {
		return ""
	}
	return model.ClientID(c.Value)
}

// Helper functions for common test operations

// login signs in through the login form and expects the redirect
func (ts *webTestServer) login(email, password string) *httptest.ResponseRecorder {
	ts.t.Helper()
	rr := ts.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after login")
	return rr
}

func (ts *webTestServer) loginMember() *httptest.ResponseRecorder {
	return ts.login(stubapi.MemberEmail, stubapi.MemberPassword)
}

func (ts *webTestServer) loginAdmin() *httptest.ResponseRecorder {
	return ts.login(stubapi.AdminEmail, stubapi.AdminPassword)
}

// followRedirect follows a redirect and returns the response
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	location := rr.Header().Get("Location")
	require.NotEmpty(ts.t, location, "Expected Location header for redirect")
	return ts.get(location)
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
