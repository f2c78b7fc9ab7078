package web_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamFor opens /events on the recorder-backed server and returns what was
// written before the context expired
func (ts *webTestServer) streamFor(d time.Duration) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	ts.cookies.addTo(req)

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// TestSSE_EndpointHeaders verifies the SSE endpoint returns correct headers
func TestSSE_EndpointHeaders(t *testing.T) {
	ts := newWebTestServer(t)
	ts.get("/")

	rr := ts.streamFor(100 * time.Millisecond)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rr.Header().Get("Connection"))
	assert.Equal(t, "no", rr.Header().Get("X-Accel-Buffering"))
}

// TestSSE_InitialEvents verifies the stream opens with the connected event and
// the current session status
func TestSSE_InitialEvents(t *testing.T) {
	ts := newWebTestServer(t)
	ts.get("/")

	body := ts.streamFor(100 * time.Millisecond).Body.String()

	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, `data: {"status":"connected"}`)
	assert.Contains(t, body, "event: session-changed")
	assert.Contains(t, body, "Not signed in")
	assert.Less(t, strings.Index(body, "event: connected"), strings.Index(body, "event: session-changed"))
}

func TestSSE_InitialEventsWhenSignedIn(t *testing.T) {
	ts := newWebTestServer(t)
	ts.loginMember()

	body := ts.streamFor(100 * time.Millisecond).Body.String()
	assert.Contains(t, body, "Signed in as Jane Doe")
}

// TestSSE_HubClientRegistration verifies the hub is keyed by the browser's client id
func TestSSE_HubClientRegistration(t *testing.T) {
	ts := newWebTestServer(t)
	ts.get("/")
	clientID := ts.cookies.clientID()
	require.NotEmpty(t, clientID)

	// Hubs are created on the first stream
	assert.Nil(t, ts.app.HubManager.GetHub(clientID))

	ts.streamFor(100 * time.Millisecond)

	hub := ts.app.HubManager.GetHub(clientID)
	require.NotNil(t, hub)
	assert.Eventually(t, func() bool { return hub.StreamCount() == 0 }, time.Second, 10*time.Millisecond,
		"stream should unregister when the request ends")
}

// TestSSE_CrossTabLogin verifies a login in one tab reaches the streams of the
// other tabs of the same browser, and only that browser
func TestSSE_CrossTabLogin(t *testing.T) {
	ts := newWebTestServer(t)
	ts.get("/")

	// A second browser with its own stream
	other := &webTestServer{t: t, handler: ts.handler, app: ts.app, cookies: newCookieJar()}
	other.get("/")

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	open := func(jar *cookieJar) <-chan string {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
		require.NoError(t, err)
		jar.addTo(req)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		lines := make(chan string, 64)
		go func() {
			defer close(lines)
			reader := bufio.NewReader(resp.Body)
			for {
				line, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				lines <- strings.TrimRight(line, "\n")
			}
		}()
		return lines
	}

	// waitFor reads lines until one contains want
	waitFor := func(lines <-chan string, want string) bool {
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return false
				}
				if strings.Contains(line, want) {
					return true
				}
			case <-ctx.Done():
				return false
			}
		}
	}

	mine := open(ts.cookies)
	theirs := open(other.cookies)
	require.True(t, waitFor(mine, "Not signed in"), "expected initial session status")
	require.True(t, waitFor(theirs, "Not signed in"), "expected initial session status")

	// Log in from another tab of the first browser
	ts.loginMember()

	assert.True(t, waitFor(mine, "Signed in as Jane Doe"), "login should reach the open stream")

	// The other browser hears nothing more than keepalives
	select {
	case line := <-theirs:
		assert.NotContains(t, line, "Jane Doe")
	case <-time.After(200 * time.Millisecond):
	}
}
