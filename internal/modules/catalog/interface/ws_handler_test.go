package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmsWs/internal/modules/catalog/application/usecase"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/modules/catalog/infrastructure"
	"lmsWs/internal/shared/auth"
)

type wsFixture struct {
	server  *httptest.Server
	fetcher *stubFetcher
	lists   *usecase.ListRegistry
}

func newWSFixture(t *testing.T, validator auth.TokenValidator, allowAnonymous bool) *wsFixture {
	t.Helper()
	fetcher := &stubFetcher{}
	catalog := usecase.NewCatalogUseCase(fetcher, nil)
	lists := usecase.NewListRegistry()
	hub := infrastructure.NewHub()
	e := echo.New()
	RegisterRoutes(e, RouteOptions{
		Websocket: NewWebsocketHandler(hub, catalog, lists, validator, WebsocketOptions{
			AllowAnonymous: allowAnonymous,
			PageSize:       5,
			Debounce:       10 * time.Millisecond,
			SendBuffer:     32,
		}),
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return &wsFixture{server: server, fetcher: fetcher, lists: lists}
}

func (f *wsFixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]any{"action": action, "payload": json.RawMessage(raw)}))
}

// readUntil returns the first message accepted by match.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func metadata(msg map[string]any) map[string]any {
	value, _ := msg["metadata"].(map[string]any)
	return value
}

func loadedState(listID string) func(map[string]any) bool {
	return func(msg map[string]any) bool {
		meta := metadata(msg)
		return msg["topic"] == "courses.state" && meta["listId"] == listID && meta["status"] == string(domain.StatusLoaded)
	}
}

func TestWebsocketOpenListStreamsState(t *testing.T) {
	fixture := newWSFixture(t, nil, true)
	conn := fixture.dial(t, "/ws/course")

	connected := readUntil(t, conn, func(msg map[string]any) bool { return msg["topic"] == domain.TopicSystemConnected })
	data := connected["data"].(map[string]any)
	assert.Equal(t, "courses", data["entity"])

	send(t, conn, "open", map[string]any{"listId": "main", "mode": "infinite"})
	state := readUntil(t, conn, loadedState("main"))
	assert.Equal(t, "1", metadata(state)["page"])
	assert.Equal(t, "5", metadata(state)["itemsCount"])

	send(t, conn, "load_more", map[string]any{"listId": "main"})
	state = readUntil(t, conn, func(msg map[string]any) bool {
		return loadedState("main")(msg) && metadata(msg)["page"] == "2"
	})
	assert.Equal(t, "10", metadata(state)["itemsCount"])
	assert.Equal(t, 1, fixture.lists.Count())
}

func TestWebsocketUnknownListAndDetail(t *testing.T) {
	fixture := newWSFixture(t, nil, true)
	conn := fixture.dial(t, "/ws/courses")

	send(t, conn, "sort", map[string]any{"listId": "ghost", "field": "title"})
	failure := readUntil(t, conn, func(msg map[string]any) bool { return msg["topic"] == "courses.error" })
	assert.Equal(t, "list not open", metadata(failure)["reason"])

	send(t, conn, "detail", map[string]any{"id": "42"})
	detail := readUntil(t, conn, func(msg map[string]any) bool { return msg["topic"] == "courses.detail" })
	assert.Equal(t, "42", detail["resourceId"])

	send(t, conn, "detail", map[string]any{"id": "missing"})
	failure = readUntil(t, conn, func(msg map[string]any) bool {
		return msg["topic"] == "courses.error" && metadata(msg)["action"] == "detail"
	})
	assert.Equal(t, "course not found", metadata(failure)["reason"])
}

func TestWebsocketCloseReleasesLists(t *testing.T) {
	fixture := newWSFixture(t, nil, true)
	conn := fixture.dial(t, "/ws/courses")

	send(t, conn, "open", map[string]any{"listId": "main"})
	readUntil(t, conn, loadedState("main"))
	require.Equal(t, 1, fixture.lists.Count())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return fixture.lists.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketRejectsMissingOrInvalidToken(t *testing.T) {
	validator, err := auth.NewJWTValidator("s3cret", "")
	require.NoError(t, err)
	fixture := newWSFixture(t, validator, false)

	res, err := http.Get(fixture.server.URL + "/ws/courses")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(fixture.server.URL + "/ws/courses/not-a-jwt")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, err = http.Get(fixture.server.URL + "/ws/invoices")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestWebsocketAcceptsValidToken(t *testing.T) {
	validator, err := auth.NewJWTValidator("s3cret", "")
	require.NoError(t, err)
	fixture := newWSFixture(t, validator, false)

	claims := auth.Claims{
		SessionID: "sess-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	conn := fixture.dial(t, "/ws/courses?token="+token)
	connected := readUntil(t, conn, func(msg map[string]any) bool { return msg["topic"] == domain.TopicSystemConnected })
	assert.Equal(t, "user-1", metadata(connected)["userId"])
	assert.Equal(t, "sess-1", metadata(connected)["sessionId"])
}

func TestAuthorize(t *testing.T) {
	claims, err := authorize(nil, "", true)
	assert.NoError(t, err)
	assert.Nil(t, claims)

	_, err = authorize(nil, "", false)
	assert.ErrorIs(t, err, auth.ErrMissingToken)

	unconfigured, err := auth.NewJWTValidator("", "")
	require.NoError(t, err)
	claims, err = authorize(unconfigured, "opaque-api-token", true)
	assert.NoError(t, err)
	assert.Nil(t, claims)
}
