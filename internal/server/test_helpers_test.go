package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tune-guesser/internal/catalog"
	"tune-guesser/internal/config"
	"tune-guesser/internal/game"

	"github.com/gorilla/websocket"
)

const wsTimeout = 5 * time.Second

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

// testConfig keeps countdowns from ticking past their first update unless a
// test shortens the interval.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.TickIntervalMillis = 60_000
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, provider catalog.Provider) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, provider, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(srv.Close)
	return srv, ts
}

type stubCatalog struct {
	tracks map[string]game.Track

	mu  sync.Mutex
	err error
}

func (s *stubCatalog) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubCatalog) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubCatalog) Search(ctx context.Context, query string, limit int) (catalog.SearchResult, error) {
	if err := s.failure(); err != nil {
		return catalog.SearchResult{}, err
	}
	var tracks []game.Track
	for _, track := range s.tracks {
		if strings.Contains(strings.ToLower(track.Name), strings.ToLower(query)) {
			tracks = append(tracks, track)
		}
	}
	return catalog.SearchResult{Tracks: tracks, Total: len(tracks)}, nil
}

func (s *stubCatalog) Track(ctx context.Context, id string) (game.Track, error) {
	if err := s.failure(); err != nil {
		return game.Track{}, err
	}
	track, ok := s.tracks[id]
	if !ok {
		return game.Track{}, &game.Error{Code: game.CodeNotFound, Message: "Track not found"}
	}
	return track, nil
}

func (s *stubCatalog) Popular(ctx context.Context, limit int) ([]game.Track, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	tracks := make([]game.Track, 0, len(s.tracks))
	for _, track := range s.tracks {
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (s *stubCatalog) Recommendations(ctx context.Context, seeds []string, limit int) ([]game.Track, error) {
	return s.Popular(ctx, limit)
}

func yesterdayTrack() game.Track {
	return game.Track{
		ID:         "3135556",
		Name:       "Yesterday",
		Artists:    []game.Artist{{ID: "1", Name: "The Beatles"}},
		Album:      game.Album{ID: "10", Name: "Help!", Images: []game.Image{{URL: "https://img.example/help.jpg", Width: 300, Height: 300}}},
		PreviewURL: "https://cdn.example/yesterday.mp3",
		DurationMs: 125000,
	}
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

type receivedEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"type": eventType, "data": data})
	if err != nil {
		t.Fatalf("marshal ws payload: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write websocket message: %v", err)
	}
}

func readWSEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) receivedEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var event receivedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode websocket message %q: %v", payload, err)
	}
	return event
}

// waitForEvent reads until an event of eventType arrives and returns its data
// together with the types skipped on the way.
func waitForEvent(t *testing.T, conn *websocket.Conn, eventType string) (map[string]any, []string) {
	t.Helper()
	deadline := time.Now().Add(wsTimeout)
	seen := make([]string, 0)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("timed out waiting for %s; seen=%v", eventType, seen)
		}
		event := readWSEvent(t, conn, remaining)
		if event.Type == eventType {
			return event.Data, seen
		}
		seen = append(seen, event.Type)
	}
}

func expectErrorEvent(t *testing.T, conn *websocket.Conn, message string) {
	t.Helper()
	data, _ := waitForEvent(t, conn, eventError)
	if data["message"] != message {
		t.Fatalf("expected error %q, got %v", message, data["message"])
	}
}

func hostGame(t *testing.T, ts *httptest.Server, difficulty string) (*websocket.Conn, string, string) {
	t.Helper()
	conn := dialWS(t, ts)
	sendWS(t, conn, eventCreateGame, map[string]string{"difficulty": difficulty})
	data, _ := waitForEvent(t, conn, eventGameCreated)
	gameID, _ := data["gameId"].(string)
	hostID, _ := data["hostId"].(string)
	if gameID == "" || hostID == "" {
		t.Fatalf("expected game and host ids, got %v", data)
	}
	return conn, gameID, hostID
}

func joinTestGame(t *testing.T, ts *httptest.Server, gameID, name string) (*websocket.Conn, string) {
	t.Helper()
	conn := dialWS(t, ts)
	sendWS(t, conn, eventJoinGame, map[string]string{"gameId": gameID, "playerName": name})
	data, _ := waitForEvent(t, conn, eventPlayerJoined)
	playerID, _ := data["playerId"].(string)
	if playerID == "" {
		t.Fatalf("expected player id, got %v", data)
	}
	return conn, playerID
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
