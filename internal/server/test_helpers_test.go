package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"purple-sphinx/internal/config"

	"github.com/gorilla/websocket"
)

const (
	testAdminToken  = "secret"
	wsExpectTimeout = 10 * time.Second
)

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
	return ts
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.AdminToken = testAdminToken
	cfg.DeadlineGrace = 0
	return cfg
}

func newQuizServer(t *testing.T, cfg config.Config) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	return doRequestWithHeaders(t, ts, method, path, payload, nil)
}

func doAdminRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	return doRequestWithHeaders(t, ts, method, path, payload, map[string]string{adminTokenHeader: testAdminToken})
}

func doRequestWithHeaders(t *testing.T, ts *httptest.Server, method, path string, payload any, headers map[string]string) *http.Response {
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
	for key, value := range headers {
		req.Header.Set(key, value)
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

func assertString(t *testing.T, value any) string {
	t.Helper()
	text, ok := value.(string)
	if !ok {
		t.Fatalf("expected string, got %T", value)
	}
	return text
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

// wsClient is a test websocket peer. Frames read while waiting for a
// specific type are buffered for later expectations.
type wsClient struct {
	t       *testing.T
	conn    *websocket.Conn
	ref     int
	pending []map[string]any
}

func dialWS(t *testing.T, ts *httptest.Server) *wsClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(msgType string, payload any) string {
	c.t.Helper()
	c.ref++
	ref := fmt.Sprintf("r%d", c.ref)
	frame := map[string]any{"ref": ref, "type": msgType}
	if payload != nil {
		frame["payload"] = payload
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		c.t.Fatalf("write websocket frame: %v", err)
	}
	return ref
}

func (c *wsClient) read(timeout time.Duration) (map[string]any, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// expect returns the next frame matching match, failing after timeout.
func (c *wsClient) expect(desc string, match func(map[string]any) bool) map[string]any {
	c.t.Helper()
	for i, msg := range c.pending {
		if match(msg) {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return msg
		}
	}
	deadline := time.Now().Add(wsExpectTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("timed out waiting for %s", desc)
		}
		msg, err := c.read(remaining)
		if err != nil {
			c.t.Fatalf("waiting for %s: %v", desc, err)
		}
		if match(msg) {
			return msg
		}
		c.pending = append(c.pending, msg)
	}
}

func (c *wsClient) expectType(msgType string) map[string]any {
	c.t.Helper()
	return c.expect(msgType, func(msg map[string]any) bool {
		return msg["type"] == msgType
	})
}

// request sends a frame and returns its ack.
func (c *wsClient) request(msgType string, payload any) map[string]any {
	c.t.Helper()
	ref := c.send(msgType, payload)
	return c.expect("ack "+ref, func(msg map[string]any) bool {
		return msg["type"] == msgAck && msg["ref"] == ref
	})
}

// mustRequest sends a frame and returns the ack data, failing on an error
// ack.
func (c *wsClient) mustRequest(msgType string, payload any) map[string]any {
	c.t.Helper()
	reply := c.request(msgType, payload)
	if reply["ok"] != true {
		c.t.Fatalf("%s failed: %v", msgType, reply["error"])
	}
	data, _ := reply["data"].(map[string]any)
	return data
}

func (c *wsClient) expectError(msgType string, payload any, want string) {
	c.t.Helper()
	reply := c.request(msgType, payload)
	if reply["ok"] != false {
		c.t.Fatalf("%s: expected failure %q, got success", msgType, want)
	}
	if reply["error"] != want {
		c.t.Fatalf("%s: expected error %q, got %v", msgType, want, reply["error"])
	}
}

func (c *wsClient) expectNoType(msgType string, timeout time.Duration) {
	c.t.Helper()
	for _, msg := range c.pending {
		if msg["type"] == msgType {
			c.t.Fatalf("unexpected %s message", msgType)
		}
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg, err := c.read(time.Until(deadline))
		if err != nil {
			return
		}
		if msg["type"] == msgType {
			c.t.Fatalf("unexpected %s message", msgType)
		}
		c.pending = append(c.pending, msg)
	}
}

func payloadOf(t *testing.T, msg map[string]any) map[string]any {
	t.Helper()
	payload, ok := msg["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected object payload, got %T", msg["payload"])
	}
	return payload
}

func scoreFor(t *testing.T, state map[string]any, playerID string) float64 {
	t.Helper()
	scores, _ := state["scores"].([]any)
	for _, raw := range scores {
		entry, _ := raw.(map[string]any)
		if entry["player_id"] == playerID {
			return entry["score"].(float64)
		}
	}
	t.Fatalf("no score for player %s", playerID)
	return 0
}
