package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yunkee-lee/mcp-tmap/pkg/config"
	"github.com/yunkee-lee/mcp-tmap/pkg/testutil"
	"github.com/yunkee-lee/mcp-tmap/pkg/tmap"
)

const geocodeBody = `{"coordinateInfo":{"coordinate":[{"newLat":"37.5725","newLon":"126.9768","newLatEntr":"37.5723","newLonEntr":"126.9770"}]}}`

func testConfig() config.Config {
	cfg := config.Default()
	cfg.APIKey = "test-key"
	return cfg
}

func newTestServer(t *testing.T, up *testutil.Upstream, logger *bytes.Buffer) *Server {
	t.Helper()
	var w io.Writer
	if logger != nil {
		w = logger
	}
	s, err := NewServer(testConfig(), testutil.NewTestLogger(w),
		WithClientOptions(tmap.WithBaseURL(up.URL())))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

// rpc sends one JSON-RPC request and decodes the response.
func rpc(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}
	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func toolText(t *testing.T, resp map[string]any) (string, bool) {
	t.Helper()
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("response has no result: %v", resp)
	}
	content, ok := result["content"].([]any)
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result)
	}
	text, _ := content[0].(map[string]any)["text"].(string)
	isError, _ := result["isError"].(bool)
	return text, isError
}

func TestNewServerMissingKey(t *testing.T) {
	s, err := NewServer(config.Default(), testutil.DiscardLogger())
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if s != nil {
		t.Error("NewServer() returned a server")
	}
	if !errors.Is(err, tmap.ErrAuth) {
		t.Errorf("error = %v, want Auth error", err)
	}
}

func TestListTools(t *testing.T) {
	s := newTestServer(t, testutil.NewUpstream(t), nil)

	resp := rpc(t, s, "tools/list", map[string]any{})
	data, _ := json.Marshal(resp)
	for _, name := range []string{"publicTransitRoutes", "fullTextAddressGeocoding"} {
		if !strings.Contains(string(data), `"name":"`+name+`"`) {
			t.Errorf("tools/list missing %s: %s", name, data)
		}
	}
}

func TestInitializeReturnsInstructions(t *testing.T) {
	s := newTestServer(t, testutil.NewUpstream(t), nil)

	resp := rpc(t, s, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
		"capabilities":    map[string]any{},
	})
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("initialize failed: %v", resp)
	}
	instructions, _ := result["instructions"].(string)
	if !strings.Contains(instructions, "ask a user") {
		t.Errorf("instructions = %q", instructions)
	}
	info, _ := result["serverInfo"].(map[string]any)
	if info["name"] != ServerName {
		t.Errorf("server name = %v, want %s", info["name"], ServerName)
	}
}

func TestGeocodingToolCall(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.Respond("/tmap/geo/fullAddrGeo", http.StatusOK, geocodeBody)
	var logs bytes.Buffer
	s := newTestServer(t, up, &logs)

	resp := rpc(t, s, "tools/call", map[string]any{
		"name":      "fullTextAddressGeocoding",
		"arguments": map[string]any{"address": "서울특별시 종로구 세종대로 1"},
	})
	text, isError := toolText(t, resp)
	if isError {
		t.Fatalf("tool call failed: %s", text)
	}
	var coords []map[string]any
	if err := json.Unmarshal([]byte(text), &coords); err != nil {
		t.Fatalf("result is not a JSON array: %s", text)
	}
	if len(coords) != 1 || coords[0]["newLat"] != "37.5725" || coords[0]["newLon"] != "126.9768" {
		t.Errorf("coordinates = %v", coords)
	}

	reqs := up.Requests()
	if len(reqs) != 1 || reqs[0].Header.Get("appKey") != "test-key" {
		t.Errorf("upstream requests = %+v", reqs)
	}
	if !strings.Contains(logs.String(), "call_id=") || !strings.Contains(logs.String(), "tool call completed") {
		t.Errorf("tool call not logged: %s", logs.String())
	}
}

func TestTransitToolCallEnvelope(t *testing.T) {
	tests := []struct {
		status int
		prefix string
	}{
		{http.StatusBadRequest, "Bad request: "},
		{http.StatusUnauthorized, "Auth error: "},
		{tmap.StatusRateLimited, "Rate limited: "},
		{http.StatusInternalServerError, "Unexpected error [status_code=500"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			up := testutil.NewUpstream(t)
			up.Respond("/transit/routes", tt.status, `{"error":{"message":"upstream says no"}}`)
			s := newTestServer(t, up, nil)

			resp := rpc(t, s, "tools/call", map[string]any{
				"name": "publicTransitRoutes",
				"arguments": map[string]any{
					"startLon": "126.9769", "startLat": "37.5726",
					"destLon": "126.9250", "destLat": "37.5200",
				},
			})
			text, isError := toolText(t, resp)
			if !isError {
				t.Error("result not flagged as error")
			}
			var env map[string]any
			if err := json.Unmarshal([]byte(text), &env); err != nil {
				t.Fatalf("result is not JSON: %s", text)
			}
			if env["success"] != false {
				t.Errorf("success = %v, want false", env["success"])
			}
			msg, _ := env["error"].(string)
			if !strings.HasPrefix(msg, tt.prefix) || !strings.Contains(msg, "upstream says no") {
				t.Errorf("error = %q, want prefix %q", msg, tt.prefix)
			}
		})
	}
}

func TestInvalidArgumentsFailFast(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{
			name: "language out of range",
			tool: "publicTransitRoutes",
			args: map[string]any{
				"startLon": "126.9769", "startLat": "37.5726",
				"destLon": "126.9250", "destLat": "37.5200",
				"language": 2,
			},
		},
		{
			name: "blank address",
			tool: "fullTextAddressGeocoding",
			args: map[string]any{"address": "   "},
		},
		{
			name: "missing address",
			tool: "fullTextAddressGeocoding",
			args: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testutil.NewUpstream(t)
			s := newTestServer(t, up, nil)

			resp := rpc(t, s, "tools/call", map[string]any{"name": tt.tool, "arguments": tt.args})
			if _, ok := resp["error"]; !ok {
				t.Errorf("response = %v, want JSON-RPC error", resp)
			}
			if _, ok := resp["result"]; ok {
				t.Errorf("response has a result: %v", resp)
			}
			if n := len(up.Requests()); n != 0 {
				t.Errorf("upstream requests = %d, want 0", n)
			}
		})
	}
}

func TestServeStdio(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.Respond("/tmap/geo/fullAddrGeo", http.StatusOK, geocodeBody)
	s := newTestServer(t, up, nil)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"0"},"capabilities":{}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"fullTextAddressGeocoding","arguments":{"address":"세종대로 1"}}}`,
	}, "\n") + "\n")
	var out bytes.Buffer

	if err := s.ServeStdio(context.Background(), in, &out); err != nil {
		t.Fatalf("ServeStdio() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("responses = %d, want 2: %s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], `"instructions"`) {
		t.Errorf("initialize response = %s", lines[0])
	}
	if !strings.Contains(lines[1], "37.5725") {
		t.Errorf("tools/call response = %s", lines[1])
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testutil.NewUpstream(t), nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + HealthPath)
	if err != nil {
		t.Fatalf("GET %s error = %v", HealthPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" || body["name"] != ServerName {
		t.Errorf("body = %v", body)
	}
	if build, ok := body["build"].(map[string]any); !ok || build["go_version"] == "" {
		t.Errorf("build = %v", body["build"])
	}
}

func postJSON(t *testing.T, url, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	return resp
}

func TestStreamableHTTP(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.Respond("/tmap/geo/fullAddrGeo", http.StatusOK, geocodeBody)
	s := newTestServer(t, up, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := postJSON(t, ts.URL+MCPPath, "",
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"0"},"capabilities":{}}}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d", resp.StatusCode)
	}
	sessionID := resp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize returned no session id")
	}

	resp = postJSON(t, ts.URL+MCPPath, sessionID,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"fullTextAddressGeocoding","arguments":{"address":"세종대로 1"}}}`)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tools/call status = %d: %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), "37.5725") {
		t.Errorf("tools/call response = %s", data)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testutil.NewUpstream(t), nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+MCPPath, nil)
	req.Header.Set("Origin", "https://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error = %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, testutil.NewUpstream(t), nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + HealthPath)
	if err != nil {
		t.Fatalf("GET %s error = %v", HealthPath, err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
