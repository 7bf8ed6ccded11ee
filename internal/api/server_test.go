package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/internal/hub"
	"github.com/goliatone/go-push-relay/pkg/adapters"
	"github.com/goliatone/go-push-relay/pkg/config"
	"github.com/goliatone/go-push-relay/pkg/domain"
	"github.com/goliatone/go-push-relay/pkg/relay"
	"github.com/gorilla/websocket"
)

type stubProvider struct {
	mu    sync.Mutex
	ready bool
	errs  map[string]error
	sent  int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Ready() bool { return p.ready }

func (p *stubProvider) Send(_ context.Context, reg domain.Registration, _ adapters.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent++
	if p.errs != nil {
		return p.errs[reg.Endpoint]
	}
	return nil
}

func newTestServer(t *testing.T, provider adapters.Provider) (*Server, *relay.Module) {
	t.Helper()

	module, err := relay.NewModule(relay.ModuleOptions{Provider: provider})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	connections := hub.New(config.Defaults().Hub, nil, nil)
	t.Cleanup(connections.Close)

	server, err := New(Dependencies{Module: module, Hub: connections})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return server, module
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, &stubProvider{ready: true})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "running") {
		t.Fatalf("unexpected health body: %q", rec.Body.String())
	}
}

func TestSubscribeStoresRegistration(t *testing.T) {
	t.Parallel()

	server, module := newTestServer(t, &stubProvider{ready: true})

	body := `{"endpoint":"https://push.example.com/sub/abc","keys":{"p256dh":"pk","auth":"ak"}}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	size, err := module.Registrations().Size(context.Background())
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != 1 {
		t.Fatalf("expected 1 registration, got %d", size)
	}
}

func TestSubscribeRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, &stubProvider{ready: true})

	cases := map[string]string{
		"broken json":      `{broken`,
		"missing endpoint": `{"keys":{"p256dh":"pk","auth":"ak"}}`,
		"blank endpoint":   `{"endpoint":"   "}`,
	}
	for name, payload := range cases {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(payload)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, rec.Code)
		}
		var out map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("%s: decode error body: %v", name, err)
		}
		if out["error"] == "" {
			t.Fatalf("%s: expected error message", name)
		}
	}
}

func TestSendReportsCycleCounts(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{ready: true, errs: map[string]error{
		"https://push.example.com/sub/gone": &adapters.StatusError{Code: 410},
	}}
	server, module := newTestServer(t, provider)

	ctx := context.Background()
	for _, endpoint := range []string{
		"https://push.example.com/sub/ok",
		"https://push.example.com/sub/gone",
	} {
		if _, err := module.Registrations().Add(ctx, &domain.Registration{Endpoint: endpoint}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var result dispatcher.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Sent != 1 || result.Removed != 1 || result.Remaining != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSendFailsWithoutCredentials(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, &stubProvider{ready: false})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestWebsocketPeersReceiveBroadcasts(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{ready: true}
	connections := hub.New(config.Defaults().Hub, nil, nil)
	t.Cleanup(connections.Close)

	// Wire the hub as the module broadcaster the way the server entrypoint does.
	module, err := relay.NewModule(relay.ModuleOptions{Provider: provider, Broadcaster: connections})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	server, err := New(Dependencies{Module: module, Hub: connections})
	if err != nil {
		t.Fatalf("server: %v", err)
	}

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	dial := func() *websocket.Conn {
		t.Helper()
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	sender := dial()
	receiver := dial()

	// Registration races the first frame; wait for both peers to land.
	deadline := time.Now().Add(2 * time.Second)
	for connections.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("peers never registered, have %d", connections.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := sender.WriteMessage(websocket.TextMessage, []byte(`{"title":"Deploy","body":"v2 is live"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := receiver.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(frame) != "v2 is live" {
		t.Fatalf("frame = %q", frame)
	}

	// The sender never hears its own event back.
	sender.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, echo, err := sender.ReadMessage(); err == nil {
		t.Fatalf("sender received its own frame: %q", echo)
	}
}
