package hub

import (
	"context"
	"testing"

	"github.com/goliatone/go-push-relay/pkg/interfaces/broadcaster"
)

type captureSink struct {
	events []broadcaster.Event
}

func (s *captureSink) OnEvent(_ context.Context, event broadcaster.Event) {
	s.events = append(s.events, event)
}

func TestRouterParsesStructuredFrames(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	c := h.NewConn(newFakeSocket(), "10.0.0.1:1")
	sink := &captureSink{}
	router := NewRouter(sink, "Notification", nil, nil)

	router.OnMessage(c, []byte(`{"title":"Deploy","body":"v2 is live"}`))

	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.Title != "Deploy" || event.Body != "v2 is live" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Origin != c.ID {
		t.Fatalf("event origin must be the producing connection")
	}
}

func TestRouterFillsDefaultTitle(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	c := h.NewConn(newFakeSocket(), "10.0.0.1:1")
	sink := &captureSink{}
	router := NewRouter(sink, "Notification", nil, nil)

	router.OnMessage(c, []byte(`{"body":"no title here"}`))

	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	if sink.events[0].Title != "Notification" {
		t.Fatalf("expected default title, got %q", sink.events[0].Title)
	}
}

func TestRouterTreatsUnparseableFramesAsRawBody(t *testing.T) {
	t.Parallel()

	h := newTestHub()
	c := h.NewConn(newFakeSocket(), "10.0.0.1:1")
	sink := &captureSink{}
	router := NewRouter(sink, "Notification", nil, nil)

	frames := [][]byte{
		[]byte("plain text ping"),
		[]byte(`{"title":"only title"}`),
		[]byte(`{broken json`),
	}
	for _, frame := range frames {
		router.OnMessage(c, frame)
	}

	if len(sink.events) != len(frames) {
		t.Fatalf("expected %d events, got %d", len(frames), len(sink.events))
	}
	for i, event := range sink.events {
		if event.Title != "Notification" {
			t.Fatalf("frame %d: expected default title, got %q", i, event.Title)
		}
		if event.Body != string(frames[i]) {
			t.Fatalf("frame %d: body = %q, want raw frame", i, event.Body)
		}
	}
}
