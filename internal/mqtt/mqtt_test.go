package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

func TestTopicSystem(t *testing.T) {
	expected := "home/doorbell/system"
	if TopicSystem != expected {
		t.Errorf("unexpected system topic: got %s, want %s", TopicSystem, expected)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-02-03T10:30:45Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
		Event:     "RECONNECTED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T19:05:51Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestFormatSystemPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 12, 0, 0, 0, loc),
		Event:     "STARTUP",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	json.Unmarshal(payload, &parsed)
	if parsed.System.Timestamp != "2026-02-03T10:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.System.Timestamp)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload := WillPayload(time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC))

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "SIGTERM", Retained: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	if f.SystemEvents[0].Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", f.SystemEvents[0].Reason)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}
	if len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system payload, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Errorf("expected no system events recorded on error, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherEventsAndReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	f.PublishSystem(SystemEvent{Event: "SHUTDOWN"})
	f.Close()

	got := f.Events()
	want := []string{"STARTUP", "HEARTBEAT", "SHUTDOWN"}
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if !f.Closed || !f.IsConnected() {
		t.Error("expected closed and connected")
	}

	f.Reset()
	if len(f.SystemEvents) != 0 || f.Closed || f.IsConnected() {
		t.Error("Reset did not clear state")
	}
}

// fakeToken is a completed paho token.
type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of paho.Client the publisher uses.
type fakeClient struct {
	paho.Client

	mu      sync.Mutex
	open    bool
	err     error
	sent    []published
	stopped bool
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return fakeToken{err: c.err}
	}
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	return fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *fakeClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func newTestPublisher(c *fakeClient) *RealPublisher {
	p := newPublisher(discard())
	p.client = c
	return p
}

func TestRealPublisherPublishesWhenConnected(t *testing.T) {
	c := &fakeClient{open: true}
	p := newTestPublisher(c)

	if err := p.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.sent) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(c.sent))
	}
	if c.sent[0].topic != TopicSystem || c.sent[0].qos != 1 || !c.sent[0].retained {
		t.Errorf("unexpected publish: %+v", c.sent[0])
	}
	if !p.IsConnected() {
		t.Error("expected IsConnected=true")
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)

	p.PublishSystem(SystemEvent{Event: "STARTUP"})
	p.PublishSystem(SystemEvent{Event: "HEARTBEAT"})

	if len(c.sent) != 0 {
		t.Fatalf("expected no publishes while disconnected, got %d", len(c.sent))
	}
	if p.buf.len() != 2 {
		t.Fatalf("expected 2 buffered, got %d", p.buf.len())
	}

	// First connect replays the backlog without a RECONNECTED announcement.
	c.setOpen(true)
	p.onConnect(c)

	if len(c.sent) != 2 {
		t.Fatalf("expected 2 replayed, got %d", len(c.sent))
	}
	var first SystemPayload
	json.Unmarshal(c.sent[0].payload, &first)
	if first.System.Event != "STARTUP" {
		t.Errorf("expected STARTUP replayed first, got %s", first.System.Event)
	}
	if p.buf.len() != 0 {
		t.Errorf("expected empty buffer after replay, got %d", p.buf.len())
	}
}

func TestRealPublisherAnnouncesReconnect(t *testing.T) {
	c := &fakeClient{open: true}
	p := newTestPublisher(c)
	p.onConnect(c)

	c.setOpen(false)
	p.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	c.setOpen(true)
	p.onConnect(c)

	if len(c.sent) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(c.sent))
	}
	var ev SystemPayload
	json.Unmarshal(c.sent[0].payload, &ev)
	if ev.System.Event != EventReconnected {
		t.Errorf("expected RECONNECTED first, got %s", ev.System.Event)
	}
	json.Unmarshal(c.sent[1].payload, &ev)
	if ev.System.Event != "HEARTBEAT" {
		t.Errorf("expected HEARTBEAT replayed, got %s", ev.System.Event)
	}
}

func TestRealPublisherRequeuesOnError(t *testing.T) {
	c := &fakeClient{open: true, err: errors.New("broker gone")}
	p := newTestPublisher(c)

	if err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Fatal("expected error")
	}
	if p.buf.len() != 1 {
		t.Errorf("expected failed publish to be buffered, got %d", p.buf.len())
	}
}

func TestRealPublisherClose(t *testing.T) {
	c := &fakeClient{open: true}
	p := newTestPublisher(c)

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.stopped {
		t.Error("expected Disconnect to be called")
	}
}
