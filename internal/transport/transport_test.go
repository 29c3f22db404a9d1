// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recorder struct {
	got    []any
	err    error
	closed bool
}

func (r *recorder) Send(data any) error { r.got = append(r.got, data); return r.err }
func (r *recorder) Close() error        { r.closed = true; return nil }

func TestChanTransport(t *testing.T) {
	ct := NewChanTransport(2)
	if err := ct.Send("a"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := <-ct.C; got != "a" {
		t.Errorf("received %v, want a", got)
	}

	ct.Close()
	ct.Close()
	if err := ct.Send("b"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	if _, ok := <-ct.C; ok {
		t.Error("channel still open after Close")
	}
}

func TestMultiFansOut(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	m := NewMulti(a, nil, b)

	if err := m.Send(1); !errors.Is(err, boom) {
		t.Errorf("Send error = %v, want boom", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("targets got %d and %d messages, want 1 each", len(a.got), len(b.got))
	}
	m.Close()
	if !a.closed || !b.closed {
		t.Error("Close not forwarded to every target")
	}
}

func TestLoggingTransportNeverFails(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(map[string]any{"stage": "decode"}); err != nil {
		t.Errorf("Send: %v", err)
	}
	if err := lt.Send(func() {}); err != nil {
		t.Errorf("Send of unmarshalable value: %v", err)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst := NewWebSocketTransport(8)
	srv := httptest.NewServer(wst)
	defer srv.Close()
	defer wst.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if wst.Clients() != 1 {
		t.Fatalf("clients = %d, want 1", wst.Clients())
	}

	if err := wst.Send(map[string]string{"stage": "encode"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]string
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg["stage"] != "encode" {
		t.Errorf("got %v", msg)
	}

	wst.Close()
	if err := wst.Send("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}
