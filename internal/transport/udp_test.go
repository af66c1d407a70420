package transport

import (
	"net"
	"testing"
	"time"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	server, err := Bind(0)
	if err != nil {
		t.Fatalf("bind server: %v", err)
	}
	defer server.Close()

	client, err := Bind(0)
	if err != nil {
		t.Fatalf("bind client: %v", err)
	}
	defer client.Close()

	if err := client.Send([]byte("HELLO"), "127.0.0.1", server.Port()); err != nil {
		t.Fatalf("send: %v", err)
	}

	dgram, err := server.Receive(time.Second, 0)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	if string(dgram.Payload) != "HELLO" {
		t.Fatalf("expected HELLO, got %q", dgram.Payload)
	}
	if dgram.Address != "127.0.0.1" {
		t.Fatalf("expected loopback source, got %q", dgram.Address)
	}
}

func TestReceiveTimesOut(t *testing.T) {
	server, err := Bind(0)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer server.Close()

	_, err = server.Receive(20*time.Millisecond, 0)
	if err == nil {
		t.Fatal("expected timeout error")
	}

	netErr, ok := err.(net.Error)
	if !ok || !netErr.Timeout() {
		t.Fatalf("expected a net.Error with Timeout() true, got %v", err)
	}
}

func TestPortReturnsBoundPort(t *testing.T) {
	s, err := Bind(0)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	defer s.Close()

	if s.Port() == 0 {
		t.Fatal("expected non-zero ephemeral port after bind")
	}
}
