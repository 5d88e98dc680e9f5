// ABOUTME: Tests for the TSP binary codec
// ABOUTME: Pins wire layout, byte order, and length rejection
package protocol

import (
	"bytes"
	"testing"
)

func TestMarshalPingLayout(t *testing.T) {
	p := NewPing(0x0102030405060708)
	data := MarshalPing(p)

	if len(data) != PingSize {
		t.Fatalf("expected %d bytes, got %d", PingSize, len(data))
	}

	// version, message_id, then client_time big-endian
	want := []byte{1, 1, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if !bytes.Equal(data, want) {
		t.Errorf("wire layout mismatch:\n got %v\nwant %v", data, want)
	}
}

func TestUnmarshalPong(t *testing.T) {
	data := []byte{
		1, 2,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x0f, 0x42, 0x40, // client_time = 1_000_000
		0x00, 0x00, 0x00, 0x00, 0x00, 0x4c, 0x4b, 0x72, // server_time = 5_000_050
	}

	pong, err := UnmarshalPong(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pong.Version != 1 {
		t.Errorf("expected version 1, got %d", pong.Version)
	}
	if pong.MessageID != MessageIDPong {
		t.Errorf("expected message id %d, got %d", MessageIDPong, pong.MessageID)
	}
	if pong.ClientTime != 1000000 {
		t.Errorf("expected client_time 1000000, got %d", pong.ClientTime)
	}
	if pong.ServerTime != 5000050 {
		t.Errorf("expected server_time 5000050, got %d", pong.ServerTime)
	}
}

func TestUnmarshalPongRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, PongSize - 1, PongSize + 1, 64} {
		if _, err := UnmarshalPong(make([]byte, n)); err == nil {
			t.Errorf("expected error for %d-byte buffer", n)
		}
	}
}

func TestPongRoundTrip(t *testing.T) {
	want := Pong{Version: 1, MessageID: 2, ClientTime: 42, ServerTime: 99}

	got, err := UnmarshalPong(MarshalPong(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}
