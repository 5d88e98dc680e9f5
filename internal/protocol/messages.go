// ABOUTME: TSP wire message definitions and binary codec
// ABOUTME: Fixed-layout big-endian ping/pong records exchanged over UDP
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Version is the protocol version carried in every message.
const Version = 1

// Message IDs.
const (
	MessageIDPing = 1
	MessageIDPong = 2
)

// Wire sizes in bytes. Both records are fixed-size; a datagram of any other
// length is not a valid message.
const (
	PingSize = 10 // version(1) + message_id(1) + client_time(8)
	PongSize = 18 // version(1) + message_id(1) + client_time(8) + server_time(8)
)

// Ping is the probe sent by the client. ClientTime is the local clock in
// microseconds at send time and doubles as the correlation key: the server
// echoes it back verbatim in the pong.
type Ping struct {
	Version    uint8
	MessageID  uint8
	ClientTime uint64
}

// Pong is the server's reply. ClientTime echoes the probe; ServerTime is the
// remote clock in microseconds at the instant the server processed the probe.
type Pong struct {
	Version    uint8
	MessageID  uint8
	ClientTime uint64
	ServerTime uint64
}

// NewPing builds a probe for the given client timestamp.
func NewPing(clientTime uint64) Ping {
	return Ping{Version: Version, MessageID: MessageIDPing, ClientTime: clientTime}
}

// MarshalPing encodes a ping into its fixed 10-byte wire form. Never fails.
func MarshalPing(p Ping) []byte {
	buf := make([]byte, PingSize)
	buf[0] = p.Version
	buf[1] = p.MessageID
	binary.BigEndian.PutUint64(buf[2:], p.ClientTime)
	return buf
}

// UnmarshalPong decodes a pong from a received datagram. The only validation
// performed here is the exact length check; version, message id, and echo
// correlation are the caller's job since only the caller knows the
// outstanding ping.
func UnmarshalPong(data []byte) (Pong, error) {
	if len(data) != PongSize {
		return Pong{}, fmt.Errorf("pong: got %d bytes, want %d", len(data), PongSize)
	}

	return Pong{
		Version:    data[0],
		MessageID:  data[1],
		ClientTime: binary.BigEndian.Uint64(data[2:10]),
		ServerTime: binary.BigEndian.Uint64(data[10:18]),
	}, nil
}

// MarshalPong encodes a pong. The client never sends pongs; this exists for
// the in-process responders used in tests and tooling.
func MarshalPong(p Pong) []byte {
	buf := make([]byte, PongSize)
	buf[0] = p.Version
	buf[1] = p.MessageID
	binary.BigEndian.PutUint64(buf[2:], p.ClientTime)
	binary.BigEndian.PutUint64(buf[10:], p.ServerTime)
	return buf
}
