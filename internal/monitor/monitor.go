// ABOUTME: WebSocket observability endpoint for the sync client
// ABOUTME: Streams periodic JSON metadata snapshots to connected observers
package monitor

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/TimeSync-Protocol/tsync-go/internal/client"
	"github.com/gorilla/websocket"
)

// Snapshot is one metadata sample as sent to observers.
type Snapshot struct {
	InstanceID      string `json:"instance_id"`
	ServerAddr      string `json:"server_addr"`
	OffsetMicros    int64  `json:"offset_us"`
	RoundTripMicros uint64 `json:"round_trip_us"`
	ProbesSent      uint64 `json:"probes_sent"`
	RepliesReceived uint64 `json:"replies_received"`
	LastReplyMicros uint64 `json:"last_reply_us"`
}

// Source supplies metadata snapshots; *client.Client satisfies it.
type Source interface {
	InstanceID() string
	GetMetadata() client.Metadata
}

// Config holds monitor configuration.
type Config struct {
	// Port to listen on. Zero picks an ephemeral port.
	Port int

	// ServerAddr is echoed in snapshots so observers know which time
	// server this client tracks.
	ServerAddr string

	// Period between snapshots. Defaults to one second.
	Period time.Duration
}

// Monitor serves metadata snapshots over a websocket endpoint at /ws.
type Monitor struct {
	config   Config
	source   Source
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	observersMu sync.Mutex
	observers   map[*websocket.Conn]chan Snapshot

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a monitor for the given snapshot source.
func New(config Config, source Source) *Monitor {
	if config.Period == 0 {
		config.Period = time.Second
	}

	return &Monitor{
		config: config,
		source: source,
		upgrader: websocket.Upgrader{
			// Observers are trusted local-network dashboards.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		observers: make(map[*websocket.Conn]chan Snapshot),
		stopChan:  make(chan struct{}),
	}
}

// Start binds the listener and begins broadcasting. Non-blocking.
func (m *Monitor) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", m.config.Port))
	if err != nil {
		return fmt.Errorf("monitor listen: %w", err)
	}
	m.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWebSocket)
	m.httpServer = &http.Server{Handler: mux}

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		if err := m.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Monitor server error: %v", err)
		}
	}()
	go m.broadcastLoop()

	log.Printf("Monitor listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound listener address, useful with an ephemeral port.
func (m *Monitor) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Stop closes the endpoint and disconnects all observers.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		if m.httpServer != nil {
			m.httpServer.Close()
		}
		m.wg.Wait()
	})
}

func (m *Monitor) snapshot() Snapshot {
	meta := m.source.GetMetadata()

	return Snapshot{
		InstanceID:      m.source.InstanceID(),
		ServerAddr:      m.config.ServerAddr,
		OffsetMicros:    meta.Offset,
		RoundTripMicros: meta.RoundTrip,
		ProbesSent:      meta.ProbesSent,
		RepliesReceived: meta.RepliesReceived,
		LastReplyMicros: meta.LastReplyTime,
	}
}

// broadcastLoop fans snapshots out to every observer channel. A slow
// observer loses snapshots rather than stalling the loop.
func (m *Monitor) broadcastLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			snap := m.snapshot()

			m.observersMu.Lock()
			for _, ch := range m.observers {
				select {
				case ch <- snap:
				default:
				}
			}
			m.observersMu.Unlock()
		}
	}
}

func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Monitor upgrade failed: %v", err)
		return
	}

	ch := make(chan Snapshot, 4)
	m.observersMu.Lock()
	m.observers[conn] = ch
	m.observersMu.Unlock()

	m.wg.Add(1)
	go m.observerWriter(conn, ch)
}

// observerWriter pushes snapshots to one observer until it goes away.
func (m *Monitor) observerWriter(conn *websocket.Conn, ch chan Snapshot) {
	defer m.wg.Done()
	defer func() {
		m.observersMu.Lock()
		delete(m.observers, conn)
		m.observersMu.Unlock()
		conn.Close()
	}()

	// Send the current state immediately so observers don't wait a full
	// period for their first sample.
	if err := m.writeSnapshot(conn, m.snapshot()); err != nil {
		return
	}

	keepalive := time.NewTicker(10 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case snap := <-ch:
			if err := m.writeSnapshot(conn, snap); err != nil {
				return
			}
		case <-keepalive.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				return
			}
		}
	}
}

func (m *Monitor) writeSnapshot(conn *websocket.Conn, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
