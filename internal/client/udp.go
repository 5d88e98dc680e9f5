// ABOUTME: UDP time-sync client for the TSP ping/pong protocol
// ABOUTME: Periodic probes, reply correlation, and shared offset metadata
package client

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/TimeSync-Protocol/tsync-go/internal/estimate"
	"github.com/TimeSync-Protocol/tsync-go/internal/protocol"
	"github.com/google/uuid"
)

// Level is the severity of a client log report.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// String returns the severity name.
func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logf is the sink for per-tick and per-reply reports. Tick and reply
// handling have no caller awaiting a result, so failures are reported here
// instead of propagated.
type Logf func(level Level, format string, args ...any)

// Clock supplies the local time in microseconds. It must be monotonically
// increasing between a probe send and its reply.
type Clock func() uint64

// Config holds client configuration.
type Config struct {
	// ServerAddr is the time server address (host:port).
	ServerAddr string

	// Interval is the probe period.
	Interval time.Duration

	// Now overrides the clock source. Defaults to wall-clock Unix
	// microseconds.
	Now Clock

	// Logf overrides the report sink. Defaults to log.Printf with the
	// severity prefixed.
	Logf Logf

	// FilterWindow overrides the smoothing window size.
	FilterWindow int
}

// Metadata is the externally observable sync state. All times are in
// microseconds of the local clock except Offset, which is the filtered
// estimate of (server clock - local clock).
type Metadata struct {
	Offset          int64
	RoundTrip       uint64
	ProbesSent      uint64
	RepliesReceived uint64
	LastReplyTime   uint64
}

// Lifecycle errors.
var (
	ErrAlreadyStarted = errors.New("client: already started")
	ErrStopped        = errors.New("client: stopped")
)

const (
	stateIdle = iota
	stateRunning
	stateStopped
)

// packetConn is the slice of net.UDPConn the client relies on, split out so
// tests can substitute a fake transport.
type packetConn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// Client exchanges timestamped UDP probes with a TSP server and maintains a
// smoothed estimate of the server's clock offset.
//
// A single run goroutine owns the probe ticker and the reply channel, so the
// tick and reply paths never execute concurrently; that is why lastPing
// needs no lock. Only the metadata record is shared with other goroutines,
// guarded by mu.
type Client struct {
	config     Config
	now        Clock
	logf       Logf
	instanceID string

	conn   packetConn
	filter *estimate.OffsetFilter

	// Owned by the run goroutine.
	lastPing protocol.Ping
	hasPing  bool

	mu       sync.Mutex
	state    int
	metadata Metadata

	packets chan []byte
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a client. It does not touch the network; call Start.
func New(config Config) *Client {
	c := &Client{
		config:     config,
		now:        config.Now,
		logf:       config.Logf,
		instanceID: uuid.NewString(),
		filter:     estimate.NewOffsetFilter(config.FilterWindow),
		packets:    make(chan []byte, 16),
		done:       make(chan struct{}),
	}

	if c.now == nil {
		c.now = func() uint64 { return uint64(time.Now().UnixMicro()) }
	}
	if c.logf == nil {
		c.logf = func(level Level, format string, args ...any) {
			log.Printf("tsync client: %s: %s", level, fmt.Sprintf(format, args...))
		}
	}

	return c
}

// InstanceID returns the unique identity of this client instance, used for
// discovery advertisement and monitor snapshots.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// Start connects the UDP socket and begins the probe cycle. A setup failure
// is returned synchronously and leaves the client idle, able to Start again.
// Starting a running or stopped client returns an error; the client cannot
// be restarted after Stop.
func (c *Client) Start() error {
	c.mu.Lock()
	switch c.state {
	case stateRunning:
		c.mu.Unlock()
		return ErrAlreadyStarted
	case stateStopped:
		c.mu.Unlock()
		return ErrStopped
	}
	c.mu.Unlock()

	addr, err := net.ResolveUDPAddr("udp", c.config.ServerAddr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", c.config.ServerAddr, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.config.ServerAddr, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = stateRunning
	c.mu.Unlock()

	c.wg.Add(2)
	go c.readLoop()
	go c.run()

	return nil
}

// Stop tears down the socket and the probe cycle. It is synchronous: once
// Stop returns, no further metadata mutation happens, so GetMetadata
// immediately after Stop observes the final state. Stopping an idle or
// already-stopped client is a no-op. Stop is terminal.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.state != stateRunning {
		// Never started, or already stopped.
		c.mu.Unlock()
		return
	}
	c.state = stateStopped
	c.mu.Unlock()

	close(c.done)
	c.conn.Close()
	c.wg.Wait()
}

// GetOffset returns the current filtered offset in microseconds.
func (c *Client) GetOffset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metadata.Offset
}

// GetMetadata returns a consistent snapshot of the sync state.
func (c *Client) GetMetadata() Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metadata
}

// readLoop pulls datagrams off the socket and hands them to the run
// goroutine. It never blocks on a full queue; excess datagrams are dropped
// and the next probe cycle recovers naturally.
func (c *Client) readLoop() {
	defer c.wg.Done()

	buf := make([]byte, 64)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-c.done:
			default:
				if !errors.Is(err, net.ErrClosed) {
					c.logf(LevelError, "socket read: %v", err)
				}
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case c.packets <- data:
		default:
			c.logf(LevelWarning, "reply queue full, dropping datagram")
		}
	}
}

// run is the single execution context for ticks and replies.
func (c *Client) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.tick()
		case data := <-c.packets:
			c.handlePong(data)
		}
	}
}

// tick sends one probe. Whether or not the previous reply arrived, the new
// probe overwrites the outstanding one; a late reply to the old probe will
// fail correlation and be dropped.
func (c *Client) tick() {
	ping := protocol.NewPing(c.now())

	n, err := c.conn.Write(protocol.MarshalPing(ping))
	if err != nil {
		c.logf(LevelError, "ping send failed: %v", err)
		return
	}
	if n != protocol.PingSize {
		// The probe never made it out whole; treat it as never sent.
		c.logf(LevelError, "short ping send: wrote %d of %d bytes", n, protocol.PingSize)
		return
	}

	c.mu.Lock()
	c.metadata.ProbesSent++
	c.mu.Unlock()

	c.lastPing = ping
	c.hasPing = true
}

// handlePong validates and correlates one reply, then folds it into the
// offset estimate. Every rejection leaves the metadata untouched; the next
// tick is the sole retry mechanism.
func (c *Client) handlePong(data []byte) {
	receiveTime := c.now()

	pong, err := protocol.UnmarshalPong(data)
	if err != nil {
		c.logf(LevelError, "dropping reply: %v", err)
		return
	}

	if pong.Version != protocol.Version {
		c.logf(LevelWarning, "dropping reply: bad version %d", pong.Version)
		return
	}
	if pong.MessageID != protocol.MessageIDPong {
		c.logf(LevelWarning, "dropping reply: bad message id %d", pong.MessageID)
		return
	}

	if !c.hasPing || pong.ClientTime != c.lastPing.ClientTime {
		c.logf(LevelWarning, "dropping reply: stale echo %d, outstanding ping %d",
			pong.ClientTime, c.lastPing.ClientTime)
		return
	}

	raw, roundTrip := estimate.RawOffset(pong.ServerTime, c.lastPing.ClientTime, receiveTime)
	filtered := c.filter.Calculate(raw)

	c.mu.Lock()
	c.metadata.Offset = filtered
	c.metadata.RoundTrip = roundTrip
	c.metadata.RepliesReceived++
	c.metadata.LastReplyTime = receiveTime
	c.mu.Unlock()
}
