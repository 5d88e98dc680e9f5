// ABOUTME: Entry point for the TSP sync client
// ABOUTME: Parses CLI flags, wires discovery, client, monitor, and TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TimeSync-Protocol/tsync-go/internal/client"
	"github.com/TimeSync-Protocol/tsync-go/internal/discovery"
	"github.com/TimeSync-Protocol/tsync-go/internal/monitor"
	"github.com/TimeSync-Protocol/tsync-go/internal/refcheck"
	"github.com/TimeSync-Protocol/tsync-go/internal/ui"
	"github.com/TimeSync-Protocol/tsync-go/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	serverAddr  = flag.String("server", "", "Time server address host:port (skip mDNS)")
	interval    = flag.Duration("interval", time.Second, "Probe interval")
	name        = flag.String("name", "", "Client friendly name (default: hostname-tsync)")
	logFile     = flag.String("log-file", "tsync-client.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs  = flag.Bool("stream-logs", false, "Alias for -no-tui")
	monitorPort = flag.Int("monitor-port", 0, "Serve websocket metadata snapshots on this port (0 = off)")
	ntpCheck    = flag.String("ntp-check", "", "NTP server to cross-check the offset against on shutdown")
)

func main() {
	flag.Parse()

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	// Determine client name
	clientName := *name
	if clientName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		clientName = fmt.Sprintf("%s-tsync", hostname)
	}

	if !useTUI {
		log.Printf("Starting %s %s: %s", version.Product, version.Version, clientName)
	}

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Handle server discovery if no manual server specified
	serverAddress := *serverAddr
	var disc *discovery.Manager
	if serverAddress == "" {
		log.Printf("Starting time server discovery...")
		disc = discovery.NewManager(discovery.Config{
			InstanceName: clientName,
			MonitorPort:  *monitorPort,
		})
		disc.Browse()
		defer disc.Stop()

		select {
		case server := <-disc.Servers():
			serverAddress = server.Addr()
			log.Printf("Discovered time server at %s", serverAddress)
		case <-time.After(10 * time.Second):
			log.Fatalf("No time server found after 10 seconds")
		}
	}

	c := client.New(client.Config{
		ServerAddr: serverAddress,
		Interval:   *interval,
	})

	if err := c.Start(); err != nil {
		log.Fatalf("Failed to start sync client: %v", err)
	}

	log.Printf("Syncing against %s every %v", serverAddress, *interval)
	connected := true
	updateTUI(ui.StatusMsg{
		Connected:  &connected,
		ServerAddr: serverAddress,
		InstanceID: c.InstanceID(),
	})

	// Monitor endpoint
	var mon *monitor.Monitor
	if *monitorPort != 0 {
		mon = monitor.New(monitor.Config{
			Port:       *monitorPort,
			ServerAddr: serverAddress,
		}, c)
		if err := mon.Start(); err != nil {
			log.Fatalf("Failed to start monitor: %v", err)
		}
		updateTUI(ui.StatusMsg{MonitorAddr: mon.Addr()})

		if disc != nil {
			if err := disc.Advertise(); err != nil {
				log.Printf("Monitor advertisement failed: %v", err)
			}
		}
	}

	// Stats update loop for TUI
	statsDone := make(chan struct{})
	if tuiProg != nil {
		go statsUpdateLoop(c, *interval, updateTUI, statsDone)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if ctrl != nil {
		select {
		case <-ctrl.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	close(statsDone)
	if mon != nil {
		mon.Stop()
	}
	c.Stop()

	meta := c.GetMetadata()
	log.Printf("Final state: offset %dµs, round trip %dµs, %d/%d probes answered",
		meta.Offset, meta.RoundTrip, meta.RepliesReceived, meta.ProbesSent)

	if *ntpCheck != "" {
		result, err := refcheck.Compare(*ntpCheck, meta.Offset)
		if err != nil {
			log.Printf("NTP cross-check failed: %v", err)
		} else {
			log.Printf("NTP cross-check: %s", result)
		}
	}

	log.Printf("Sync client stopped")
}

// statsUpdateLoop periodically pushes sync statistics into the TUI.
func statsUpdateLoop(c *client.Client, interval time.Duration, updateTUI func(ui.StatusMsg), done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			meta := c.GetMetadata()

			quality := ui.QualityLost
			if meta.RepliesReceived > 0 {
				age := time.Duration(uint64(time.Now().UnixMicro())-meta.LastReplyTime) * time.Microsecond
				switch {
				case age < 3*interval:
					quality = ui.QualityGood
				case age < 10*interval:
					quality = ui.QualityDegraded
				}
			}

			updateTUI(ui.StatusMsg{
				Offset:          meta.Offset,
				RoundTrip:       meta.RoundTrip,
				ProbesSent:      meta.ProbesSent,
				RepliesReceived: meta.RepliesReceived,
				Quality:         &quality,
			})
		}
	}
}
