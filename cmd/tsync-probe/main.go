// ABOUTME: Headless one-shot probe tool for TSP servers
// ABOUTME: Syncs for a fixed duration and prints the resulting estimate
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/TimeSync-Protocol/tsync-go/internal/client"
	"github.com/TimeSync-Protocol/tsync-go/internal/refcheck"
)

var (
	serverAddr = flag.String("server", "localhost:5810", "Time server address")
	interval   = flag.Duration("interval", 100*time.Millisecond, "Probe interval")
	duration   = flag.Duration("duration", 5*time.Second, "How long to sync before reporting")
	ntpCheck   = flag.String("ntp-check", "", "NTP server to cross-check against")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	c := client.New(client.Config{
		ServerAddr: *serverAddr,
		Interval:   *interval,
	})

	fmt.Printf("Probing %s every %v for %v...\n", *serverAddr, *interval, *duration)

	if err := c.Start(); err != nil {
		log.Fatalf("Start failed: %v", err)
	}

	time.Sleep(*duration)
	c.Stop()

	meta := c.GetMetadata()
	fmt.Printf("Probes sent:      %d\n", meta.ProbesSent)
	fmt.Printf("Replies received: %d\n", meta.RepliesReceived)
	if meta.RepliesReceived == 0 {
		log.Fatalf("No replies from %s", *serverAddr)
	}

	fmt.Printf("Offset:           %+dµs\n", meta.Offset)
	fmt.Printf("Round trip:       %dµs\n", meta.RoundTrip)

	if *ntpCheck != "" {
		result, err := refcheck.Compare(*ntpCheck, meta.Offset)
		if err != nil {
			log.Fatalf("NTP cross-check failed: %v", err)
		}
		fmt.Printf("Cross-check:      %s\n", result)
	}
}
