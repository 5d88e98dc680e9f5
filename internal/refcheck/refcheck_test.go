// ABOUTME: Tests for the NTP cross-check result formatting
// ABOUTME: Network-dependent queries are not exercised here
package refcheck

import (
	"strings"
	"testing"
	"time"
)

func TestResultString(t *testing.T) {
	r := Result{
		NTPServer: "pool.ntp.org",
		NTPOffset: 12 * time.Millisecond,
		TSPOffset: 15 * time.Millisecond,
		Delta:     3 * time.Millisecond,
	}

	s := r.String()
	if !strings.Contains(s, "pool.ntp.org") {
		t.Errorf("expected server name in %q", s)
	}
	if !strings.Contains(s, "delta 3ms") {
		t.Errorf("expected delta in %q", s)
	}
}

func TestCompareBadServer(t *testing.T) {
	if testing.Short() {
		t.Skip("network test")
	}

	if _, err := Compare("127.0.0.1:1", 0); err == nil {
		t.Error("expected error querying a dead NTP server")
	}
}
