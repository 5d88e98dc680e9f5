// ABOUTME: Cross-check of the TSP offset estimate against public NTP
// ABOUTME: One-shot sanity comparison, never part of the sync loop itself
package refcheck

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// Result compares the TSP estimate with an NTP server's view.
//
// The two offsets measure different things unless the TSP server's clock is
// wall time: TSP offset is (TSP server clock - local clock), while the NTP
// offset is (true wall time - local clock). Delta is only meaningful when
// the TSP server serves wall-clock microseconds.
type Result struct {
	NTPServer string
	NTPOffset time.Duration
	TSPOffset time.Duration
	Delta     time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("ntp %s: offset %v, tsp offset %v, delta %v",
		r.NTPServer, r.NTPOffset, r.TSPOffset, r.Delta)
}

// Compare queries the given NTP server once and compares its clock offset
// with the client's filtered offset (in microseconds).
func Compare(ntpServer string, tspOffsetMicros int64) (Result, error) {
	resp, err := ntp.Query(ntpServer)
	if err != nil {
		return Result{}, fmt.Errorf("ntp query %s: %w", ntpServer, err)
	}
	if err := resp.Validate(); err != nil {
		return Result{}, fmt.Errorf("ntp response from %s: %w", ntpServer, err)
	}

	tspOffset := time.Duration(tspOffsetMicros) * time.Microsecond

	return Result{
		NTPServer: ntpServer,
		NTPOffset: resp.ClockOffset,
		TSPOffset: tspOffset,
		Delta:     tspOffset - resp.ClockOffset,
	}, nil
}
