// ABOUTME: Clock offset estimation from ping/pong timestamp pairs
// ABOUTME: Midpoint raw-offset math plus a median smoothing filter
package estimate

import "sort"

// DefaultWindow is the number of recent samples the filter keeps.
const DefaultWindow = 5

// RawOffset computes a single offset sample from one completed exchange.
// roundTrip is the full local round trip (receive - send); the one-way delay
// is assumed to be half of it, the standard NTP-style midpoint approximation.
// The returned offset is server clock minus local clock, in microseconds.
func RawOffset(serverTime, probeClientTime, localReceiveTime uint64) (offset int64, roundTrip uint64) {
	roundTrip = localReceiveTime - probeClientTime
	offset = int64(serverTime) - int64(roundTrip/2) - int64(probeClientTime)
	return offset, roundTrip
}

// OffsetFilter smooths raw offset samples with a bounded sliding window.
// The output is the median of the last N samples, which damps single-sample
// jitter: one extreme outlier amid steady samples does not move the output
// at all, and a constant input stream converges to that constant.
//
// Not safe for concurrent use; it is only ever touched from the sync
// client's run goroutine.
type OffsetFilter struct {
	window  []int64
	scratch []int64
	size    int
	next    int
	count   int
}

// NewOffsetFilter creates a filter keeping the given number of samples.
// A size below 1 falls back to DefaultWindow.
func NewOffsetFilter(size int) *OffsetFilter {
	if size < 1 {
		size = DefaultWindow
	}
	return &OffsetFilter{
		window:  make([]int64, size),
		scratch: make([]int64, 0, size),
		size:    size,
	}
}

// Calculate records a raw sample and returns the current filtered offset.
func (f *OffsetFilter) Calculate(raw int64) int64 {
	f.window[f.next] = raw
	f.next = (f.next + 1) % f.size
	if f.count < f.size {
		f.count++
	}

	f.scratch = f.scratch[:0]
	if f.count < f.size {
		f.scratch = append(f.scratch, f.window[:f.count]...)
	} else {
		f.scratch = append(f.scratch, f.window...)
	}
	sort.Slice(f.scratch, func(i, j int) bool { return f.scratch[i] < f.scratch[j] })

	mid := f.count / 2
	if f.count%2 == 1 {
		return f.scratch[mid]
	}
	return (f.scratch[mid-1] + f.scratch[mid]) / 2
}

// Count returns how many samples have been absorbed, capped at the window
// size.
func (f *OffsetFilter) Count() int {
	return f.count
}
