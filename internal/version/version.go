// ABOUTME: Version and product identity constants
// ABOUTME: Used by discovery advertisement and the TUI header
package version

const (
	Product      = "TSP Sync Client"
	Manufacturer = "TimeSync Protocol"
	Version      = "0.1.0"
)
