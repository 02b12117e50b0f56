//go:build !pcap
// +build !pcap

package location

import (
	"context"
	"fmt"
)

// ReplayConfig is a stub when pcap is not available.
type ReplayConfig struct {
	SpeedMultiplier float64
}

// ReplayPCAP is a stub that returns an error when pcap support is not compiled in.
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, out chan<- Fix, config ReplayConfig) error {
	close(out)
	return fmt.Errorf("PCAP replay support not compiled in (requires pcap build tag)")
}
