//go:build pcap
// +build pcap

package location

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/monitoring"
)

// ReplayConfig configures PCAP fix replay behavior.
type ReplayConfig struct {
	// SpeedMultiplier controls replay speed (1.0 = real-time, 2.0 = 2x speed)
	SpeedMultiplier float64
}

// ReplayPCAP replays NMEA-over-UDP traffic from a capture file, preserving
// the original packet timing scaled by the speed multiplier. Decoded fixes
// are delivered on out, which is closed when the file is exhausted.
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, out chan<- Fix, config ReplayConfig) error {
	defer close(out)

	if config.SpeedMultiplier <= 0 {
		config.SpeedMultiplier = 1.0
	}

	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter '%s': %w", filterStr, err)
	}
	monitoring.Logf("gps replay: BPF filter set: %s (speed: %.1fx)", filterStr, config.SpeedMultiplier)

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetCount := 0
	fixCount := 0
	var lastPacketTime time.Time

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("gps replay stopping due to context cancellation (processed %d packets)", packetCount)
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				monitoring.Logf("gps replay complete: %d packets, %d fixes", packetCount, fixCount)
				return nil
			}
			packetCount++

			captureTime := packet.Metadata().Timestamp
			if !lastPacketTime.IsZero() {
				delay := captureTime.Sub(lastPacketTime)
				scaledDelay := time.Duration(float64(delay) / config.SpeedMultiplier)
				if scaledDelay > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(scaledDelay):
					}
				}
			}
			lastPacketTime = captureTime

			app := packet.ApplicationLayer()
			if app == nil {
				continue
			}

			for _, line := range strings.Split(string(app.Payload()), "\n") {
				fix, err := ParseSentence(line, time.Now())
				if err != nil {
					continue
				}
				fixCount++
				select {
				case out <- fix:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
