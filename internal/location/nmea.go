package location

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
)

// ErrNoFix is returned for well-formed sentences that carry no valid
// position (RMC status V, GGA fix quality 0). Callers should skip these.
var ErrNoFix = errors.New("sentence carries no valid fix")

// ErrUnsupportedSentence is returned for sentence types other than RMC and
// GGA. Receivers interleave many sentence types; callers should skip these.
var ErrUnsupportedSentence = errors.New("unsupported NMEA sentence")

// nominal horizontal error per unit of HDOP, used to estimate accuracy
// from GGA sentences.
const metersPerHDOP = 5.0

// ParseSentence decodes an RMC or GGA sentence into a Fix. The fix is
// stamped with now rather than the sentence's own time-of-day field, since
// the staleness policy compares against the local clock.
func ParseSentence(line string, now time.Time) (Fix, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, fmt.Errorf("sentence does not start with $: %q", line)
	}

	body, err := verifyChecksum(line)
	if err != nil {
		return Fix{}, err
	}

	fields := strings.Split(body, ",")
	if len(fields) == 0 || len(fields[0]) < 5 {
		return Fix{}, fmt.Errorf("malformed sentence header: %q", line)
	}

	// Talker-agnostic: GPRMC, GNRMC, GPGGA, GNGGA etc.
	switch fields[0][2:] {
	case "RMC":
		return parseRMC(fields, now)
	case "GGA":
		return parseGGA(fields, now)
	default:
		return Fix{}, ErrUnsupportedSentence
	}
}

// verifyChecksum validates the *hh trailer if present and returns the
// sentence body between $ and *.
func verifyChecksum(line string) (string, error) {
	body := line[1:]
	star := strings.LastIndexByte(body, '*')
	if star < 0 {
		// Checksum is optional in NMEA 0183; accept bare sentences.
		return body, nil
	}

	sum, err := strconv.ParseUint(body[star+1:], 16, 8)
	if err != nil {
		return "", fmt.Errorf("malformed checksum in %q: %w", line, err)
	}

	var calc byte
	for i := 0; i < star; i++ {
		calc ^= body[i]
	}
	if calc != byte(sum) {
		return "", fmt.Errorf("checksum mismatch in %q: calculated %02X, sentence says %02X", line, calc, sum)
	}
	return body[:star], nil
}

// parseRMC handles recommended-minimum sentences:
// $GPRMC,hhmmss,A,ddmm.mmmm,N,dddmm.mmmm,E,speed,course,ddmmyy,...
func parseRMC(fields []string, now time.Time) (Fix, error) {
	if len(fields) < 7 {
		return Fix{}, fmt.Errorf("RMC sentence has %d fields, want at least 7", len(fields))
	}
	if fields[2] != "A" {
		return Fix{}, ErrNoFix
	}

	coord, err := parseCoordinate(fields[3], fields[4], fields[5], fields[6])
	if err != nil {
		return Fix{}, fmt.Errorf("RMC coordinate: %w", err)
	}
	return Fix{Coordinate: coord, At: now}, nil
}

// parseGGA handles fix-data sentences:
// $GPGGA,hhmmss,ddmm.mmmm,N,dddmm.mmmm,E,quality,sats,hdop,alt,...
func parseGGA(fields []string, now time.Time) (Fix, error) {
	if len(fields) < 9 {
		return Fix{}, fmt.Errorf("GGA sentence has %d fields, want at least 9", len(fields))
	}
	if fields[6] == "" || fields[6] == "0" {
		return Fix{}, ErrNoFix
	}

	coord, err := parseCoordinate(fields[2], fields[3], fields[4], fields[5])
	if err != nil {
		return Fix{}, fmt.Errorf("GGA coordinate: %w", err)
	}

	fix := Fix{Coordinate: coord, At: now}
	if hdop, err := strconv.ParseFloat(fields[8], 64); err == nil && hdop > 0 {
		fix.Accuracy = hdop * metersPerHDOP
	}
	return fix, nil
}

// parseCoordinate converts NMEA ddmm.mmmm / dddmm.mmmm fields with their
// hemisphere indicators into signed decimal degrees.
func parseCoordinate(latField, latHemi, lngField, lngHemi string) (geo.Coordinate, error) {
	lat, err := parseDegreesMinutes(latField, 2)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("latitude %q: %w", latField, err)
	}
	lng, err := parseDegreesMinutes(lngField, 3)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("longitude %q: %w", lngField, err)
	}

	switch latHemi {
	case "N":
	case "S":
		lat = -lat
	default:
		return geo.Coordinate{}, fmt.Errorf("invalid latitude hemisphere %q", latHemi)
	}
	switch lngHemi {
	case "E":
	case "W":
		lng = -lng
	default:
		return geo.Coordinate{}, fmt.Errorf("invalid longitude hemisphere %q", lngHemi)
	}

	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("coordinate %v out of range", c)
	}
	return c, nil
}

// parseDegreesMinutes converts a ddmm.mmmm style field, where degDigits is
// the number of whole-degree digits (2 for latitude, 3 for longitude).
func parseDegreesMinutes(field string, degDigits int) (float64, error) {
	if len(field) <= degDigits {
		return 0, fmt.Errorf("field too short")
	}
	deg, err := strconv.ParseFloat(field[:degDigits], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid degrees: %w", err)
	}
	min, err := strconv.ParseFloat(field[degDigits:], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes: %w", err)
	}
	if min >= 60 {
		return 0, fmt.Errorf("minutes %v out of range", min)
	}
	return deg + min/60, nil
}
