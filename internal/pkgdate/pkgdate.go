// Package pkgdate converts epkg packaging dates into seconds since the Unix epoch.
//
// emgr prints dates like "Mon Oct  9 23:35:09 CDT 2017", with a zone abbreviation that Go's
// time package cannot resolve on its own, so abbreviations go through a fixed offset table.
package pkgdate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrBadFormat indicates a date matching neither accepted layout.
	ErrBadFormat = errors.New("bad packaging date format")

	reNoZone   = regexp.MustCompile(`^(\S+\s+\S+\s+\d+\s+\d+:\d+:\d+)\s+(\d{4})$`)
	reWithZone = regexp.MustCompile(`^(\S+\s+\S+\s+\d+\s+\d+:\d+:\d+)\s+(\S+)\s+(\d{4})$`)
)

const layout = "Mon Jan 2 15:04:05 2006"

// zoneOffsets are UTC offsets in seconds.
var zoneOffsets = map[string]int64{
	"CDT":  -5 * 3600,
	"CEST": 2 * 3600,
	"CET":  1 * 3600,
	"CST":  -6 * 3600,
	"CT":   -6 * 3600,
	"EDT":  -4 * 3600,
	"EET":  2 * 3600,
	"EST":  -5 * 3600,
	"ET":   -5 * 3600,
	"IST":  5*3600 + 1800,
	"JST":  9 * 3600,
	"MSK":  3 * 3600,
	"MT":   2 * 3600,
	"NZST": 12 * 3600,
	"PDT":  -7 * 3600,
	"PST":  -8 * 3600,
	"SAST": 2 * 3600,
	"UTC":  0,
	"WEST": 1 * 3600,
	"WET":  0,
}

// Offset returns the UTC offset in seconds of a supported zone abbreviation.
func Offset(zone string) (int64, bool) {
	off, ok := zoneOffsets[zone]
	return off, ok
}

// ToUTCEpoch converts a packaging date to seconds since the epoch.
//
// A date without a zone token is taken as UTC. An unsupported zone is also taken as UTC and
// reported through the returned warning. Any value is a valid instant, including negative
// ones; callers must rely on err alone to know whether the date was understood.
func ToUTCEpoch(date string) (sec int64, warning string, err error) {
	date = strings.TrimSpace(date)

	var stamp, zone string
	if m := reNoZone.FindStringSubmatch(date); m != nil {
		stamp, zone = m[1]+" "+m[2], "UTC"
	} else if m := reWithZone.FindStringSubmatch(date); m != nil {
		stamp, zone = m[1]+" "+m[3], m[2]
	} else {
		return 0, "", fmt.Errorf("pkgdate: %q: %w", date, ErrBadFormat)
	}

	t, perr := time.Parse(layout, strings.Join(strings.Fields(stamp), " "))
	if perr != nil {
		return 0, "", fmt.Errorf("pkgdate: cannot parse packaging date %q: %w", date, perr)
	}

	off, ok := Offset(zone)
	if !ok {
		warning = fmt.Sprintf("unsupported time zone %q in %q, using UTC", zone, date)
	}
	return t.Unix() - off, warning, nil
}
