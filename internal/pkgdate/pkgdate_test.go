package pkgdate

import (
	"errors"
	"testing"
	"time"
)

func TestToUTCEpoch_WithZone(t *testing.T) {
	got, warn, err := ToUTCEpoch("Mon Oct 9 23:35:09 CDT 2017")
	if err != nil {
		t.Fatalf("ToUTCEpoch error: %v", err)
	}
	if warn != "" {
		t.Fatalf("unexpected warning %q", warn)
	}
	want := time.Date(2017, time.October, 10, 4, 35, 9, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestToUTCEpoch_PaddedDay(t *testing.T) {
	got, _, err := ToUTCEpoch("Mon Oct  9 09:35:09 CDT 2017")
	if err != nil {
		t.Fatalf("ToUTCEpoch error: %v", err)
	}
	want := time.Date(2017, time.October, 9, 14, 35, 9, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestToUTCEpoch_NoZoneIsUTC(t *testing.T) {
	got, warn, err := ToUTCEpoch("Fri Jul 19 10:00:00 2019")
	if err != nil {
		t.Fatalf("ToUTCEpoch error: %v", err)
	}
	if warn != "" {
		t.Fatalf("unexpected warning %q", warn)
	}
	want := time.Date(2019, time.July, 19, 10, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestToUTCEpoch_HalfHourZone(t *testing.T) {
	got, _, err := ToUTCEpoch("Tue Jan 1 05:30:00 IST 2019")
	if err != nil {
		t.Fatalf("ToUTCEpoch error: %v", err)
	}
	want := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestToUTCEpoch_UnknownZoneFallsBackToUTC(t *testing.T) {
	got, warn, err := ToUTCEpoch("Fri Feb 15 12:00:00 HST 2019")
	if err != nil {
		t.Fatalf("ToUTCEpoch error: %v", err)
	}
	if warn == "" {
		t.Fatalf("expected a warning for HST")
	}
	want := time.Date(2019, time.February, 15, 12, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestToUTCEpoch_BadFormat(t *testing.T) {
	got, _, err := ToUTCEpoch("2019-02-15T12:00:00Z")
	if !errors.Is(err, ErrBadFormat) {
		t.Fatalf("expected ErrBadFormat, got %v, %d", err, got)
	}

	// Matches the shape but not a real month.
	if _, _, err = ToUTCEpoch("Mon Foo 9 23:35:09 CDT 2017"); err == nil {
		t.Fatalf("expected parse failure for an unknown month")
	}
}

func TestToUTCEpoch_BeforeEpoch(t *testing.T) {
	got, _, err := ToUTCEpoch("Wed Dec 31 23:59:59 UTC 1969")
	if err != nil {
		t.Fatalf("ToUTCEpoch error: %v", err)
	}
	if got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}

func TestOffset(t *testing.T) {
	if off, ok := Offset("IST"); !ok || off != 5*3600+1800 {
		t.Fatalf("IST offset = %d, %v", off, ok)
	}
	if _, ok := Offset("HST"); ok {
		t.Fatalf("HST must not be supported")
	}
}
