package level

import (
	"fmt"
	"strconv"
	"strings"
)

// Ordinal is the integer-vector form of a fileset level, one element per segment.
type Ordinal []int

// Level is a fileset level as reported by the system ("7.2.3.15", "1.0.2.2000", "7200-03-03").
//
// Hyphens are treated as segment separators, so "7200-03-03" orders like "7200.3.3".
type Level struct {
	raw string
	ord Ordinal
}

// Range is an inclusive level interval: Min <= level <= Max.
type Range struct {
	Min Level
	Max Level
}

func Parse(raw string) (Level, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Level{}, fmt.Errorf("level: parse %q: %w", raw, ErrEmpty)
	}

	parts := strings.Split(strings.ReplaceAll(s, "-", "."), ".")
	ord := make(Ordinal, 0, len(parts))
	for _, p := range parts {
		if !isDigits(p) {
			return Level{}, fmt.Errorf("level: parse %q: segment %q: %w", raw, p, ErrMalformed)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Level{}, fmt.Errorf("level: parse %q: segment %q: %w", raw, p, ErrMalformed)
		}
		ord = append(ord, n)
	}
	return Level{raw: s, ord: ord}, nil
}

func MustParse(raw string) Level {
	l, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the level as it was reported.
func (l Level) String() string {
	return l.raw
}

// Ordinal returns a copy of the integer vector.
func (l Level) Ordinal() Ordinal {
	out := make(Ordinal, len(l.ord))
	copy(out, l.ord)
	return out
}

// Compare compares a and b segment by segment, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// Missing trailing segments compare as zero, so "7.2" == "7.2.0.0".
func Compare(a, b Level) int {
	return CompareOrdinal(a.ord, b.ord)
}

func CompareOrdinal(a, b Ordinal) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// Contains reports whether l lies within the inclusive range.
func (r Range) Contains(l Level) bool {
	return Compare(l, r.Min) >= 0 && Compare(l, r.Max) <= 0
}

func (r Range) String() string {
	return r.Min.String() + " " + r.Max.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
