package inventory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dlminvestments/ansible-power-aix/internal/level"
)

const lslppSample = `#Package Name:Fileset:Level:State:PTF Id:Fix State:Type:Description
bos:bos.rte:7.1.5.0: : :C: :Base Operating System Runtime
bos.net:bos.net.tcp.client_core:7.2.3.15: : :C: :TCP/IP Client Core Support
openssl.base:openssl.base:1.0.2.1500: : :C: :Open Secure Socket Layer
garbage line
rpm.rte:rpm.rte:4.9.1-3: : :C: :RPM Package Manager
broken:broken.rte:7.x.1.0: : :C: :Not a level
`

func TestParseFilesets(t *testing.T) {
	table, warnings, err := ParseFilesets(context.Background(), strings.NewReader(lslppSample))
	if err != nil {
		t.Fatalf("ParseFilesets error: %v", err)
	}

	fs, ok := table.Lookup("bos.net.tcp.client_core")
	if !ok {
		t.Fatalf("expected bos.net.tcp.client_core in table")
	}
	if fs.Level.String() != "7.2.3.15" {
		t.Fatalf("expected display level 7.2.3.15, got %q", fs.Level.String())
	}
	if fs.Package != "bos.net" {
		t.Fatalf("expected package bos.net, got %q", fs.Package)
	}

	rpm, ok := table.Lookup("rpm.rte")
	if !ok {
		t.Fatalf("expected rpm.rte in table")
	}
	if level.CompareOrdinal(rpm.Level.Ordinal(), level.Ordinal{4, 9, 1, 3}) != 0 {
		t.Fatalf("expected hyphenated level to become 4.9.1.3, got %v", rpm.Level.Ordinal())
	}

	if _, ok := table.Lookup("broken.rte"); ok {
		t.Fatalf("expected fileset with non-numeric level to be excluded")
	}
	// The header row has a non-numeric level field too.
	if _, ok := table.Lookup("Fileset"); ok {
		t.Fatalf("expected header row to be excluded")
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings (header, garbage, broken), got %d: %v", len(warnings), warnings)
	}
	if len(table) != 4 {
		t.Fatalf("expected 4 filesets, got %d", len(table))
	}
}

func TestWriteFilesets_RoundTrip(t *testing.T) {
	table, _, err := ParseFilesets(context.Background(), strings.NewReader(lslppSample))
	if err != nil {
		t.Fatalf("ParseFilesets error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteFilesets(&buf, table); err != nil {
		t.Fatalf("WriteFilesets error: %v", err)
	}

	again, warnings, err := ParseFilesets(context.Background(), &buf)
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected serialized form to reparse cleanly, got %v", warnings)
	}
	if len(again) != len(table) {
		t.Fatalf("expected %d entries after round trip, got %d", len(table), len(again))
	}
	for name, fs := range table {
		got, ok := again[name]
		if !ok {
			t.Fatalf("fileset %s lost in round trip", name)
		}
		if level.Compare(got.Level, fs.Level) != 0 || got.Level.String() != fs.Level.String() {
			t.Fatalf("fileset %s: got %s, want %s", name, got.Level, fs.Level)
		}
	}
}
