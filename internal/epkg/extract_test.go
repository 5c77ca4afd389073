package epkg

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/inventory"
	"github.com/dlminvestments/ansible-power-aix/internal/level"
)

const describeOK = `LABEL:            IJ20785s2a
PACKAGING DATE:   Tue Nov 19 03:22:10 CST 2019
   PACKAGE:       bos.net.tcp.tcpdump
   LOCATION:      /usr/sbin/tcpdump
   PACKAGE:       bos.net.tcp.tcpdump
   LOCATION:      /usr/sbin/tcpdump
   LOCATION:      /usr/lib/libpcap.a
+-----------------------------------------+
PREREQ:
bos.net.tcp.tcpdump 7.2.3.0 7.2.3.15
`

func testContext(t *testing.T) context.Context {
	return log.IntoContext(context.Background(), testr.New(t))
}

func describeMap(m map[string]string) Describer {
	return DescriberFunc(func(_ context.Context, path string) (string, error) {
		text, ok := m[path]
		if !ok {
			return "", errors.New("emgr: cannot read epkg")
		}
		return text, nil
	})
}

func filesets(t *testing.T, pairs ...string) inventory.Filesets {
	t.Helper()
	out := inventory.Filesets{}
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = inventory.Fileset{Name: pairs[i], Level: level.MustParse(pairs[i+1])}
	}
	return out
}

func TestExtract_ParsesMetadata(t *testing.T) {
	path := "/work/tardir/tcpdump_fix5/IJ20785s2a.191119.epkg.Z"
	x := NewExtractor(describeMap(map[string]string{path: describeOK}),
		filesets(t, "bos.net.tcp.tcpdump", "7.2.3.15"), inventory.NewEfixes())

	c, msgs := x.Extract(testContext(t), path)
	if c.Rejected() {
		t.Fatalf("unexpected rejection %q", c.Rejection)
	}
	if len(msgs) != 0 {
		t.Fatalf("unexpected messages %v", msgs)
	}
	if c.Label != "IJ20785s2a" {
		t.Fatalf("unexpected label %q", c.Label)
	}
	if len(c.Files) != 2 || c.Files[0] != "/usr/sbin/tcpdump" || c.Files[1] != "/usr/lib/libpcap.a" {
		t.Fatalf("unexpected files %v", c.Files)
	}
	if len(c.Packages) != 1 {
		t.Fatalf("expected deduplicated packages, got %v", c.Packages)
	}
	if len(c.Prereqs) != 1 || c.Prereqs[0].Fileset != "bos.net.tcp.tcpdump" {
		t.Fatalf("unexpected prereqs %+v", c.Prereqs)
	}
	want := time.Date(2019, time.November, 19, 9, 22, 10, 0, time.UTC).Unix()
	if c.PackagingTime != want {
		t.Fatalf("packaging time = %d, want %d", c.PackagingTime, want)
	}
}

func TestExtract_PrerequisiteMissing(t *testing.T) {
	path := "/work/IJ17059m9b.190719.epkg.Z"
	text := "LABEL: IJ17059m9b\nntp.rte 7.1.0.0 7.1.0.99\n   LOCATION: /usr/sbin/xntpd\n"
	x := NewExtractor(describeMap(map[string]string{path: text}), filesets(t), nil)

	c, _ := x.Extract(testContext(t), path)
	if c.Rejection != "IJ17059m9b.190719.epkg.Z: prerequisite missing: ntp.rte" {
		t.Fatalf("unexpected rejection %q", c.Rejection)
	}
	if len(c.Files) != 0 {
		t.Fatalf("expected parsing to stop at the failed prerequisite, got files %v", c.Files)
	}
}

func TestExtract_PrerequisiteOutOfRange(t *testing.T) {
	path := "/work/102p_fix"
	text := "LABEL: 102p_fix\nopenssl.base 1.0.2.1600 1.0.2.1600\n"
	x := NewExtractor(describeMap(map[string]string{path: text}),
		filesets(t, "openssl.base", "1.0.2.1500"), nil)

	c, _ := x.Extract(testContext(t), path)
	want := "102p_fix: prerequisite openssl.base levels do not match: 1.0.2.1600 < 1.0.2.1500 < 1.0.2.1600"
	if c.Rejection != want {
		t.Fatalf("rejection = %q, want %q", c.Rejection, want)
	}
}

func TestExtract_PrerequisiteMalformed(t *testing.T) {
	path := "/work/odd.epkg.Z"
	text := "LABEL: odd\nbos.rte 7.2.+.0 7.2.3.0\n"
	x := NewExtractor(describeMap(map[string]string{path: text}), filesets(t, "bos.rte", "7.2.3.0"), nil)

	c, _ := x.Extract(testContext(t), path)
	if !strings.Contains(c.Rejection, "level is malformed") {
		t.Fatalf("expected malformed prerequisite rejection, got %q", c.Rejection)
	}
}

func TestExtract_LockedByInstalledEfix(t *testing.T) {
	path := "/work/IJ12978s9a.190215.epkg.Z"
	efixes := inventory.NewEfixes()
	efixes.Add("IJ09625s3a", []string{"/usr/sbin/tcpdump"}, []string{"bos.net.tcp.server"})

	x := NewExtractor(describeMap(map[string]string{path: describeOK}),
		filesets(t, "bos.net.tcp.tcpdump", "7.2.3.10"), efixes)

	c, msgs := x.Extract(testContext(t), path)
	want := "IJ12978s9a.190215.epkg.Z: installed efix IJ09625s3a is locking /usr/sbin/tcpdump"
	if c.Rejection != want {
		t.Fatalf("rejection = %q, want %q", c.Rejection, want)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "force") {
		t.Fatalf("expected one advisory message, got %v", msgs)
	}
}

func TestExtract_QueryFailureKeepsCandidate(t *testing.T) {
	x := NewExtractor(describeMap(nil), filesets(t), nil)

	c, msgs := x.Extract(testContext(t), "/work/broken.epkg.Z")
	if c.Rejected() {
		t.Fatalf("expected best-effort candidate, got rejection %q", c.Rejection)
	}
	if c.KnownTime() {
		t.Fatalf("expected unknown packaging time, got %d", c.PackagingTime)
	}
	if len(msgs) != 1 || msgs[0] != "Cannot get efix information /work/broken.epkg.Z" {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestExtract_BadDateIsUnknown(t *testing.T) {
	path := "/work/late.epkg.Z"
	text := "LABEL: late\nPACKAGING DATE:   Mon Foo 9 23:35:09 CDT 2017\n"
	x := NewExtractor(describeMap(map[string]string{path: text}), filesets(t), nil)

	c, msgs := x.Extract(testContext(t), path)
	if c.Rejected() {
		t.Fatalf("a bad date must not reject, got %q", c.Rejection)
	}
	if c.KnownTime() {
		t.Fatalf("expected unknown time, got %d", c.PackagingTime)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message for the bad date, got %v", msgs)
	}
}

func TestCandidate_RejectionIsSticky(t *testing.T) {
	c := NewCandidate("/a/b.epkg.Z")
	if !c.Reject(CauseInterlock, "first") {
		t.Fatalf("expected first rejection to be recorded")
	}
	if c.Reject(CausePrerequisite, "second") {
		t.Fatalf("expected second rejection to be ignored")
	}
	if c.Rejection != "first" || c.Cause != CauseInterlock {
		t.Fatalf("rejection overwritten: %q (%s)", c.Rejection, c.Cause)
	}
}

func TestParagraphs(t *testing.T) {
	text := "HEADER\nstuff\n\nLABEL: X\nPACKAGING DATE: d\n\nnoise 1.0 2.0\n\nPREREQ:\nbos.rte 7.2.0.0 7.2.9.9\n"
	got := Paragraphs(text, "PREREQ", "PACKAG")
	if strings.Contains(got, "noise") || strings.Contains(got, "HEADER") {
		t.Fatalf("expected unrelated paragraphs removed, got %q", got)
	}
	if !strings.Contains(got, "LABEL: X") || !strings.Contains(got, "bos.rte 7.2.0.0 7.2.9.9") {
		t.Fatalf("expected matching paragraphs kept, got %q", got)
	}
}

func TestExtract_PreEpochDateIsKnown(t *testing.T) {
	path := "/work/old.epkg.Z"
	text := "LABEL: old\nPACKAGING DATE:   Wed Dec 31 23:59:59 UTC 1969\n"
	x := NewExtractor(describeMap(map[string]string{path: text}), filesets(t), nil)

	c, msgs := x.Extract(testContext(t), path)
	if len(msgs) != 0 {
		t.Fatalf("unexpected messages %v", msgs)
	}
	if !c.KnownTime() || c.PackagingTime != -1 {
		t.Fatalf("expected known time -1, got %d (known %v)", c.PackagingTime, c.KnownTime())
	}
}
