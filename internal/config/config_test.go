package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.WorkDir() != "/var/adm/ansible/work/work" {
		t.Fatalf("unexpected work dir %q", c.WorkDir())
	}
	if !c.IncreaseFS || c.Parallelism != 4 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.InsecureSkipVerify {
		t.Fatalf("certificate checks must be on by default")
	}
}

func TestLoad_KeepsUnsetFields(t *testing.T) {
	p := filepath.Join(t.TempDir(), "flrtvc.yaml")
	data := "apar: sec\npath: /tmp/fixes\nforce: true\n"
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := Default()
	if err := c.Load(p); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if c.APAR != "sec" || c.Path != "/tmp/fixes" || !c.Force {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.ToolURL != DefaultToolURL || c.Parallelism != 4 {
		t.Fatalf("defaults lost: %+v", c)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	p := filepath.Join(t.TempDir(), "flrtvc.yaml")
	if err := os.WriteFile(p, []byte("aparType: sec\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Default().Load(p); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "flrtvc.yaml")
	if err := os.WriteFile(p, []byte("apar: sec\nparallelism: 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.BindFlags(fs)
	if err := c.Load(p); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := fs.Parse([]string{"-apar", "hiper", "-clean"}); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if c.APAR != "hiper" || !c.Clean || c.Parallelism != 2 {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.APAR = "critical"
	c.Parallelism = 0
	c.CheckOnly = true
	c.DownloadOnly = true

	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"apar", "parallelism", "downloadOnly"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}
