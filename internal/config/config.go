// Package config holds the options of a fix run. Values come from defaults, then an optional
// YAML file, then command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"
)

const (
	DefaultPath    = "/var/adm/ansible/work"
	DefaultToolURL = "https://www-304.ibm.com/webapp/set2/sas/f/flrt3/FLRTVC-latest.zip"
	DefaultToolDir = "/usr/bin"
)

// APARTypes lists the accepted apar filters. The empty value selects every type.
var APARTypes = []string{"sec", "hiper", "all"}

type Config struct {
	// APAR restricts the report to sec, hiper or all fixes.
	APAR string `json:"apar,omitempty"`
	// Filesets is a fileset filter passed to the checker.
	Filesets string `json:"filesets,omitempty"`
	// CSV names an apar csv file the checker reads instead of downloading one.
	CSV string `json:"csv,omitempty"`
	// Path is the download and staging directory. The work directory lives under it.
	Path string `json:"path"`

	Verbose      bool `json:"verbose,omitempty"`
	Force        bool `json:"force,omitempty"`
	Clean        bool `json:"clean,omitempty"`
	CheckOnly    bool `json:"checkOnly,omitempty"`
	DownloadOnly bool `json:"downloadOnly,omitempty"`
	IncreaseFS   bool `json:"increaseFS"`

	ToolURL            string `json:"toolURL"`
	ToolDir            string `json:"toolDir"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty"`

	MetricsFile string `json:"metricsFile,omitempty"`
	ReportFile  string `json:"reportFile,omitempty"`
	Parallelism int    `json:"parallelism"`
}

func Default() *Config {
	return &Config{
		Path:        DefaultPath,
		IncreaseFS:  true,
		ToolURL:     DefaultToolURL,
		ToolDir:     DefaultToolDir,
		Parallelism: 4,
	}
}

// WorkDir holds the fact snapshots and the checker archive.
func (c *Config) WorkDir() string {
	return filepath.Join(c.Path, "work")
}

// Load reads a YAML file over c. Fields absent from the file keep their current value.
func (c *Config) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// BindFlags registers a flag per option, defaulting to the current values of c.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.APAR, "apar", c.APAR, "Restrict the report to sec, hiper or all fixes.")
	fs.StringVar(&c.Filesets, "filesets", c.Filesets, "Fileset filter passed to the checker.")
	fs.StringVar(&c.CSV, "csv", c.CSV, "Apar csv file read by the checker.")
	fs.StringVar(&c.Path, "path", c.Path, "Download and staging directory.")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Save a verbose checker report.")
	fs.BoolVar(&c.Force, "force", c.Force, "Remove every installed interim fix first.")
	fs.BoolVar(&c.Clean, "clean", c.Clean, "Remove the work directory on exit.")
	fs.BoolVar(&c.CheckOnly, "check-only", c.CheckOnly, "Stop after the checker report.")
	fs.BoolVar(&c.DownloadOnly, "download-only", c.DownloadOnly, "Stop after downloading and checking fixes.")
	fs.BoolVar(&c.IncreaseFS, "increase-fs", c.IncreaseFS, "Grow the filesystem when a copy runs out of space.")
	fs.StringVar(&c.ToolURL, "tool-url", c.ToolURL, "Location of the checker archive.")
	fs.StringVar(&c.ToolDir, "tool-dir", c.ToolDir, "Directory the checker script is extracted into.")
	fs.BoolVar(&c.InsecureSkipVerify, "insecure-skip-verify", c.InsecureSkipVerify, "Do not verify server certificates on download.")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "Write run metrics in text format to this file.")
	fs.StringVar(&c.ReportFile, "report-file", c.ReportFile, "Write the run report as YAML to this file.")
	fs.IntVar(&c.Parallelism, "parallelism", c.Parallelism, "Concurrent fix metadata queries.")
}

func (c *Config) Validate() error {
	var errs field.ErrorList
	if c.APAR != "" && !contains(APARTypes, c.APAR) {
		errs = append(errs, field.NotSupported(field.NewPath("apar"), c.APAR, APARTypes))
	}
	if c.Path == "" {
		errs = append(errs, field.Required(field.NewPath("path"), ""))
	}
	if c.Parallelism < 1 {
		errs = append(errs, field.Invalid(field.NewPath("parallelism"), c.Parallelism, "must be at least 1"))
	}
	if c.CheckOnly && c.DownloadOnly {
		errs = append(errs, field.Forbidden(field.NewPath("downloadOnly"), "cannot be combined with checkOnly"))
	}
	return errs.ToAggregate()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
