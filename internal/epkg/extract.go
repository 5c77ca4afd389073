package epkg

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/inventory"
	"github.com/dlminvestments/ansible-power-aix/internal/level"
	"github.com/dlminvestments/ansible-power-aix/internal/pkgdate"
)

var (
	reLabel    = regexp.MustCompile(`^LABEL:\s+(\S+)$`)
	reDate     = regexp.MustCompile(`^PACKAGING\s+DATE:\s+(\S+\s+\S+\s+\d+\s+\d+:\d+:\d+\s+\S*\s*\S+).*$`)
	rePackage  = regexp.MustCompile(`^\s+PACKAGE:\s+(\S+)\s*$`)
	reLocation = regexp.MustCompile(`^\s+LOCATION:\s+(\S+)\s*$`)
	rePrereq   = regexp.MustCompile(`^(\S+)\s+([\d+.]+)\s+([\d+.]+)\s*$`)
)

// Extractor fills candidate records from the describe query and applies the per-candidate
// checks: prerequisite levels against the installed filesets, and files already locked by
// installed interim fixes.
type Extractor struct {
	describer Describer
	filesets  inventory.Filesets
	locked    map[string]string
}

func NewExtractor(d Describer, filesets inventory.Filesets, efixes *inventory.Efixes) *Extractor {
	locked := map[string]string{}
	if efixes != nil {
		locked = efixes.LockedFiles()
	}
	return &Extractor{describer: d, filesets: filesets, locked: locked}
}

// Extract describes the epkg at path and returns its record with operator messages.
//
// The candidate is never dropped: a failed query is reported and the candidate continues
// with whatever metadata was read.
func (x *Extractor) Extract(ctx context.Context, path string) (*Candidate, []string) {
	logger := log.FromContext(ctx).WithValues("epkg", path)
	c := NewCandidate(path)
	var msgs []string

	text, err := x.describer.Describe(ctx, path)
	if err != nil {
		msg := fmt.Sprintf("Cannot get efix information %s", path)
		logger.Error(err, "describe query failed, keeping epkg")
		msgs = append(msgs, msg)
	}

	x.parse(c, text)
	if c.Rejected() {
		logger.Info("reject", "reason", c.Rejection)
		return c, msgs
	}

	if msg, ok := x.checkLocked(c); ok {
		msgs = append(msgs, msg)
		logger.Info("reject", "reason", c.Rejection)
		return c, msgs
	}

	if c.PackagingDate != "" {
		sec, warn, err := pkgdate.ToUTCEpoch(c.PackagingDate)
		switch {
		case err != nil:
			logger.Error(err, "cannot order epkg by packaging date", "date", c.PackagingDate)
			msgs = append(msgs, fmt.Sprintf("%s: %v", c.Base(), err))
		case warn != "":
			logger.Info(warn)
			msgs = append(msgs, fmt.Sprintf("%s: %s", c.Base(), warn))
			c.SetPackagingTime(sec)
		default:
			c.SetPackagingTime(sec)
		}
	}
	logger.V(1).Info("epkg described", "label", c.Label, "files", c.Files, "time", c.PackagingTime)
	return c, msgs
}

// parse reads the describe output in order and stops at the first failing prerequisite.
func (x *Extractor) parse(c *Candidate, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "+") {
			continue
		}

		if c.Label == "" {
			if m := reLabel.FindStringSubmatch(line); m != nil {
				c.Label = m[1]
				continue
			}
		}
		if c.PackagingDate == "" {
			if m := reDate.FindStringSubmatch(line); m != nil {
				c.PackagingDate = m[1]
				continue
			}
		}
		if m := rePackage.FindStringSubmatch(line); m != nil {
			c.AddPackage(m[1])
			continue
		}
		if m := reLocation.FindStringSubmatch(line); m != nil {
			c.AddFile(m[1])
			continue
		}

		m := rePrereq.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if reason := x.checkPrereq(c, m[1], m[2], m[3]); reason != "" {
			c.Reject(CausePrerequisite, reason)
			return
		}
	}
}

func (x *Extractor) checkPrereq(c *Candidate, fileset, minRaw, maxRaw string) string {
	minLvl, errMin := level.Parse(minRaw)
	maxLvl, errMax := level.Parse(maxRaw)
	if errMin != nil || errMax != nil {
		return fmt.Sprintf("%s: prerequisite %s level is malformed: %s %s", c.Base(), fileset, minRaw, maxRaw)
	}
	r := level.Range{Min: minLvl, Max: maxLvl}
	c.Prereqs = append(c.Prereqs, Prereq{Fileset: fileset, Range: r})

	installed, ok := x.filesets.Lookup(fileset)
	if !ok {
		return fmt.Sprintf("%s: prerequisite missing: %s", c.Base(), fileset)
	}
	if !r.Contains(installed.Level) {
		return fmt.Sprintf("%s: prerequisite %s levels do not match: %s < %s < %s",
			c.Base(), fileset, minRaw, installed.Level, maxRaw)
	}
	return ""
}

// checkLocked rejects c on the first of its files owned by an installed interim fix.
func (x *Extractor) checkLocked(c *Candidate) (string, bool) {
	for _, f := range c.Files {
		owner, ok := x.locked[f]
		if !ok {
			continue
		}
		c.Reject(CauseInstalledLock, fmt.Sprintf("%s: installed efix %s is locking %s", c.Base(), owner, f))
		return fmt.Sprintf("installed efix %s is locking %s preventing the installation of %s, "+
			"remove it manually or set the \"force\" option.", owner, f, c.Base()), true
	}
	return "", false
}
