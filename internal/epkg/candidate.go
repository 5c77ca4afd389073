package epkg

import (
	"path/filepath"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/dlminvestments/ansible-power-aix/internal/level"
)

// Cause classifies why a candidate was rejected.
type Cause string

const (
	CausePrerequisite  Cause = "prerequisite"
	CauseInstalledLock Cause = "installed-lock"
	CauseInterlock     Cause = "interlock"
)

// Prereq is a fileset level range a candidate requires.
type Prereq struct {
	Fileset string
	Range   level.Range
}

// Candidate is an interim fix package (epkg) under evaluation.
//
// Files and Packages keep first-seen order without duplicates. Once Rejection is set it is
// never changed.
type Candidate struct {
	Path          string
	Label         string
	PackagingDate string
	PackagingTime int64
	// HasTime is set once PackagingDate was understood. PackagingTime is meaningless without it.
	HasTime       bool
	Packages      []string
	Files         []string
	Prereqs       []Prereq
	Rejection     string
	Cause         Cause

	fileSet sets.Set[string]
	pkgSet  sets.Set[string]
}

func NewCandidate(path string) *Candidate {
	return &Candidate{
		Path:    path,
		fileSet: sets.New[string](),
		pkgSet:  sets.New[string](),
	}
}

// Base is the name used in rejection reasons and operator messages.
func (c *Candidate) Base() string {
	return filepath.Base(c.Path)
}

func (c *Candidate) Rejected() bool {
	return c.Rejection != ""
}

// Reject records reason unless the candidate is already rejected. It reports whether the
// reason was recorded.
func (c *Candidate) Reject(cause Cause, reason string) bool {
	if c.Rejected() {
		return false
	}
	c.Rejection = reason
	c.Cause = cause
	return true
}

func (c *Candidate) AddFile(f string) {
	if c.fileSet.Has(f) {
		return
	}
	c.fileSet.Insert(f)
	c.Files = append(c.Files, f)
}

func (c *Candidate) AddPackage(p string) {
	if c.pkgSet.Has(p) {
		return
	}
	c.pkgSet.Insert(p)
	c.Packages = append(c.Packages, p)
}

// SetPackagingTime records sec as the packaging time, in seconds since the epoch.
func (c *Candidate) SetPackagingTime(sec int64) {
	c.PackagingTime = sec
	c.HasTime = true
}

// KnownTime reports whether the packaging time was parsed.
func (c *Candidate) KnownTime() bool {
	return c.HasTime
}
