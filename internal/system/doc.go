// Package system wraps the host commands a run depends on and gathers the system-state
// listings (installed filesets and installed interim fixes) before resolution starts.
package system
