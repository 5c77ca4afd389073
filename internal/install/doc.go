// Package install stages accepted fix packages into an lpp source and runs the installer.
// It also removes every installed interim fix when a run is forced.
package install
