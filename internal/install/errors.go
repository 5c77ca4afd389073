package install

import "errors"

var (
	// ErrNothingCopied indicates none of the accepted packages could be staged.
	ErrNothingCopied = errors.New("no efix could be staged for installation")
	// ErrInstallFailed indicates geninstall exited non-zero.
	ErrInstallFailed = errors.New("cannot perform customization")
	// ErrRemoveFailed indicates at least one installed efix could not be removed.
	ErrRemoveFailed = errors.New("cannot remove installed efixes")
	// ErrGrowFailed indicates the filesystem holding the lpp source could not be enlarged.
	ErrGrowFailed = errors.New("cannot increase filesystem")
)
