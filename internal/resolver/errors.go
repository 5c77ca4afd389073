package resolver

import "errors"

var (
	// ErrMissingInventory indicates the installed fileset or installed efix table is absent.
	// Resolution is never attempted without both.
	ErrMissingInventory = errors.New("installed filesets and efixes are both required")
)
