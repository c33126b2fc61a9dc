package interfaces

import "errors"

// ErrNotFound is wrapped by repositories when a document does not exist,
// so callers can branch with errors.Is instead of matching messages.
var ErrNotFound = errors.New("not found")
