package command

import "errors"

// ErrPermissionDenied marks a command refused for lack of a grant.
var ErrPermissionDenied = errors.New("permission denied")
