package tiers

import "errors"

// ErrUnknownStat is returned for a stat outside the configured set.
var ErrUnknownStat = errors.New("unknown stat")
